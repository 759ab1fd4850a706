package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"intake-system/internal/events"
	"intake-system/pkg/config"
	"intake-system/pkg/eventbus"
)

// NotificationListener превращает события рабочего процесса в уведомления
// клиенту. Сейчас доставка - запись в лог; транспорт (почта, мессенджер)
// подключается здесь же, не трогая сервисы.
type NotificationListener struct {
	mail   config.MailConfig
	logger *zap.Logger
}

func NewNotificationListener(mail config.MailConfig, logger *zap.Logger) *NotificationListener {
	return &NotificationListener{mail: mail, logger: logger}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RequestCreatedEvent{}.Name(), l.onRequestCreated)
	bus.Subscribe(events.VisitScheduledEvent{}.Name(), l.onVisitScheduled)
	bus.Subscribe(events.VisitUpdatedEvent{}.Name(), l.onVisitUpdated)
	bus.Subscribe(events.VisitRespondedEvent{}.Name(), l.onVisitResponded)
	bus.Subscribe(events.QuotationIssuedEvent{}.Name(), l.onQuotationIssued)
	bus.Subscribe(events.QuotationDecidedEvent{}.Name(), l.onQuotationDecided)
}

func (l *NotificationListener) onRequestCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RequestCreatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("Уведомление: заявка принята",
		zap.Uint64("requestId", e.Request.ID),
		zap.String("publicRef", e.Request.PublicRef),
		zap.String("from", l.mail.From),
		zap.String("email", e.Request.ContactEmail),
	)
	return nil
}

func (l *NotificationListener) onVisitScheduled(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.VisitScheduledEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("Уведомление: назначен выезд",
		zap.Uint64("visitId", e.Visit.ID),
		zap.String("publicRef", e.Request.PublicRef),
		zap.Time("scheduledAt", e.Visit.ScheduledAt),
		zap.String("email", e.Request.ContactEmail),
	)
	return nil
}

func (l *NotificationListener) onVisitUpdated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.VisitUpdatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	if e.Cancelled {
		l.logger.Info("Уведомление: выезд отменен",
			zap.Uint64("visitId", e.Visit.ID),
			zap.Uint64("requestId", e.RequestID),
		)
		return nil
	}
	l.logger.Info("Уведомление: выезд изменен",
		zap.Uint64("visitId", e.Visit.ID),
		zap.Uint64("requestId", e.RequestID),
		zap.String("status", e.Visit.Status),
	)
	return nil
}

func (l *NotificationListener) onVisitResponded(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.VisitRespondedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("Уведомление для сотрудников: клиент ответил по выезду",
		zap.Uint64("visitId", e.Visit.ID),
		zap.Uint64("requestId", e.Visit.RequestID),
		zap.String("decision", e.Decision),
		zap.String("to", l.mail.AdminAddr),
	)
	return nil
}

func (l *NotificationListener) onQuotationIssued(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.QuotationIssuedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("Уведомление: выдано предложение",
		zap.Uint64("quotationId", e.Quotation.ID),
		zap.String("publicRef", e.Request.PublicRef),
		zap.String("email", e.Request.ContactEmail),
	)
	return nil
}

func (l *NotificationListener) onQuotationDecided(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.QuotationDecidedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("Уведомление для сотрудников: решение по предложению",
		zap.Uint64("quotationId", e.Quotation.ID),
		zap.Uint64("requestId", e.Quotation.RequestID),
		zap.String("decision", e.Decision),
		zap.String("to", l.mail.AdminAddr),
	)
	return nil
}
