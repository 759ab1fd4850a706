package services

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"intake-system/internal/entities"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
)

// StatusSource - происхождение записи статуса заявки. Персистентное поле
// остается плоским enum-ом, но каждая запись в процессе помечена источником,
// чтобы можно было отследить (и протестировать), когда пересчет по выездам
// перетирает статус, выставленный решением по предложению.
type StatusSource string

const (
	SourceVisitDerived   StatusSource = "derived-from-visits"
	SourceQuotation      StatusSource = "set-by-quotation-decision"
	SourceCustomerCancel StatusSource = "set-by-customer-cancel"
)

// StatusChange - результат одной записи статуса.
type StatusChange struct {
	RequestID uint64
	From      string
	To        string
	Source    StatusSource
	Changed   bool
}

// StatusSynchronizerInterface - единственный писатель requests.status,
// кроме самого создания заявки.
type StatusSynchronizerInterface interface {
	// Resync перечитывает все выезды заявки и пересчитывает статус.
	// Вызывается после каждого создания/изменения выезда.
	Resync(ctx context.Context, requestID uint64) (*StatusChange, error)
	// Apply пишет статус напрямую (решение по предложению, отмена клиентом),
	// минуя правило пересчета по выездам.
	Apply(ctx context.Context, requestID uint64, to string, source StatusSource) (*StatusChange, error)
	// ApplyInTx - то же, что Apply, но в рамках внешней транзакции. Кеш
	// сводки не сбрасывает: вызывающая сторона обязана вызвать
	// InvalidateSummary после коммита.
	ApplyInTx(ctx context.Context, tx pgx.Tx, requestID uint64, to string, source StatusSource) (*StatusChange, error)
	// InvalidateSummary сбрасывает кеш сводки дашборда.
	InvalidateSummary(ctx context.Context)
}

type statusSynchronizer struct {
	requestRepo repositories.RequestRepositoryInterface
	visitRepo   repositories.SiteVisitRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	logger      *zap.Logger

	// Пересчет сериализуется по заявке: два конкурирующих обновления выездов
	// одной заявки не должны гоняться между чтением набора выездов и записью.
	locks sync.Map
}

func NewStatusSynchronizer(
	requestRepo repositories.RequestRepositoryInterface,
	visitRepo repositories.SiteVisitRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) StatusSynchronizerInterface {
	return &statusSynchronizer{
		requestRepo: requestRepo,
		visitRepo:   visitRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// DeriveRequestStatus - чистая функция пересчета статуса по полному набору
// выездов заявки:
//   - есть хотя бы один DONE      -> SURVEY_DONE
//   - иначе есть хотя бы один PENDING -> SURVEY
//   - иначе есть выезды и все CANCELLED -> REJECTED
//   - выездов нет -> статус не трогаем (второе значение false)
func DeriveRequestStatus(visits []entities.SiteVisit) (string, bool) {
	var hasDone, hasPending, hasCancelled bool
	for _, v := range visits {
		switch v.Status {
		case constants.VisitStatusDone:
			hasDone = true
		case constants.VisitStatusPending:
			hasPending = true
		case constants.VisitStatusCancelled:
			hasCancelled = true
		}
	}

	switch {
	case hasDone:
		return constants.RequestStatusSurveyDone, true
	case hasPending:
		return constants.RequestStatusSurvey, true
	case hasCancelled:
		return constants.RequestStatusRejected, true
	}
	return "", false
}

func (s *statusSynchronizer) lockRequest(requestID uint64) func() {
	muIface, _ := s.locks.LoadOrStore(requestID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *statusSynchronizer) Resync(ctx context.Context, requestID uint64) (*StatusChange, error) {
	unlock := s.lockRequest(requestID)
	defer unlock()

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	visits, err := s.visitRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	change := &StatusChange{
		RequestID: requestID,
		From:      request.Status,
		To:        request.Status,
		Source:    SourceVisitDerived,
	}

	target, ok := DeriveRequestStatus(visits)
	if !ok || target == request.Status {
		return change, nil
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, target); err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx)

	change.To = target
	change.Changed = true

	// Терминальный или QUOTED статус перетерт пересчетом: унаследованное
	// поведение, см. DESIGN.md.
	if constants.IsTerminalRequestStatus(request.Status) || request.Status == constants.RequestStatusQuoted {
		s.logger.Warn("Пересчет по выездам перезаписал статус, выставленный по предложению",
			zap.Uint64("requestId", requestID),
			zap.String("from", request.Status),
			zap.String("to", target),
		)
	} else {
		s.logger.Info("Статус заявки пересчитан по выездам",
			zap.Uint64("requestId", requestID),
			zap.String("from", request.Status),
			zap.String("to", target),
		)
	}

	return change, nil
}

func (s *statusSynchronizer) Apply(ctx context.Context, requestID uint64, to string, source StatusSource) (*StatusChange, error) {
	unlock := s.lockRequest(requestID)
	defer unlock()

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, to); err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx)

	s.logger.Info("Статус заявки записан напрямую",
		zap.Uint64("requestId", requestID),
		zap.String("from", request.Status),
		zap.String("to", to),
		zap.String("source", string(source)),
	)

	return &StatusChange{
		RequestID: requestID,
		From:      request.Status,
		To:        to,
		Source:    source,
		Changed:   request.Status != to,
	}, nil
}

func (s *statusSynchronizer) ApplyInTx(ctx context.Context, tx pgx.Tx, requestID uint64, to string, source StatusSource) (*StatusChange, error) {
	unlock := s.lockRequest(requestID)
	defer unlock()

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Кеш здесь не трогаем: до коммита конкурентный GetSummary мог бы
	// закешировать счетчики, которых в базе еще нет.
	if err := s.requestRepo.UpdateStatusInTx(ctx, tx, requestID, to); err != nil {
		return nil, err
	}

	return &StatusChange{
		RequestID: requestID,
		From:      request.Status,
		To:        to,
		Source:    source,
		Changed:   request.Status != to,
	}, nil
}

func (s *statusSynchronizer) InvalidateSummary(ctx context.Context) {
	s.invalidateSummary(ctx)
}

func (s *statusSynchronizer) invalidateSummary(ctx context.Context) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Del(ctx, dashboardSummaryCacheKey); err != nil {
		s.logger.Warn("Не удалось сбросить кеш сводки", zap.Error(err))
	}
}
