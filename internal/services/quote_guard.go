package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
)

// QuoteGuardInterface - предусловия выдачи нового коммерческого предложения.
// Проверка выполняется только в момент выдачи: правки предложения и более
// поздние изменения выездов повторно не проверяются.
type QuoteGuardInterface interface {
	CheckCanQuote(ctx context.Context, requestID uint64) error
}

type quoteGuard struct {
	visitRepo repositories.SiteVisitRepositoryInterface
	logger    *zap.Logger
}

func NewQuoteGuard(visitRepo repositories.SiteVisitRepositoryInterface, logger *zap.Logger) QuoteGuardInterface {
	return &quoteGuard{visitRepo: visitRepo, logger: logger}
}

// CheckCanQuote смотрит на последний выезд заявки (максимальный scheduled_at,
// при равенстве больший id) и требует: выезд существует, клиент подтвердил
// время (APPROVED) и осмотр завершен (DONE). Каждое нарушение - отдельный
// вид ошибки, они не схлопываются.
func (g *quoteGuard) CheckCanQuote(ctx context.Context, requestID uint64) error {
	latest, err := g.visitRepo.FindLatestByRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNoVisitScheduled
		}
		return err
	}

	if latest.CustomerResponse != constants.VisitResponseApproved {
		g.logger.Debug("Выдача предложения отклонена: клиент не подтвердил выезд",
			zap.Uint64("requestId", requestID),
			zap.String("customerResponse", latest.CustomerResponse))
		return apperrors.ErrCustomerNotApproved
	}

	if latest.Status != constants.VisitStatusDone {
		g.logger.Debug("Выдача предложения отклонена: осмотр не завершен",
			zap.Uint64("requestId", requestID),
			zap.String("visitStatus", latest.Status))
		return apperrors.ErrVisitNotCompleted
	}

	return nil
}
