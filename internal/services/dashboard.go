package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
)

// Ключ кеша сводки; сбрасывается синхронизатором при каждой записи статуса.
const dashboardSummaryCacheKey = "dashboard:summary"

type DashboardServiceInterface interface {
	GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error)
}

type dashboardService struct {
	requestRepo repositories.RequestRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewDashboardService(
	requestRepo repositories.RequestRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) DashboardServiceInterface {
	return &dashboardService{
		requestRepo: requestRepo,
		cacheRepo:   cacheRepo,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// GetSummary отдает счетчики заявок по статусам. Сводка кешируется в Redis;
// недоступность кеша не ломает запрос, просто каждый раз считаем по БД.
func (s *dashboardService) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	if s.cacheRepo != nil {
		if cached, err := s.cacheRepo.Get(ctx, dashboardSummaryCacheKey); err == nil && cached != "" {
			var summary dto.DashboardSummaryDTO
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummaryDTO{ByStatus: make(map[string]uint64)}
	for _, status := range []string{
		constants.RequestStatusNew,
		constants.RequestStatusSurvey,
		constants.RequestStatusSurveyDone,
		constants.RequestStatusQuoted,
		constants.RequestStatusApproved,
		constants.RequestStatusRejected,
	} {
		summary.ByStatus[status] = counts[status]
		summary.Total += counts[status]
	}

	if s.cacheRepo != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cacheRepo.Set(ctx, dashboardSummaryCacheKey, payload, s.cacheTTL); err != nil {
				s.logger.Warn("Не удалось записать сводку в кеш", zap.Error(err))
			}
		}
	}

	return summary, nil
}
