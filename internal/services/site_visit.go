package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/events"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/eventbus"
)

type SiteVisitServiceInterface interface {
	Schedule(ctx context.Context, payload dto.CreateSiteVisitDTO) (*dto.SiteVisitDTO, error)
	Update(ctx context.Context, visitID uint64, payload dto.UpdateSiteVisitDTO) (*dto.SiteVisitDTO, error)
	Respond(ctx context.Context, visitID uint64, customerID uint64, payload dto.RespondSiteVisitDTO) (*dto.SiteVisitDTO, error)
	GetVisit(ctx context.Context, visitID uint64, actorID uint64, isAdmin bool) (*dto.SiteVisitDTO, error)
	ListByRequest(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool) ([]dto.SiteVisitDTO, error)
	ListByStatus(ctx context.Context, status string) ([]dto.SiteVisitDTO, error)
	ListOwn(ctx context.Context, customerID uint64) ([]dto.SiteVisitDTO, error)
}

type siteVisitService struct {
	visitRepo    repositories.SiteVisitRepositoryInterface
	requestRepo  repositories.RequestRepositoryInterface
	synchronizer StatusSynchronizerInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewSiteVisitService(
	visitRepo repositories.SiteVisitRepositoryInterface,
	requestRepo repositories.RequestRepositoryInterface,
	synchronizer StatusSynchronizerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) SiteVisitServiceInterface {
	return &siteVisitService{
		visitRepo:    visitRepo,
		requestRepo:  requestRepo,
		synchronizer: synchronizer,
		bus:          bus,
		logger:       logger,
	}
}

func parseScheduledAt(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, timeLayout, "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewHttpError(400,
		"Неверный формат даты выезда, ожидается RFC3339 или 'ГГГГ-ММ-ДД ЧЧ:ММ:СС'", nil,
		map[string]interface{}{"scheduledAt": value})
}

// Schedule назначает выезд по заявке и сразу пересчитывает статус заявки:
// появление PENDING-выезда переводит ее в SURVEY.
func (s *siteVisitService) Schedule(ctx context.Context, payload dto.CreateSiteVisitDTO) (*dto.SiteVisitDTO, error) {
	scheduledAt, err := parseScheduledAt(payload.ScheduledAt)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.FindByID(ctx, payload.RequestID)
	if err != nil {
		return nil, err
	}

	visit, err := s.visitRepo.Create(ctx, payload.RequestID, scheduledAt)
	if err != nil {
		return nil, err
	}

	if _, err := s.synchronizer.Resync(ctx, payload.RequestID); err != nil {
		return nil, err
	}

	s.logger.Info("Назначен выезд",
		zap.Uint64("visitId", visit.ID),
		zap.Uint64("requestId", payload.RequestID),
		zap.Time("scheduledAt", scheduledAt),
	)
	s.bus.Publish(ctx, events.VisitScheduledEvent{Visit: *visit, Request: *request})

	out := visitToDTO(*visit)
	return &out, nil
}

// Update - перенос времени и/или смена статуса выезда сотрудником. Любое
// изменение заканчивается пересчетом статуса заявки по всему набору выездов.
func (s *siteVisitService) Update(ctx context.Context, visitID uint64, payload dto.UpdateSiteVisitDTO) (*dto.SiteVisitDTO, error) {
	if payload.ScheduledAt == nil && payload.Status == nil {
		return nil, apperrors.NewHttpError(400, "Не передано ни одного поля для обновления", nil, nil)
	}

	var scheduledAt *time.Time
	if payload.ScheduledAt != nil {
		parsed, err := parseScheduledAt(*payload.ScheduledAt)
		if err != nil {
			return nil, err
		}
		scheduledAt = &parsed
	}

	if payload.Status != nil && !constants.IsAllowedVisitStatus(*payload.Status) {
		return nil, apperrors.NewHttpError(400, "Недопустимый статус выезда", nil, map[string]interface{}{
			"status": *payload.Status,
		})
	}

	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if err := s.visitRepo.Update(ctx, visitID, scheduledAt, payload.Status); err != nil {
		return nil, err
	}

	updated, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	change, err := s.synchronizer.Resync(ctx, visit.RequestID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Выезд обновлен",
		zap.Uint64("visitId", visitID),
		zap.Uint64("requestId", visit.RequestID),
		zap.String("visitStatus", updated.Status),
		zap.Bool("requestStatusChanged", change.Changed),
	)
	s.bus.Publish(ctx, events.VisitUpdatedEvent{
		Visit:     *updated,
		RequestID: visit.RequestID,
		Cancelled: updated.Status == constants.VisitStatusCancelled,
	})

	out := visitToDTO(*updated)
	return &out, nil
}

// Respond фиксирует ответ клиента на предложенное время. Ответ перезаписывает
// предыдущий и не трогает статус заявки: на нее влияет только статус самого
// выезда, проставляемый сотрудником.
func (s *siteVisitService) Respond(ctx context.Context, visitID uint64, customerID uint64, payload dto.RespondSiteVisitDTO) (*dto.SiteVisitDTO, error) {
	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.FindByID(ctx, visit.RequestID)
	if err != nil {
		return nil, err
	}
	if request.CustomerID != customerID {
		return nil, apperrors.ErrForbidden
	}

	respondedAt := time.Now()
	if err := s.visitRepo.UpdateCustomerResponse(ctx, visitID, payload.Decision, payload.Note, respondedAt); err != nil {
		return nil, err
	}

	visit.CustomerResponse = payload.Decision
	visit.CustomerNote = payload.Note
	visit.RespondedAt = &respondedAt

	s.logger.Info("Клиент ответил на время выезда",
		zap.Uint64("visitId", visitID),
		zap.Uint64("requestId", visit.RequestID),
		zap.String("decision", payload.Decision),
	)
	s.bus.Publish(ctx, events.VisitRespondedEvent{
		Visit:    *visit,
		Decision: payload.Decision,
		Note:     payload.Note,
	})

	out := visitToDTO(*visit)
	return &out, nil
}

func (s *siteVisitService) GetVisit(ctx context.Context, visitID uint64, actorID uint64, isAdmin bool) (*dto.SiteVisitDTO, error) {
	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.FindByID(ctx, visit.RequestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}

	out := visitToDTO(*visit)
	out.Request = requestBriefDTO(request)
	return &out, nil
}

func (s *siteVisitService) ListByRequest(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool) ([]dto.SiteVisitDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}

	visits, err := s.visitRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SiteVisitDTO, 0, len(visits))
	for _, v := range visits {
		out = append(out, visitToDTO(v))
	}
	return out, nil
}

func (s *siteVisitService) ListByStatus(ctx context.Context, status string) ([]dto.SiteVisitDTO, error) {
	if !constants.IsAllowedVisitStatus(status) {
		return nil, apperrors.NewHttpError(400, "Недопустимый статус выезда", nil, map[string]interface{}{
			"status": status,
		})
	}

	visits, err := s.visitRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SiteVisitDTO, 0, len(visits))
	for _, v := range visits {
		out = append(out, visitToDTO(v))
	}
	return out, nil
}

func (s *siteVisitService) ListOwn(ctx context.Context, customerID uint64) ([]dto.SiteVisitDTO, error) {
	visits, err := s.visitRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SiteVisitDTO, 0, len(visits))
	for _, v := range visits {
		out = append(out, visitToDTO(v))
	}
	return out, nil
}
