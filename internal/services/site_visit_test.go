package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/eventbus"
)

type visitFixture struct {
	requestRepo *fakeRequestRepo
	visitRepo   *fakeVisitRepo
	service     SiteVisitServiceInterface
}

func newVisitFixture() *visitFixture {
	requestRepo := newFakeRequestRepo()
	visitRepo := newFakeVisitRepo()
	logger := zap.NewNop()
	sync := NewStatusSynchronizer(requestRepo, visitRepo, newFakeCacheRepo(), logger)

	return &visitFixture{
		requestRepo: requestRepo,
		visitRepo:   visitRepo,
		service:     NewSiteVisitService(visitRepo, requestRepo, sync, eventbus.New(logger), logger),
	}
}

func (f *visitFixture) newRequest(status string) *entities.ServiceRequest {
	return f.requestRepo.addRequest(entities.ServiceRequest{Status: status, CustomerID: 7, CategoryID: 1})
}

func TestScheduleMovesRequestToSurvey(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.Equal(t, constants.VisitStatusPending, visit.Status)
	assert.Equal(t, constants.VisitResponsePending, visit.CustomerResponse)

	stored, err := f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusSurvey, stored.Status)
}

func TestScheduleUnknownRequest(t *testing.T) {
	f := newVisitFixture()

	_, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   99,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestScheduleBadDate(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	_, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: "завтра утром",
	})
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Code)
}

func TestUpdateVisitDoneMovesRequestToSurveyDone(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	done := constants.VisitStatusDone
	updated, err := f.service.Update(context.Background(), visit.ID, dto.UpdateSiteVisitDTO{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, constants.VisitStatusDone, updated.Status)

	stored, err := f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusSurveyDone, stored.Status)
}

func TestUpdateVisitRejectsUnknownStatus(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	bogus := "FINISHED"
	_, err = f.service.Update(context.Background(), visit.ID, dto.UpdateSiteVisitDTO{Status: &bogus})
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Code)
}

func TestUpdateVisitRequiresAtLeastOneField(t *testing.T) {
	f := newVisitFixture()

	_, err := f.service.Update(context.Background(), 1, dto.UpdateSiteVisitDTO{})
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Code)
}

// Отмена последнего активного выезда при отсутствии завершенных переводит
// заявку в REJECTED, а назначение нового выезда возвращает ее в SURVEY.
func TestCancelAndRescheduleRoundTrip(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	cancelled := constants.VisitStatusCancelled
	_, err = f.service.Update(context.Background(), visit.ID, dto.UpdateSiteVisitDTO{Status: &cancelled})
	require.NoError(t, err)

	stored, err := f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, stored.Status)

	_, err = f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	stored, err = f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusSurvey, stored.Status)
}

func TestRespondStoresDecisionWithoutResync(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	before, err := f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	writesBefore := len(f.requestRepo.statusCalls)

	responded, err := f.service.Respond(context.Background(), visit.ID, 7, dto.RespondSiteVisitDTO{
		Decision: constants.VisitResponseApproved,
		Note:     "Подъезд со двора",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.VisitResponseApproved, responded.CustomerResponse)
	assert.Equal(t, "Подъезд со двора", responded.CustomerNote)
	assert.NotEmpty(t, responded.RespondedAt)

	// Ответ клиента не трогает статус заявки.
	after, err := f.requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, writesBefore, len(f.requestRepo.statusCalls))
}

func TestRespondOverwritesPreviousAnswer(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	_, err = f.service.Respond(context.Background(), visit.ID, 7, dto.RespondSiteVisitDTO{Decision: constants.VisitResponseRejected})
	require.NoError(t, err)

	responded, err := f.service.Respond(context.Background(), visit.ID, 7, dto.RespondSiteVisitDTO{Decision: constants.VisitResponseApproved})
	require.NoError(t, err)
	assert.Equal(t, constants.VisitResponseApproved, responded.CustomerResponse)
}

func TestRespondForeignCustomer(t *testing.T) {
	f := newVisitFixture()
	req := f.newRequest(constants.RequestStatusNew)

	visit, err := f.service.Schedule(context.Background(), dto.CreateSiteVisitDTO{
		RequestID:   req.ID,
		ScheduledAt: time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)

	_, err = f.service.Respond(context.Background(), visit.ID, 8, dto.RespondSiteVisitDTO{Decision: constants.VisitResponseApproved})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
