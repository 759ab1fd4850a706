package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intake-system/internal/entities"
	"intake-system/pkg/constants"
)

func visit(status string) entities.SiteVisit {
	return entities.SiteVisit{Status: status}
}

func TestDeriveRequestStatus(t *testing.T) {
	testCases := []struct {
		name       string
		visits     []entities.SiteVisit
		wantStatus string
		wantWrite  bool
	}{
		{
			name:      "без выездов статус не трогаем",
			visits:    nil,
			wantWrite: false,
		},
		{
			name:       "один ожидающий выезд",
			visits:     []entities.SiteVisit{visit(constants.VisitStatusPending)},
			wantStatus: constants.RequestStatusSurvey,
			wantWrite:  true,
		},
		{
			name: "завершенный выезд важнее ожидающего",
			visits: []entities.SiteVisit{
				visit(constants.VisitStatusPending),
				visit(constants.VisitStatusDone),
			},
			wantStatus: constants.RequestStatusSurveyDone,
			wantWrite:  true,
		},
		{
			name: "завершенный выезд важнее отмененного",
			visits: []entities.SiteVisit{
				visit(constants.VisitStatusCancelled),
				visit(constants.VisitStatusDone),
				visit(constants.VisitStatusCancelled),
			},
			wantStatus: constants.RequestStatusSurveyDone,
			wantWrite:  true,
		},
		{
			name: "все выезды отменены",
			visits: []entities.SiteVisit{
				visit(constants.VisitStatusCancelled),
				visit(constants.VisitStatusCancelled),
			},
			wantStatus: constants.RequestStatusRejected,
			wantWrite:  true,
		},
		{
			name: "ожидающий выезд среди отмененных",
			visits: []entities.SiteVisit{
				visit(constants.VisitStatusCancelled),
				visit(constants.VisitStatusPending),
			},
			wantStatus: constants.RequestStatusSurvey,
			wantWrite:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, write := DeriveRequestStatus(tc.visits)
			assert.Equal(t, tc.wantWrite, write)
			if tc.wantWrite {
				assert.Equal(t, tc.wantStatus, got)
			}
		})
	}
}

func newSyncFixture() (*fakeRequestRepo, *fakeVisitRepo, *fakeCacheRepo, StatusSynchronizerInterface) {
	requestRepo := newFakeRequestRepo()
	visitRepo := newFakeVisitRepo()
	cacheRepo := newFakeCacheRepo()
	sync := NewStatusSynchronizer(requestRepo, visitRepo, cacheRepo, zap.NewNop())
	return requestRepo, visitRepo, cacheRepo, sync
}

func TestResyncNoVisitsKeepsStatus(t *testing.T) {
	requestRepo, _, _, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusNew, CustomerID: 1, CategoryID: 1})

	change, err := sync.Resync(context.Background(), req.ID)
	require.NoError(t, err)

	assert.False(t, change.Changed)
	assert.Equal(t, constants.RequestStatusNew, change.To)
	assert.Empty(t, requestRepo.statusCalls)
}

func TestResyncPendingVisitMovesToSurvey(t *testing.T) {
	requestRepo, visitRepo, cacheRepo, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusNew, CustomerID: 1, CategoryID: 1})
	visitRepo.addVisit(entities.SiteVisit{RequestID: req.ID, Status: constants.VisitStatusPending, ScheduledAt: time.Now()})

	change, err := sync.Resync(context.Background(), req.ID)
	require.NoError(t, err)

	assert.True(t, change.Changed)
	assert.Equal(t, constants.RequestStatusNew, change.From)
	assert.Equal(t, constants.RequestStatusSurvey, change.To)
	assert.Equal(t, SourceVisitDerived, change.Source)

	stored, err := requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusSurvey, stored.Status)
	assert.Equal(t, 1, cacheRepo.delCalls)
}

func TestResyncIdempotent(t *testing.T) {
	requestRepo, visitRepo, _, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusSurvey, CustomerID: 1, CategoryID: 1})
	visitRepo.addVisit(entities.SiteVisit{RequestID: req.ID, Status: constants.VisitStatusPending, ScheduledAt: time.Now()})

	change, err := sync.Resync(context.Background(), req.ID)
	require.NoError(t, err)

	assert.False(t, change.Changed)
	assert.Empty(t, requestRepo.statusCalls)
}

// Пересчет по выездам перетирает и статусы, выставленные решением по
// предложению: поздняя правка выезда возвращает заявку из QUOTED/APPROVED
// обратно в стадию осмотра.
func TestResyncOverwritesQuotationStatus(t *testing.T) {
	requestRepo, visitRepo, _, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusQuoted, CustomerID: 1, CategoryID: 1})
	visitRepo.addVisit(entities.SiteVisit{RequestID: req.ID, Status: constants.VisitStatusDone, ScheduledAt: time.Now()})

	change, err := sync.Resync(context.Background(), req.ID)
	require.NoError(t, err)

	assert.True(t, change.Changed)
	assert.Equal(t, constants.RequestStatusQuoted, change.From)
	assert.Equal(t, constants.RequestStatusSurveyDone, change.To)

	stored, err := requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusSurveyDone, stored.Status)
}

func TestResyncAllCancelledRejects(t *testing.T) {
	requestRepo, visitRepo, _, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusSurvey, CustomerID: 1, CategoryID: 1})
	visitRepo.addVisit(entities.SiteVisit{RequestID: req.ID, Status: constants.VisitStatusCancelled, ScheduledAt: time.Now()})
	visitRepo.addVisit(entities.SiteVisit{RequestID: req.ID, Status: constants.VisitStatusCancelled, ScheduledAt: time.Now()})

	change, err := sync.Resync(context.Background(), req.ID)
	require.NoError(t, err)

	assert.Equal(t, constants.RequestStatusRejected, change.To)
}

func TestApplyWritesDirectly(t *testing.T) {
	requestRepo, _, cacheRepo, sync := newSyncFixture()
	req := requestRepo.addRequest(entities.ServiceRequest{Status: constants.RequestStatusNew, CustomerID: 1, CategoryID: 1})

	change, err := sync.Apply(context.Background(), req.ID, constants.RequestStatusRejected, SourceCustomerCancel)
	require.NoError(t, err)

	assert.True(t, change.Changed)
	assert.Equal(t, SourceCustomerCancel, change.Source)

	stored, err := requestRepo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, stored.Status)
	assert.Equal(t, 1, cacheRepo.delCalls)
}

func TestApplyUnknownRequest(t *testing.T) {
	_, _, _, sync := newSyncFixture()

	_, err := sync.Apply(context.Background(), 777, constants.RequestStatusRejected, SourceCustomerCancel)
	assert.Error(t, err)
}
