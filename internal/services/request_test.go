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

func TestBuildPublicRef(t *testing.T) {
	createdAt := time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "REQ-202503-00042", BuildPublicRef(42, createdAt))
	assert.Equal(t, "REQ-202512-00001", BuildPublicRef(1, time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)))
	// Хвост растет вместе с id, номер остается уникальным.
	assert.Equal(t, "REQ-202503-123456", BuildPublicRef(123456, createdAt))
	// Детерминированность: пересчет дает ту же строку.
	assert.Equal(t, BuildPublicRef(42, createdAt), BuildPublicRef(42, createdAt))
}

type requestFixture struct {
	requestRepo   *fakeRequestRepo
	visitRepo     *fakeVisitRepo
	quotationRepo *fakeQuotationRepo
	userRepo      *fakeUserRepo
	service       RequestServiceInterface
}

func newRequestFixture() *requestFixture {
	requestRepo := newFakeRequestRepo()
	visitRepo := newFakeVisitRepo()
	quotationRepo := newFakeQuotationRepo()
	userRepo := newFakeUserRepo()
	cacheRepo := newFakeCacheRepo()
	logger := zap.NewNop()
	sync := NewStatusSynchronizer(requestRepo, visitRepo, cacheRepo, logger)

	svc := NewRequestService(
		requestRepo, newFakeCategoryRepo(), userRepo, visitRepo, quotationRepo,
		sync, &fakeFileStorage{}, eventbus.New(logger), logger,
	)
	return &requestFixture{
		requestRepo:   requestRepo,
		visitRepo:     visitRepo,
		quotationRepo: quotationRepo,
		userRepo:      userRepo,
		service:       svc,
	}
}

func validCreatePayload() dto.CreateRequestDTO {
	return dto.CreateRequestDTO{
		Title:            "Установка кондиционера",
		Description:      "Двухэтажный дом, нужен монтаж сплит-системы",
		CategoryID:       1,
		ContactFirstName: "Somchai",
		ContactLastName:  "Jaidee",
		ContactEmail:     "somchai@example.com",
		ContactPhone:     "+66812345678",
		Latitude:         13.7563,
		Longitude:        100.5018,
		Subdistrict:      "Lumphini",
		District:         "Pathum Wan",
		Province:         "Bangkok",
		PostalCode:       "10330",
	}
}

func TestCreateRequestStampsPublicRef(t *testing.T) {
	f := newRequestFixture()

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	assert.NotZero(t, created.ID)

	stored, err := f.requestRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildPublicRef(created.ID, stored.CreatedAt), created.PublicRef)
	assert.Equal(t, created.PublicRef, stored.PublicRef)
	assert.Equal(t, constants.RequestStatusNew, stored.Status)
	assert.Equal(t, uint64(7), stored.CustomerID)
}

func TestCreateRequestUnknownCategory(t *testing.T) {
	f := newRequestFixture()

	payload := validCreatePayload()
	payload.CategoryID = 99

	_, err := f.service.CreateRequest(context.Background(), 7, payload, nil)
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Code)
}

// Простановка номера - отдельный шаг после вставки: ее сбой не отменяет
// создание, заявка возвращается клиенту, а номер достраивается позже.
func TestCreateRequestStampFailureDoesNotFailCreate(t *testing.T) {
	f := newRequestFixture()
	f.requestRepo.failStamp = true

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	stored, err := f.requestRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PublicRef)
}

func TestReadBackfillsMissingPublicRef(t *testing.T) {
	f := newRequestFixture()
	f.requestRepo.failStamp = true

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	f.requestRepo.failStamp = false

	got, err := f.service.GetRequestByID(context.Background(), created.ID, 7, false)
	require.NoError(t, err)
	assert.NotEmpty(t, got.PublicRef)

	stored, err := f.requestRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, got.PublicRef, stored.PublicRef)
}

func TestGetRequestByIDForeignCustomer(t *testing.T) {
	f := newRequestFixture()

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	_, err = f.service.GetRequestByID(context.Background(), created.ID, 8, false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Сотруднику чужая заявка доступна.
	_, err = f.service.GetRequestByID(context.Background(), created.ID, 8, true)
	assert.NoError(t, err)
}

func TestCancelOwnOnlyWhileNew(t *testing.T) {
	f := newRequestFixture()

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	out, err := f.service.CancelOwn(context.Background(), created.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, out.Status)

	stored, err := f.requestRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, stored.Status)
}

func TestCancelOwnAfterVisitScheduled(t *testing.T) {
	f := newRequestFixture()

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	f.visitRepo.addVisit(entities.SiteVisit{RequestID: created.ID, Status: constants.VisitStatusPending, ScheduledAt: time.Now()})
	require.NoError(t, f.requestRepo.UpdateStatus(context.Background(), created.ID, constants.RequestStatusSurvey))

	_, err = f.service.CancelOwn(context.Background(), created.ID, 7)
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 409, httpErr.Code)
}

func TestCancelOwnForeignRequest(t *testing.T) {
	f := newRequestFixture()

	created, err := f.service.CreateRequest(context.Background(), 7, validCreatePayload(), nil)
	require.NoError(t, err)

	_, err = f.service.CancelOwn(context.Background(), created.ID, 8)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
