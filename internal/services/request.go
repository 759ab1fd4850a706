package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	"intake-system/internal/events"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/eventbus"
	"intake-system/pkg/filestorage"
	"intake-system/pkg/types"
)

const maxRequestImages = 10

type RequestServiceInterface interface {
	CreateRequest(ctx context.Context, customerID uint64, payload dto.CreateRequestDTO, images []*multipart.FileHeader) (*dto.CreatedRequestDTO, error)
	GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error)
	GetOwnRequests(ctx context.Context, customerID uint64) ([]dto.RequestDTO, error)
	GetRequestByID(ctx context.Context, id uint64, actorID uint64, isAdmin bool) (*dto.RequestDTO, error)
	AddImages(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool, images []*multipart.FileHeader) ([]dto.RequestImageDTO, error)
	CancelOwn(ctx context.Context, requestID uint64, customerID uint64) (*dto.RequestDTO, error)
}

type requestService struct {
	requestRepo   repositories.RequestRepositoryInterface
	categoryRepo  repositories.CategoryRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	visitRepo     repositories.SiteVisitRepositoryInterface
	quotationRepo repositories.QuotationRepositoryInterface
	synchronizer  StatusSynchronizerInterface
	storage       filestorage.FileStorageInterface
	bus           *eventbus.Bus
	logger        *zap.Logger
}

func NewRequestService(
	requestRepo repositories.RequestRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	visitRepo repositories.SiteVisitRepositoryInterface,
	quotationRepo repositories.QuotationRepositoryInterface,
	synchronizer StatusSynchronizerInterface,
	storage filestorage.FileStorageInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RequestServiceInterface {
	return &requestService{
		requestRepo:   requestRepo,
		categoryRepo:  categoryRepo,
		userRepo:      userRepo,
		visitRepo:     visitRepo,
		quotationRepo: quotationRepo,
		synchronizer:  synchronizer,
		storage:       storage,
		bus:           bus,
		logger:        logger,
	}
}

// BuildPublicRef - чистая функция построения публичного номера заявки:
// REQ-ГГГГММ-NNNNN, где месяц берется из момента создания, а хвост - это
// id записи с ведущими нулями. Номер детерминирован: повторный вызов для
// той же заявки дает ту же строку.
func BuildPublicRef(id uint64, createdAt time.Time) string {
	return fmt.Sprintf("%s-%s-%05d", constants.PublicRefPrefix, createdAt.Format("200601"), id)
}

// CreateRequest создает заявку в статусе NEW и отдельным шагом проставляет
// публичный номер. Простановка вне транзакции создания: если она не удалась,
// заявка остается без номера, ошибка только логируется, а номер будет
// доставлен при первом же чтении (ensurePublicRef).
func (s *requestService) CreateRequest(ctx context.Context, customerID uint64, payload dto.CreateRequestDTO, images []*multipart.FileHeader) (*dto.CreatedRequestDTO, error) {
	if len(images) > maxRequestImages {
		return nil, apperrors.NewHttpError(400,
			fmt.Sprintf("Можно приложить не более %d изображений", maxRequestImages), nil, nil)
	}

	if _, err := s.categoryRepo.FindByID(ctx, payload.CategoryID); err != nil {
		return nil, apperrors.NewHttpError(400, "Указанная категория не существует", err, map[string]interface{}{
			"categoryId": payload.CategoryID,
		})
	}

	request := entities.ServiceRequest{
		Title:            payload.Title,
		Description:      payload.Description,
		Status:           constants.RequestStatusNew,
		CustomerID:       customerID,
		CategoryID:       payload.CategoryID,
		ContactFirstName: payload.ContactFirstName,
		ContactLastName:  payload.ContactLastName,
		ContactEmail:     payload.ContactEmail,
		ContactPhone:     payload.ContactPhone,
		Latitude:         payload.Latitude,
		Longitude:        payload.Longitude,
		PlaceName:        payload.PlaceName,
		FormattedAddress: payload.FormattedAddress,
		AddressLine:      payload.AddressLine,
		Subdistrict:      payload.Subdistrict,
		District:         payload.District,
		Province:         payload.Province,
		PostalCode:       payload.PostalCode,
	}

	id, createdAt, err := s.requestRepo.Create(ctx, &request)
	if err != nil {
		return nil, err
	}
	request.ID = id
	request.CreatedAt = createdAt

	publicRef := BuildPublicRef(id, createdAt)
	if err := s.requestRepo.StampPublicRef(ctx, id, publicRef); err != nil {
		s.logger.Error("Не удалось проставить публичный номер заявки",
			zap.Uint64("requestId", id),
			zap.String("publicRef", publicRef),
			zap.Error(err),
		)
	} else {
		request.PublicRef = publicRef
	}

	savedImages := make([]dto.RequestImageDTO, 0, len(images))
	for _, fileHeader := range images {
		img, err := s.saveImage(ctx, id, fileHeader)
		if err != nil {
			s.logger.Error("Не удалось сохранить изображение заявки",
				zap.Uint64("requestId", id),
				zap.String("fileName", fileHeader.Filename),
				zap.Error(err),
			)
			continue
		}
		savedImages = append(savedImages, imageToDTO(*img))
	}

	s.logger.Info("Создана заявка",
		zap.Uint64("requestId", id),
		zap.String("publicRef", publicRef),
		zap.Uint64("customerId", customerID),
	)
	s.bus.Publish(ctx, events.RequestCreatedEvent{Request: request})

	return &dto.CreatedRequestDTO{
		ID:        id,
		PublicRef: publicRef,
		Title:     request.Title,
		Images:    savedImages,
	}, nil
}

func (s *requestService) saveImage(ctx context.Context, requestID uint64, fileHeader *multipart.FileHeader) (*entities.RequestImage, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	path, err := s.storage.Save(src, fileHeader.Filename, "requests")
	if err != nil {
		return nil, err
	}
	return s.requestRepo.AddImage(ctx, requestID, "/uploads/"+path)
}

// ensurePublicRef достраивает номер заявкам, у которых шаг простановки при
// создании не прошел. Ошибка записи не мешает чтению: номер уже
// детерминирован, клиент получит его в ответе в любом случае.
func (s *requestService) ensurePublicRef(ctx context.Context, request *entities.ServiceRequest) {
	if request.PublicRef != "" {
		return
	}
	publicRef := BuildPublicRef(request.ID, request.CreatedAt)
	if err := s.requestRepo.StampPublicRef(ctx, request.ID, publicRef); err != nil {
		s.logger.Warn("Отложенная простановка публичного номера не удалась",
			zap.Uint64("requestId", request.ID),
			zap.Error(err),
		)
	}
	request.PublicRef = publicRef
}

func (s *requestService) GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	requests, total, err := s.requestRepo.GetRequests(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.RequestDTO, 0, len(requests))
	for i := range requests {
		s.ensurePublicRef(ctx, &requests[i])
		out = append(out, requestToDTO(&requests[i]))
	}
	return out, total, nil
}

func (s *requestService) GetOwnRequests(ctx context.Context, customerID uint64) ([]dto.RequestDTO, error) {
	requests, err := s.requestRepo.GetRequestsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RequestDTO, 0, len(requests))
	for i := range requests {
		s.ensurePublicRef(ctx, &requests[i])
		out = append(out, requestToDTO(&requests[i]))
	}
	return out, nil
}

func (s *requestService) GetRequestByID(ctx context.Context, id uint64, actorID uint64, isAdmin bool) (*dto.RequestDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}
	s.ensurePublicRef(ctx, request)

	out := requestToDTO(request)

	if category, err := s.categoryRepo.FindByID(ctx, request.CategoryID); err == nil {
		out.Category = categoryToDTO(category)
	}

	if isAdmin {
		if customer, err := s.userRepo.FindByID(ctx, request.CustomerID); err == nil {
			out.Customer = &dto.RequestCustomerDTO{
				ID:        customer.ID,
				FirstName: customer.FirstName,
				LastName:  customer.LastName,
				Email:     customer.Email,
				Phone:     customer.Phone,
			}
		}
	}

	images, err := s.requestRepo.GetImages(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		out.Images = append(out.Images, imageToDTO(img))
	}

	visits, err := s.visitRepo.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, v := range visits {
		out.SiteVisits = append(out.SiteVisits, visitToDTO(v))
	}

	quotations, err := s.quotationRepo.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, q := range quotations {
		out.Quotations = append(out.Quotations, quotationToDTO(q))
	}

	return &out, nil
}

func (s *requestService) AddImages(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool, images []*multipart.FileHeader) ([]dto.RequestImageDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}

	existing, err := s.requestRepo.GetImages(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(existing)+len(images) > maxRequestImages {
		return nil, apperrors.NewHttpError(400,
			fmt.Sprintf("У заявки может быть не более %d изображений", maxRequestImages), nil, map[string]interface{}{
				"requestId": requestID,
			})
	}

	out := make([]dto.RequestImageDTO, 0, len(images))
	for _, fileHeader := range images {
		img, err := s.saveImage(ctx, requestID, fileHeader)
		if err != nil {
			return nil, err
		}
		out = append(out, imageToDTO(*img))
	}
	return out, nil
}

// CancelOwn - отмена заявки самим клиентом. Разрешена только пока по заявке
// ничего не происходило (статус NEW); дальше судьбой заявки управляют выезды
// и предложения.
func (s *requestService) CancelOwn(ctx context.Context, requestID uint64, customerID uint64) (*dto.RequestDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.CustomerID != customerID {
		return nil, apperrors.ErrForbidden
	}
	if request.Status != constants.RequestStatusNew {
		return nil, apperrors.NewHttpError(409,
			"Заявку можно отменить только до начала обработки", nil, map[string]interface{}{
				"requestId": requestID,
				"status":    request.Status,
			})
	}

	change, err := s.synchronizer.Apply(ctx, requestID, constants.RequestStatusRejected, SourceCustomerCancel)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Заявка отменена клиентом",
		zap.Uint64("requestId", requestID),
		zap.String("from", change.From),
	)

	request.Status = change.To
	s.ensurePublicRef(ctx, request)
	out := requestToDTO(request)
	return &out, nil
}
