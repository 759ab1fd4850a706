package services

import (
	"context"
	"mime/multipart"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	"intake-system/internal/events"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/eventbus"
	"intake-system/pkg/filestorage"
)

type QuotationServiceInterface interface {
	Issue(ctx context.Context, requestID uint64, payload dto.CreateQuotationDTO, document *multipart.FileHeader) (*dto.QuotationDTO, error)
	Revise(ctx context.Context, quotationID uint64, payload dto.UpdateQuotationDTO, document *multipart.FileHeader) (*dto.QuotationDTO, error)
	Decide(ctx context.Context, quotationID uint64, customerID uint64, payload dto.DecideQuotationDTO) (*dto.QuotationDTO, error)
	GetQuotation(ctx context.Context, quotationID uint64, actorID uint64, isAdmin bool) (*dto.QuotationDTO, error)
	ListByRequest(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool) ([]dto.QuotationDTO, error)
}

type quotationService struct {
	quotationRepo repositories.QuotationRepositoryInterface
	requestRepo   repositories.RequestRepositoryInterface
	guard         QuoteGuardInterface
	synchronizer  StatusSynchronizerInterface
	txManager     repositories.TxManagerInterface
	storage       filestorage.FileStorageInterface
	bus           *eventbus.Bus
	logger        *zap.Logger
}

func NewQuotationService(
	quotationRepo repositories.QuotationRepositoryInterface,
	requestRepo repositories.RequestRepositoryInterface,
	guard QuoteGuardInterface,
	synchronizer StatusSynchronizerInterface,
	txManager repositories.TxManagerInterface,
	storage filestorage.FileStorageInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) QuotationServiceInterface {
	return &quotationService{
		quotationRepo: quotationRepo,
		requestRepo:   requestRepo,
		guard:         guard,
		synchronizer:  synchronizer,
		txManager:     txManager,
		storage:       storage,
		bus:           bus,
		logger:        logger,
	}
}

// Issue выдает предложение по заявке. Порядок проверок фиксированный:
// сначала обязательный документ, затем предусловия по последнему выезду.
// Создание предложения и перевод заявки в QUOTED - одна транзакция.
func (s *quotationService) Issue(ctx context.Context, requestID uint64, payload dto.CreateQuotationDTO, document *multipart.FileHeader) (*dto.QuotationDTO, error) {
	if document == nil {
		return nil, apperrors.ErrDocumentRequired
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.CheckCanQuote(ctx, requestID); err != nil {
		return nil, err
	}

	fileURL, err := s.saveDocument(document)
	if err != nil {
		return nil, err
	}

	quotation := &entities.Quotation{
		RequestID:  requestID,
		FileURL:    fileURL,
		TotalPrice: payload.TotalPrice,
		ValidUntil: payload.ValidUntil,
		Status:     constants.QuotationStatusPending,
	}

	var created *entities.Quotation
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = s.quotationRepo.CreateInTx(ctx, tx, quotation)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.synchronizer.ApplyInTx(ctx, tx, requestID, constants.RequestStatusQuoted, SourceQuotation)
		return txErr
	})
	if err != nil {
		if delErr := s.storage.Delete(fileURL); delErr != nil {
			s.logger.Warn("Не удалось удалить файл несостоявшегося предложения",
				zap.String("fileUrl", fileURL), zap.Error(delErr))
		}
		return nil, err
	}
	s.synchronizer.InvalidateSummary(ctx)

	s.logger.Info("Выдано предложение",
		zap.Uint64("quotationId", created.ID),
		zap.Uint64("requestId", requestID),
	)
	s.bus.Publish(ctx, events.QuotationIssuedEvent{Quotation: *created, Request: *request})

	out := quotationToDTO(*created)
	return &out, nil
}

// Revise правит еще не рассмотренное предложение. После решения клиента
// предложение заморожено: вместо правки выдается новое.
func (s *quotationService) Revise(ctx context.Context, quotationID uint64, payload dto.UpdateQuotationDTO, document *multipart.FileHeader) (*dto.QuotationDTO, error) {
	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if quotation.Status != constants.QuotationStatusPending {
		return nil, apperrors.ErrQuotationNotEditable
	}

	var newFileURL *string
	if document != nil {
		fileURL, err := s.saveDocument(document)
		if err != nil {
			return nil, err
		}
		newFileURL = &fileURL
	}

	priceSet := payload.TotalPrice.Valid
	validSet := payload.ValidUntil.Valid
	if err := s.quotationRepo.Update(ctx, quotationID, payload.TotalPrice, priceSet, payload.ValidUntil, validSet, newFileURL); err != nil {
		if newFileURL != nil {
			if delErr := s.storage.Delete(*newFileURL); delErr != nil {
				s.logger.Warn("Не удалось удалить незакрепленный файл предложения",
					zap.String("fileUrl", *newFileURL), zap.Error(delErr))
			}
		}
		return nil, err
	}

	if newFileURL != nil && quotation.FileURL != "" {
		if delErr := s.storage.Delete(quotation.FileURL); delErr != nil {
			s.logger.Warn("Не удалось удалить прежний файл предложения",
				zap.String("fileUrl", quotation.FileURL), zap.Error(delErr))
		}
	}

	updated, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Предложение обновлено", zap.Uint64("quotationId", quotationID))

	out := quotationToDTO(*updated)
	return &out, nil
}

// Decide фиксирует решение клиента. Решение можно перезаписать повторным
// вызовом; статусы предложения и заявки меняются одной транзакцией.
func (s *quotationService) Decide(ctx context.Context, quotationID uint64, customerID uint64, payload dto.DecideQuotationDTO) (*dto.QuotationDTO, error) {
	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.FindByID(ctx, quotation.RequestID)
	if err != nil {
		return nil, err
	}
	if request.CustomerID != customerID {
		return nil, apperrors.ErrForbidden
	}

	quotationStatus := constants.QuotationStatusApproved
	requestStatus := constants.RequestStatusApproved
	if payload.Decision == constants.QuotationStatusRejected {
		quotationStatus = constants.QuotationStatusRejected
		requestStatus = constants.RequestStatusRejected
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if txErr := s.quotationRepo.UpdateStatusInTx(ctx, tx, quotationID, quotationStatus); txErr != nil {
			return txErr
		}
		_, txErr := s.synchronizer.ApplyInTx(ctx, tx, quotation.RequestID, requestStatus, SourceQuotation)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.synchronizer.InvalidateSummary(ctx)

	quotation.Status = quotationStatus

	s.logger.Info("Клиент принял решение по предложению",
		zap.Uint64("quotationId", quotationID),
		zap.Uint64("requestId", quotation.RequestID),
		zap.String("decision", payload.Decision),
	)
	s.bus.Publish(ctx, events.QuotationDecidedEvent{Quotation: *quotation, Decision: payload.Decision})

	out := quotationToDTO(*quotation)
	return &out, nil
}

func (s *quotationService) GetQuotation(ctx context.Context, quotationID uint64, actorID uint64, isAdmin bool) (*dto.QuotationDTO, error) {
	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.FindByID(ctx, quotation.RequestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}

	out := quotationToDTO(*quotation)
	out.Request = requestBriefDTO(request)
	return &out, nil
}

func (s *quotationService) ListByRequest(ctx context.Context, requestID uint64, actorID uint64, isAdmin bool) ([]dto.QuotationDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.CustomerID != actorID {
		return nil, apperrors.ErrForbidden
	}

	quotations, err := s.quotationRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.QuotationDTO, 0, len(quotations))
	for _, q := range quotations {
		out = append(out, quotationToDTO(q))
	}
	return out, nil
}

func (s *quotationService) saveDocument(document *multipart.FileHeader) (string, error) {
	src, err := document.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path, err := s.storage.Save(src, document.Filename, "quotations")
	if err != nil {
		return "", err
	}
	return "/uploads/" + path, nil
}
