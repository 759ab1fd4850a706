package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	"intake-system/internal/repositories"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/filestorage"
)

const (
	portfolioDefaultLimit = 20
	portfolioMaxLimit     = 100
)

type PortfolioServiceInterface interface {
	List(ctx context.Context, limit uint64, asc bool) ([]dto.PortfolioItemDTO, error)
	Create(ctx context.Context, payload dto.CreatePortfolioItemDTO, image *multipart.FileHeader) (*dto.PortfolioItemDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdatePortfolioItemDTO, image *multipart.FileHeader) (*dto.PortfolioItemDTO, error)
	Delete(ctx context.Context, id uint64) error
}

type portfolioService struct {
	portfolioRepo repositories.PortfolioRepositoryInterface
	storage       filestorage.FileStorageInterface
	logger        *zap.Logger
}

func NewPortfolioService(
	portfolioRepo repositories.PortfolioRepositoryInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) PortfolioServiceInterface {
	return &portfolioService{portfolioRepo: portfolioRepo, storage: storage, logger: logger}
}

func (s *portfolioService) List(ctx context.Context, limit uint64, asc bool) ([]dto.PortfolioItemDTO, error) {
	if limit == 0 {
		limit = portfolioDefaultLimit
	}
	if limit > portfolioMaxLimit {
		limit = portfolioMaxLimit
	}

	items, err := s.portfolioRepo.List(ctx, limit, asc)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PortfolioItemDTO, 0, len(items))
	for i := range items {
		out = append(out, portfolioItemToDTO(items[i]))
	}
	return out, nil
}

func (s *portfolioService) Create(ctx context.Context, payload dto.CreatePortfolioItemDTO, image *multipart.FileHeader) (*dto.PortfolioItemDTO, error) {
	if image == nil {
		return nil, apperrors.NewInvalidInputError("Файл изображения обязателен")
	}

	occurredAt, err := parseOccurredAt(payload.OccurredAt)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	item := &entities.PortfolioItem{
		Title:       payload.Title,
		Description: null.NewString(payload.Description, payload.Description != ""),
		ImageURL:    imageURL,
		OccurredAt:  occurredAt,
		TimeNote:    null.NewString(payload.TimeNote, payload.TimeNote != ""),
	}

	created, err := s.portfolioRepo.Create(ctx, item)
	if err != nil {
		if delErr := s.storage.Delete(imageURL); delErr != nil {
			s.logger.Warn("Не удалось удалить незакрепленное изображение витрины",
				zap.String("imageUrl", imageURL), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Добавлена работа в витрину", zap.Uint64("portfolioId", created.ID))

	out := portfolioItemToDTO(*created)
	return &out, nil
}

func (s *portfolioService) Update(ctx context.Context, id uint64, payload dto.UpdatePortfolioItemDTO, image *multipart.FileHeader) (*dto.PortfolioItemDTO, error) {
	item, err := s.portfolioRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var occurredAt null.Time
	occurredSet := payload.OccurredAt != nil
	if occurredSet {
		occurredAt, err = parseOccurredAt(*payload.OccurredAt)
		if err != nil {
			return nil, err
		}
	}

	var newImageURL *string
	if image != nil {
		imageURL, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		newImageURL = &imageURL
	}

	err = s.portfolioRepo.Update(ctx, id, payload.Title, payload.Description, occurredAt, occurredSet, payload.TimeNote, newImageURL)
	if err != nil {
		if newImageURL != nil {
			if delErr := s.storage.Delete(*newImageURL); delErr != nil {
				s.logger.Warn("Не удалось удалить незакрепленное изображение витрины",
					zap.String("imageUrl", *newImageURL), zap.Error(delErr))
			}
		}
		return nil, err
	}

	if newImageURL != nil && item.ImageURL != "" {
		if delErr := s.storage.Delete(item.ImageURL); delErr != nil {
			s.logger.Warn("Не удалось удалить прежнее изображение витрины",
				zap.String("imageUrl", item.ImageURL), zap.Error(delErr))
		}
	}

	updated, err := s.portfolioRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Обновлена работа в витрине", zap.Uint64("portfolioId", id))

	out := portfolioItemToDTO(*updated)
	return &out, nil
}

func (s *portfolioService) Delete(ctx context.Context, id uint64) error {
	item, err := s.portfolioRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.portfolioRepo.Delete(ctx, id); err != nil {
		return err
	}

	if item.ImageURL != "" {
		if delErr := s.storage.Delete(item.ImageURL); delErr != nil {
			s.logger.Warn("Не удалось удалить изображение удаленной работы",
				zap.String("imageUrl", item.ImageURL), zap.Error(delErr))
		}
	}

	s.logger.Info("Удалена работа из витрины", zap.Uint64("portfolioId", id))
	return nil
}

func (s *portfolioService) saveImage(image *multipart.FileHeader) (string, error) {
	src, err := image.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path, err := s.storage.Save(src, image.Filename, "portfolio")
	if err != nil {
		return "", err
	}
	return "/uploads/" + path, nil
}

// parseOccurredAt принимает дату ("2006-01-02") или полный RFC3339;
// пустая строка означает отсутствие даты.
func parseOccurredAt(value string) (null.Time, error) {
	if value == "" {
		return null.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return null.TimeFrom(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return null.TimeFrom(t), nil
	}
	return null.Time{}, apperrors.NewInvalidInputError("Некорректная дата выполнения работы: %s", value)
}
