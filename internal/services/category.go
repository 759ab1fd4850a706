package services

import (
	"context"

	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/repositories"
)

type CategoryServiceInterface interface {
	GetCategories(ctx context.Context) ([]dto.CategoryDTO, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*dto.CategoryDTO, error)
}

type categoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	logger       *zap.Logger
}

func NewCategoryService(categoryRepo repositories.CategoryRepositoryInterface, logger *zap.Logger) CategoryServiceInterface {
	return &categoryService{categoryRepo: categoryRepo, logger: logger}
}

func (s *categoryService) GetCategories(ctx context.Context) ([]dto.CategoryDTO, error) {
	categories, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, categoryToDTO(&categories[i]))
	}
	return out, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*dto.CategoryDTO, error) {
	category, err := s.categoryRepo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создана категория услуг", zap.Uint64("categoryId", category.ID), zap.String("slug", category.Slug))

	out := categoryToDTO(category)
	return &out, nil
}
