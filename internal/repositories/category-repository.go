package repositories

import (
	"context"
	"errors"
	"fmt"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	apperrors "intake-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryTable  = "categories"
	categoryFields = "id, name, slug, created_at"
)

type CategoryRepositoryInterface interface {
	GetCategories(ctx context.Context) ([]entities.Category, error)
	FindByID(ctx context.Context, id uint64) (*entities.Category, error)
	Create(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error)
}

type categoryRepository struct {
	storage *pgxpool.Pool
}

func NewCategoryRepository(storage *pgxpool.Pool) CategoryRepositoryInterface {
	return &categoryRepository{storage: storage}
}

func (r *categoryRepository) GetCategories(ctx context.Context) ([]entities.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY name", categoryFields, categoryTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка категорий: %w", err)
	}
	defer rows.Close()

	categories := make([]entities.Category, 0)
	for rows.Next() {
		var c entities.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint64) (*entities.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", categoryFields, categoryTable)
	var c entities.Category
	err := r.storage.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error) {
	query := fmt.Sprintf("INSERT INTO %s (name, slug) VALUES ($1, $2) RETURNING %s", categoryTable, categoryFields)
	var c entities.Category
	err := r.storage.QueryRow(ctx, query, payload.Name, payload.Slug).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	return &c, nil
}
