package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intake-system/internal/entities"
	apperrors "intake-system/pkg/errors"
)

const (
	portfolioTable  = "portfolio_items"
	portfolioFields = "id, title, description, image_url, occurred_at, time_note, created_at, updated_at"
)

type PortfolioRepositoryInterface interface {
	// List возвращает работы, отсортированные по дате выполнения (при
	// равенстве - по id); NULL-даты идут последними.
	List(ctx context.Context, limit uint64, asc bool) ([]entities.PortfolioItem, error)
	FindByID(ctx context.Context, id uint64) (*entities.PortfolioItem, error)
	Create(ctx context.Context, item *entities.PortfolioItem) (*entities.PortfolioItem, error)
	Update(ctx context.Context, id uint64, title, description *string, occurredAt null.Time, occurredSet bool, timeNote *string, imageURL *string) error
	Delete(ctx context.Context, id uint64) error
}

type portfolioRepository struct {
	storage *pgxpool.Pool
}

func NewPortfolioRepository(storage *pgxpool.Pool) PortfolioRepositoryInterface {
	return &portfolioRepository{storage: storage}
}

func scanPortfolioItem(row pgx.Row) (*entities.PortfolioItem, error) {
	var item entities.PortfolioItem
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.ImageURL,
		&item.OccurredAt, &item.TimeNote, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *portfolioRepository) List(ctx context.Context, limit uint64, asc bool) ([]entities.PortfolioItem, error) {
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY occurred_at %s NULLS LAST, id %s LIMIT $1",
		portfolioFields, portfolioTable, dir, dir)

	rows, err := r.storage.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка работ: %w", err)
	}
	defer rows.Close()

	items := make([]entities.PortfolioItem, 0)
	for rows.Next() {
		var item entities.PortfolioItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.ImageURL,
			&item.OccurredAt, &item.TimeNote, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *portfolioRepository) FindByID(ctx context.Context, id uint64) (*entities.PortfolioItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", portfolioFields, portfolioTable)
	return scanPortfolioItem(r.storage.QueryRow(ctx, query, id))
}

func (r *portfolioRepository) Create(ctx context.Context, item *entities.PortfolioItem) (*entities.PortfolioItem, error) {
	query := fmt.Sprintf(`INSERT INTO %s (title, description, image_url, occurred_at, time_note)
		VALUES ($1, $2, $3, $4, $5) RETURNING %s`, portfolioTable, portfolioFields)

	created, err := scanPortfolioItem(r.storage.QueryRow(ctx, query,
		item.Title, item.Description, item.ImageURL, item.OccurredAt, item.TimeNote))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания работы в витрине: %w", err)
	}
	return created, nil
}

// Update - частичное обновление. occurredSet отличает "не трогать" от
// "записать NULL".
func (r *portfolioRepository) Update(ctx context.Context, id uint64, title, description *string, occurredAt null.Time, occurredSet bool, timeNote *string, imageURL *string) error {
	setClauses := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	argID := 1

	if title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *title)
		argID++
	}
	if description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *description)
		argID++
	}
	if occurredSet {
		setClauses = append(setClauses, fmt.Sprintf("occurred_at = $%d", argID))
		args = append(args, occurredAt)
		argID++
	}
	if timeNote != nil {
		setClauses = append(setClauses, fmt.Sprintf("time_note = $%d", argID))
		args = append(args, *timeNote)
		argID++
	}
	if imageURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("image_url = $%d", argID))
		args = append(args, *imageURL)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", portfolioTable, strings.Join(setClauses, ", "), argID)
	args = append(args, id)

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления работы в витрине: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *portfolioRepository) Delete(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", portfolioTable)
	tag, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления работы из витрины: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
