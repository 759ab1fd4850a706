package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intake-system/internal/entities"
	apperrors "intake-system/pkg/errors"
)

const (
	quotationTable  = "quotations"
	quotationFields = "id, request_id, file_url, total_price, valid_until, status, created_at, updated_at"
)

type QuotationRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, q *entities.Quotation) (*entities.Quotation, error)
	FindByID(ctx context.Context, id uint64) (*entities.Quotation, error)
	// ListByRequest возвращает предложения по заявке, новые первыми; при
	// равном времени создания первым идет большее id.
	ListByRequest(ctx context.Context, requestID uint64) ([]entities.Quotation, error)
	Update(ctx context.Context, id uint64, totalPrice null.Float64, priceSet bool, validUntil null.Time, validSet bool, fileURL *string) error
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	GetReportItems(ctx context.Context, filter entities.ReportFilter) ([]entities.QuotationReportItem, error)
}

type quotationRepository struct {
	storage *pgxpool.Pool
}

func NewQuotationRepository(storage *pgxpool.Pool) QuotationRepositoryInterface {
	return &quotationRepository{storage: storage}
}

func scanQuotation(row pgx.Row) (*entities.Quotation, error) {
	var q entities.Quotation
	err := row.Scan(&q.ID, &q.RequestID, &q.FileURL, &q.TotalPrice, &q.ValidUntil, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) CreateInTx(ctx context.Context, tx pgx.Tx, q *entities.Quotation) (*entities.Quotation, error) {
	query := fmt.Sprintf(`INSERT INTO %s (request_id, file_url, total_price, valid_until, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING %s`, quotationTable, quotationFields)

	created, err := scanQuotation(tx.QueryRow(ctx, query,
		q.RequestID, q.FileURL, q.TotalPrice, q.ValidUntil, q.Status))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания предложения: %w", err)
	}
	return created, nil
}

func (r *quotationRepository) FindByID(ctx context.Context, id uint64) (*entities.Quotation, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", quotationFields, quotationTable)
	return scanQuotation(r.storage.QueryRow(ctx, query, id))
}

func (r *quotationRepository) ListByRequest(ctx context.Context, requestID uint64) ([]entities.Quotation, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE request_id = $1
		ORDER BY created_at DESC, id DESC`, quotationFields, quotationTable)

	rows, err := r.storage.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotations := make([]entities.Quotation, 0)
	for rows.Next() {
		var q entities.Quotation
		if err := rows.Scan(&q.ID, &q.RequestID, &q.FileURL, &q.TotalPrice, &q.ValidUntil, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotations = append(quotations, q)
	}
	return quotations, rows.Err()
}

// Update - частичное обновление полей предложения (не статуса). priceSet и
// validSet отличают "не трогать" от "записать NULL".
func (r *quotationRepository) Update(ctx context.Context, id uint64, totalPrice null.Float64, priceSet bool, validUntil null.Time, validSet bool, fileURL *string) error {
	setClauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	argID := 1

	if priceSet {
		setClauses = append(setClauses, fmt.Sprintf("total_price = $%d", argID))
		args = append(args, totalPrice)
		argID++
	}
	if validSet {
		setClauses = append(setClauses, fmt.Sprintf("valid_until = $%d", argID))
		args = append(args, validUntil)
		argID++
	}
	if fileURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("file_url = $%d", argID))
		args = append(args, *fileURL)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", quotationTable, strings.Join(setClauses, ", "), argID)
	args = append(args, id)

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления предложения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *quotationRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = now() WHERE id = $2", quotationTable)
	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса предложения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *quotationRepository) GetReportItems(ctx context.Context, filter entities.ReportFilter) ([]entities.QuotationReportItem, error) {
	builder := sq.Select(
		"q.id", "r.id", "COALESCE(r.public_ref, '')", "r.title", "r.status",
		"u.first_name || ' ' || u.last_name", "u.email",
		"q.total_price", "q.valid_until", "q.status", "q.created_at",
	).
		From(quotationTable + " q").
		Join(requestTable + " r ON r.id = q.request_id").
		Join(userTable + " u ON u.id = r.customer_id").
		OrderBy("q.created_at DESC", "q.id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"q.status": filter.Status})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"q.created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"q.created_at": *filter.DateTo})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса отчета: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения данных отчета: %w", err)
	}
	defer rows.Close()

	items := make([]entities.QuotationReportItem, 0)
	for rows.Next() {
		var item entities.QuotationReportItem
		if err := rows.Scan(
			&item.QuotationID, &item.RequestID, &item.PublicRef, &item.RequestTitle, &item.RequestStatus,
			&item.CustomerName, &item.CustomerEmail,
			&item.TotalPrice, &item.ValidUntil, &item.Status, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
