package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"intake-system/internal/entities"
	apperrors "intake-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	siteVisitTable  = "site_visits"
	siteVisitFields = "id, request_id, scheduled_at, status, customer_response, customer_note, responded_at, created_at, updated_at"
)

type SiteVisitRepositoryInterface interface {
	Create(ctx context.Context, requestID uint64, scheduledAt time.Time) (*entities.SiteVisit, error)
	FindByID(ctx context.Context, id uint64) (*entities.SiteVisit, error)
	// FindLatestByRequest возвращает последний по времени выезд; при равенстве
	// scheduled_at выигрывает больший id, чтобы выбор был детерминированным.
	FindLatestByRequest(ctx context.Context, requestID uint64) (*entities.SiteVisit, error)
	ListByRequest(ctx context.Context, requestID uint64) ([]entities.SiteVisit, error)
	ListByStatus(ctx context.Context, status string) ([]entities.SiteVisit, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]entities.SiteVisit, error)
	Update(ctx context.Context, id uint64, scheduledAt *time.Time, status *string) error
	UpdateCustomerResponse(ctx context.Context, id uint64, decision, note string, respondedAt time.Time) error
}

type dbSiteVisit struct {
	ID               uint64
	RequestID        uint64
	ScheduledAt      time.Time
	Status           string
	CustomerResponse string
	CustomerNote     sql.NullString
	RespondedAt      sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (db *dbSiteVisit) toEntity() entities.SiteVisit {
	visit := entities.SiteVisit{
		ID:               db.ID,
		RequestID:        db.RequestID,
		ScheduledAt:      db.ScheduledAt,
		Status:           db.Status,
		CustomerResponse: db.CustomerResponse,
		CustomerNote:     db.CustomerNote.String,
		CreatedAt:        db.CreatedAt,
		UpdatedAt:        db.UpdatedAt,
	}
	if db.RespondedAt.Valid {
		t := db.RespondedAt.Time
		visit.RespondedAt = &t
	}
	return visit
}

func (db *dbSiteVisit) scanFields() []interface{} {
	return []interface{}{
		&db.ID, &db.RequestID, &db.ScheduledAt, &db.Status,
		&db.CustomerResponse, &db.CustomerNote, &db.RespondedAt,
		&db.CreatedAt, &db.UpdatedAt,
	}
}

type siteVisitRepository struct {
	storage *pgxpool.Pool
}

func NewSiteVisitRepository(storage *pgxpool.Pool) SiteVisitRepositoryInterface {
	return &siteVisitRepository{storage: storage}
}

func (r *siteVisitRepository) Create(ctx context.Context, requestID uint64, scheduledAt time.Time) (*entities.SiteVisit, error) {
	query := fmt.Sprintf(`INSERT INTO %s (request_id, scheduled_at, status, customer_response)
		VALUES ($1, $2, 'PENDING', 'PENDING') RETURNING %s`, siteVisitTable, siteVisitFields)

	var dbRow dbSiteVisit
	if err := r.storage.QueryRow(ctx, query, requestID, scheduledAt).Scan(dbRow.scanFields()...); err != nil {
		return nil, fmt.Errorf("ошибка создания выезда: %w", err)
	}
	visit := dbRow.toEntity()
	return &visit, nil
}

func (r *siteVisitRepository) FindByID(ctx context.Context, id uint64) (*entities.SiteVisit, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", siteVisitFields, siteVisitTable)
	var dbRow dbSiteVisit
	if err := r.storage.QueryRow(ctx, query, id).Scan(dbRow.scanFields()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	visit := dbRow.toEntity()
	return &visit, nil
}

func (r *siteVisitRepository) FindLatestByRequest(ctx context.Context, requestID uint64) (*entities.SiteVisit, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE request_id = $1
		ORDER BY scheduled_at DESC, id DESC LIMIT 1`, siteVisitFields, siteVisitTable)
	var dbRow dbSiteVisit
	if err := r.storage.QueryRow(ctx, query, requestID).Scan(dbRow.scanFields()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	visit := dbRow.toEntity()
	return &visit, nil
}

func (r *siteVisitRepository) list(ctx context.Context, query string, args ...interface{}) ([]entities.SiteVisit, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := make([]entities.SiteVisit, 0)
	for rows.Next() {
		var dbRow dbSiteVisit
		if err := rows.Scan(dbRow.scanFields()...); err != nil {
			return nil, err
		}
		visits = append(visits, dbRow.toEntity())
	}
	return visits, rows.Err()
}

func (r *siteVisitRepository) ListByRequest(ctx context.Context, requestID uint64) ([]entities.SiteVisit, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE request_id = $1 ORDER BY scheduled_at, id", siteVisitFields, siteVisitTable)
	return r.list(ctx, query, requestID)
}

func (r *siteVisitRepository) ListByStatus(ctx context.Context, status string) ([]entities.SiteVisit, error) {
	if status == "" {
		query := fmt.Sprintf("SELECT %s FROM %s ORDER BY scheduled_at, id", siteVisitFields, siteVisitTable)
		return r.list(ctx, query)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE status = $1 ORDER BY scheduled_at, id", siteVisitFields, siteVisitTable)
	return r.list(ctx, query, status)
}

func (r *siteVisitRepository) ListByCustomer(ctx context.Context, customerID uint64) ([]entities.SiteVisit, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s v
		WHERE EXISTS (SELECT 1 FROM %s req WHERE req.id = v.request_id AND req.customer_id = $1)
		ORDER BY v.scheduled_at, v.id`, prefixedSiteVisitFields("v"), siteVisitTable, requestTable)
	return r.list(ctx, query, customerID)
}

// Update - частичное обновление: любое подмножество из {scheduled_at, status}.
func (r *siteVisitRepository) Update(ctx context.Context, id uint64, scheduledAt *time.Time, status *string) error {
	setClauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	argID := 1

	if scheduledAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("scheduled_at = $%d", argID))
		args = append(args, *scheduledAt)
		argID++
	}
	if status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argID))
		args = append(args, *status)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", siteVisitTable, strings.Join(setClauses, ", "), argID)
	args = append(args, id)

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления выезда: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateCustomerResponse перезаписывает ответ клиента целиком: последний
// ответ выигрывает.
func (r *siteVisitRepository) UpdateCustomerResponse(ctx context.Context, id uint64, decision, note string, respondedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET customer_response = $1, customer_note = $2,
		responded_at = $3, updated_at = now() WHERE id = $4`, siteVisitTable)

	var noteArg interface{}
	if note != "" {
		noteArg = note
	}
	tag, err := r.storage.Exec(ctx, query, decision, noteArg, respondedAt, id)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ответа клиента: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func prefixedSiteVisitFields(alias string) string {
	cols := strings.Split(siteVisitFields, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
