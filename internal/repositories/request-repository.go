package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	infradb "intake-system/internal/infrastructure/db"
	"intake-system/internal/entities"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/types"
)

const (
	requestTable  = "service_requests"
	requestFields = `id, public_ref, title, description, status, customer_id, category_id,
		contact_first_name, contact_last_name, contact_email, contact_phone,
		latitude, longitude, place_name, formatted_address, address_line,
		subdistrict, district, province, postal_code, created_at, updated_at`
)

// Колонки, по которым разрешены фильтрация и сортировка списков.
var requestAllowedFields = map[string]string{
	"status":      "r.status",
	"category_id": "r.category_id",
	"customer_id": "r.customer_id",
	"created_at":  "r.created_at",
	"id":          "r.id",
}

type RequestRepositoryInterface interface {
	Create(ctx context.Context, req *entities.ServiceRequest) (uint64, time.Time, error)
	StampPublicRef(ctx context.Context, id uint64, publicRef string) error
	FindByID(ctx context.Context, id uint64) (*entities.ServiceRequest, error)
	GetRequests(ctx context.Context, filter types.Filter) ([]entities.ServiceRequest, uint64, error)
	GetRequestsByCustomer(ctx context.Context, customerID uint64) ([]entities.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	CountByStatus(ctx context.Context) (map[string]uint64, error)
	AddImage(ctx context.Context, requestID uint64, imageURL string) (*entities.RequestImage, error)
	GetImages(ctx context.Context, requestID uint64) ([]entities.RequestImage, error)
}

type dbRequest struct {
	ID               uint64
	PublicRef        sql.NullString
	Title            string
	Description      string
	Status           string
	CustomerID       uint64
	CategoryID       uint64
	ContactFirstName string
	ContactLastName  string
	ContactEmail     string
	ContactPhone     string
	Latitude         float64
	Longitude        float64
	PlaceName        sql.NullString
	FormattedAddress sql.NullString
	AddressLine      sql.NullString
	Subdistrict      sql.NullString
	District         sql.NullString
	Province         sql.NullString
	PostalCode       sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (db *dbRequest) toEntity() entities.ServiceRequest {
	return entities.ServiceRequest{
		ID:               db.ID,
		PublicRef:        db.PublicRef.String,
		Title:            db.Title,
		Description:      db.Description,
		Status:           db.Status,
		CustomerID:       db.CustomerID,
		CategoryID:       db.CategoryID,
		ContactFirstName: db.ContactFirstName,
		ContactLastName:  db.ContactLastName,
		ContactEmail:     db.ContactEmail,
		ContactPhone:     db.ContactPhone,
		Latitude:         db.Latitude,
		Longitude:        db.Longitude,
		PlaceName:        db.PlaceName.String,
		FormattedAddress: db.FormattedAddress.String,
		AddressLine:      db.AddressLine.String,
		Subdistrict:      db.Subdistrict.String,
		District:         db.District.String,
		Province:         db.Province.String,
		PostalCode:       db.PostalCode.String,
		CreatedAt:        db.CreatedAt,
		UpdatedAt:        db.UpdatedAt,
	}
}

func (db *dbRequest) scanFields() []interface{} {
	return []interface{}{
		&db.ID, &db.PublicRef, &db.Title, &db.Description, &db.Status,
		&db.CustomerID, &db.CategoryID,
		&db.ContactFirstName, &db.ContactLastName, &db.ContactEmail, &db.ContactPhone,
		&db.Latitude, &db.Longitude,
		&db.PlaceName, &db.FormattedAddress, &db.AddressLine,
		&db.Subdistrict, &db.District, &db.Province, &db.PostalCode,
		&db.CreatedAt, &db.UpdatedAt,
	}
}

type requestRepository struct {
	storage *pgxpool.Pool
}

func NewRequestRepository(storage *pgxpool.Pool) RequestRepositoryInterface {
	return &requestRepository{storage: storage}
}

// Create вставляет заявку в статусе NEW и возвращает id и created_at,
// из которых затем строится публичный номер.
func (r *requestRepository) Create(ctx context.Context, req *entities.ServiceRequest) (uint64, time.Time, error) {
	query := fmt.Sprintf(`INSERT INTO %s
		(title, description, status, customer_id, category_id,
		 contact_first_name, contact_last_name, contact_email, contact_phone,
		 latitude, longitude, place_name, formatted_address, address_line,
		 subdistrict, district, province, postal_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at`, requestTable)

	var (
		id        uint64
		createdAt time.Time
	)
	err := r.storage.QueryRow(ctx, query,
		req.Title, req.Description, req.Status, req.CustomerID, req.CategoryID,
		req.ContactFirstName, req.ContactLastName, req.ContactEmail, req.ContactPhone,
		req.Latitude, req.Longitude,
		nullIfEmpty(req.PlaceName), nullIfEmpty(req.FormattedAddress), nullIfEmpty(req.AddressLine),
		nullIfEmpty(req.Subdistrict), nullIfEmpty(req.District), nullIfEmpty(req.Province), nullIfEmpty(req.PostalCode),
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return id, createdAt, nil
}

// StampPublicRef проставляет публичный номер, только если он ещё пуст:
// номер неизменяем, повторная простановка - no-op.
func (r *requestRepository) StampPublicRef(ctx context.Context, id uint64, publicRef string) error {
	query := fmt.Sprintf(`UPDATE %s SET public_ref = $1, updated_at = now()
		WHERE id = $2 AND public_ref IS NULL`, requestTable)
	_, err := r.storage.Exec(ctx, query, publicRef, id)
	if err != nil {
		return fmt.Errorf("ошибка простановки публичного номера: %w", err)
	}
	return nil
}

func (r *requestRepository) FindByID(ctx context.Context, id uint64) (*entities.ServiceRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", requestFields, requestTable)
	var dbRow dbRequest
	if err := r.storage.QueryRow(ctx, query, id).Scan(dbRow.scanFields()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	entity := dbRow.toEntity()
	return &entity, nil
}

func (r *requestRepository) GetRequests(ctx context.Context, filter types.Filter) ([]entities.ServiceRequest, uint64, error) {
	base := sq.Select().From(requestTable + " r").PlaceholderFormat(sq.Dollar)

	if filter.Search != "" {
		kw := "%" + filter.Search + "%"
		base = base.Where(sq.Or{
			sq.ILike{"r.public_ref": kw},
			sq.ILike{"r.title": kw},
			sq.ILike{"r.description": kw},
			sq.ILike{"r.contact_first_name": kw},
			sq.ILike{"r.contact_last_name": kw},
			sq.ILike{"r.contact_email": kw},
			sq.ILike{"r.contact_phone": kw},
		})
	}

	countBuilder := infradb.ApplyListParams(base.Columns("COUNT(*)"), types.Filter{Filter: filter.Filter}, requestAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки count-запроса: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заявок: %w", err)
	}
	if total == 0 {
		return []entities.ServiceRequest{}, 0, nil
	}

	listBuilder := base.Columns(prefixedRequestFields())
	if len(filter.Sort) == 0 {
		listBuilder = listBuilder.OrderBy("r.created_at DESC")
	}
	listBuilder = infradb.ApplyListParams(listBuilder, filter, requestAllowedFields)

	query, args, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка заявок: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	requests := make([]entities.ServiceRequest, 0)
	for rows.Next() {
		var dbRow dbRequest
		if err := rows.Scan(dbRow.scanFields()...); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заявки в списке: %w", err)
		}
		requests = append(requests, dbRow.toEntity())
	}
	return requests, total, rows.Err()
}

func (r *requestRepository) GetRequestsByCustomer(ctx context.Context, customerID uint64) ([]entities.ServiceRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE customer_id = $1 ORDER BY id DESC", requestFields, requestTable)
	rows, err := r.storage.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]entities.ServiceRequest, 0)
	for rows.Next() {
		var dbRow dbRequest
		if err := rows.Scan(dbRow.scanFields()...); err != nil {
			return nil, err
		}
		requests = append(requests, dbRow.toEntity())
	}
	return requests, rows.Err()
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = now() WHERE id = $2", requestTable)
	tag, err := r.storage.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *requestRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = now() WHERE id = $2", requestTable)
	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *requestRepository) CountByStatus(ctx context.Context) (map[string]uint64, error) {
	query := fmt.Sprintf("SELECT status, COUNT(*) FROM %s GROUP BY status", requestTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var (
			status string
			count  uint64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *requestRepository) AddImage(ctx context.Context, requestID uint64, imageURL string) (*entities.RequestImage, error) {
	query := `INSERT INTO request_images (request_id, image_url) VALUES ($1, $2)
		RETURNING id, request_id, image_url, created_at`
	var img entities.RequestImage
	err := r.storage.QueryRow(ctx, query, requestID, imageURL).
		Scan(&img.ID, &img.RequestID, &img.ImageURL, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения изображения заявки: %w", err)
	}
	return &img, nil
}

func (r *requestRepository) GetImages(ctx context.Context, requestID uint64) ([]entities.RequestImage, error) {
	query := `SELECT id, request_id, image_url, created_at FROM request_images
		WHERE request_id = $1 ORDER BY id`
	rows, err := r.storage.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]entities.RequestImage, 0)
	for rows.Next() {
		var img entities.RequestImage
		if err := rows.Scan(&img.ID, &img.RequestID, &img.ImageURL, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func prefixedRequestFields() string {
	return `r.id, r.public_ref, r.title, r.description, r.status, r.customer_id, r.category_id,
		r.contact_first_name, r.contact_last_name, r.contact_email, r.contact_phone,
		r.latitude, r.longitude, r.place_name, r.formatted_address, r.address_line,
		r.subdistrict, r.district, r.province, r.postal_code, r.created_at, r.updated_at`
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
