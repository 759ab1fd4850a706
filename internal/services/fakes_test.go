package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"intake-system/internal/dto"
	"intake-system/internal/entities"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/types"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	nextID   uint64
	requests map[uint64]*entities.ServiceRequest
	images   map[uint64][]entities.RequestImage

	stampCalls  int
	failStamp   bool
	statusCalls []string
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		nextID:   1,
		requests: make(map[uint64]*entities.ServiceRequest),
		images:   make(map[uint64][]entities.RequestImage),
	}
}

func (f *fakeRequestRepo) addRequest(req entities.ServiceRequest) *entities.ServiceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == 0 {
		req.ID = f.nextID
	}
	if req.ID >= f.nextID {
		f.nextID = req.ID + 1
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	f.requests[req.ID] = &req
	return &req
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *entities.ServiceRequest) (uint64, time.Time, error) {
	stored := f.addRequest(*req)
	return stored.ID, stored.CreatedAt, nil
}

func (f *fakeRequestRepo) StampPublicRef(ctx context.Context, id uint64, publicRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stampCalls++
	if f.failStamp {
		return fmt.Errorf("стенд недоступен")
	}
	if req, ok := f.requests[id]; ok && req.PublicRef == "" {
		req.PublicRef = publicRef
	}
	return nil
}

func (f *fakeRequestRepo) FindByID(ctx context.Context, id uint64) (*entities.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestRepo) GetRequests(ctx context.Context, filter types.Filter) ([]entities.ServiceRequest, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.ServiceRequest, 0, len(f.requests))
	for _, req := range f.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (f *fakeRequestRepo) GetRequestsByCustomer(ctx context.Context, customerID uint64) ([]entities.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.ServiceRequest, 0)
	for _, req := range f.requests {
		if req.CustomerID == customerID {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	req.Status = status
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func (f *fakeRequestRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	return f.UpdateStatus(ctx, id, status)
}

func (f *fakeRequestRepo) CountByStatus(ctx context.Context) (map[string]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]uint64)
	for _, req := range f.requests {
		counts[req.Status]++
	}
	return counts, nil
}

func (f *fakeRequestRepo) AddImage(ctx context.Context, requestID uint64, imageURL string) (*entities.RequestImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img := entities.RequestImage{
		ID:        uint64(len(f.images[requestID]) + 1),
		RequestID: requestID,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	f.images[requestID] = append(f.images[requestID], img)
	return &img, nil
}

func (f *fakeRequestRepo) GetImages(ctx context.Context, requestID uint64) ([]entities.RequestImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.RequestImage(nil), f.images[requestID]...), nil
}

type fakeVisitRepo struct {
	mu     sync.Mutex
	nextID uint64
	visits map[uint64]*entities.SiteVisit
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{nextID: 1, visits: make(map[uint64]*entities.SiteVisit)}
}

func (f *fakeVisitRepo) addVisit(v entities.SiteVisit) *entities.SiteVisit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == 0 {
		v.ID = f.nextID
	}
	if v.ID >= f.nextID {
		f.nextID = v.ID + 1
	}
	if v.Status == "" {
		v.Status = constants.VisitStatusPending
	}
	if v.CustomerResponse == "" {
		v.CustomerResponse = constants.VisitResponsePending
	}
	f.visits[v.ID] = &v
	return &v
}

func (f *fakeVisitRepo) Create(ctx context.Context, requestID uint64, scheduledAt time.Time) (*entities.SiteVisit, error) {
	created := f.addVisit(entities.SiteVisit{
		RequestID:   requestID,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	})
	clone := *created
	return &clone, nil
}

func (f *fakeVisitRepo) FindByID(ctx context.Context, id uint64) (*entities.SiteVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (f *fakeVisitRepo) FindLatestByRequest(ctx context.Context, requestID uint64) (*entities.SiteVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entities.SiteVisit
	for _, v := range f.visits {
		if v.RequestID != requestID {
			continue
		}
		if latest == nil ||
			v.ScheduledAt.After(latest.ScheduledAt) ||
			(v.ScheduledAt.Equal(latest.ScheduledAt) && v.ID > latest.ID) {
			latest = v
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeVisitRepo) ListByRequest(ctx context.Context, requestID uint64) ([]entities.SiteVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.SiteVisit, 0)
	for _, v := range f.visits {
		if v.RequestID == requestID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVisitRepo) ListByStatus(ctx context.Context, status string) ([]entities.SiteVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.SiteVisit, 0)
	for _, v := range f.visits {
		if v.Status == status {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVisitRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]entities.SiteVisit, error) {
	return []entities.SiteVisit{}, nil
}

func (f *fakeVisitRepo) Update(ctx context.Context, id uint64, scheduledAt *time.Time, status *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if scheduledAt != nil {
		v.ScheduledAt = *scheduledAt
	}
	if status != nil {
		v.Status = *status
	}
	return nil
}

func (f *fakeVisitRepo) UpdateCustomerResponse(ctx context.Context, id uint64, decision, note string, respondedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	v.CustomerResponse = decision
	v.CustomerNote = note
	v.RespondedAt = &respondedAt
	return nil
}

type fakeQuotationRepo struct {
	mu         sync.Mutex
	nextID     uint64
	quotations map[uint64]*entities.Quotation
	failCreate bool
}

func newFakeQuotationRepo() *fakeQuotationRepo {
	return &fakeQuotationRepo{nextID: 1, quotations: make(map[uint64]*entities.Quotation)}
}

func (f *fakeQuotationRepo) addQuotation(q entities.Quotation) *entities.Quotation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID == 0 {
		q.ID = f.nextID
	}
	if q.ID >= f.nextID {
		f.nextID = q.ID + 1
	}
	f.quotations[q.ID] = &q
	return &q
}

func (f *fakeQuotationRepo) CreateInTx(ctx context.Context, tx pgx.Tx, q *entities.Quotation) (*entities.Quotation, error) {
	if f.failCreate {
		return nil, fmt.Errorf("вставка не прошла")
	}
	stored := *q
	stored.CreatedAt = time.Now()
	created := f.addQuotation(stored)
	clone := *created
	return &clone, nil
}

func (f *fakeQuotationRepo) FindByID(ctx context.Context, id uint64) (*entities.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *q
	return &clone, nil
}

func (f *fakeQuotationRepo) ListByRequest(ctx context.Context, requestID uint64) ([]entities.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Quotation, 0)
	for _, q := range f.quotations {
		if q.RequestID == requestID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeQuotationRepo) Update(ctx context.Context, id uint64, totalPrice null.Float64, priceSet bool, validUntil null.Time, validSet bool, fileURL *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if priceSet {
		q.TotalPrice = totalPrice
	}
	if validSet {
		q.ValidUntil = validUntil
	}
	if fileURL != nil {
		q.FileURL = *fileURL
	}
	return nil
}

func (f *fakeQuotationRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.Status = status
	return nil
}

func (f *fakeQuotationRepo) GetReportItems(ctx context.Context, filter entities.ReportFilter) ([]entities.QuotationReportItem, error) {
	return []entities.QuotationReportItem{}, nil
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*entities.User)}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entities.User) (uint64, error) {
	id := uint64(len(f.users) + 1)
	stored := *user
	stored.ID = id
	f.users[id] = &stored
	return id, nil
}

type fakeCategoryRepo struct {
	categories map[uint64]*entities.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[uint64]*entities.Category{
		1: {ID: 1, Name: "Кондиционирование", Slug: "air-conditioning", CreatedAt: time.Now()},
	}}
}

func (f *fakeCategoryRepo) GetCategories(ctx context.Context) ([]entities.Category, error) {
	out := make([]entities.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id uint64) (*entities.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCategoryRepo) Create(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error) {
	id := uint64(len(f.categories) + 1)
	c := &entities.Category{ID: id, Name: payload.Name, Slug: payload.Slug, CreatedAt: time.Now()}
	f.categories[id] = c
	return c, nil
}

type fakePortfolioRepo struct {
	items      map[uint64]*entities.PortfolioItem
	nextID     uint64
	failCreate bool
}

func newFakePortfolioRepo() *fakePortfolioRepo {
	return &fakePortfolioRepo{items: make(map[uint64]*entities.PortfolioItem)}
}

func (f *fakePortfolioRepo) addItem(item entities.PortfolioItem) *entities.PortfolioItem {
	f.nextID++
	item.ID = f.nextID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	stored := item
	f.items[item.ID] = &stored
	return &stored
}

func (f *fakePortfolioRepo) List(ctx context.Context, limit uint64, asc bool) ([]entities.PortfolioItem, error) {
	out := make([]entities.PortfolioItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		// NULL-даты всегда в конце, независимо от направления.
		if a.OccurredAt.Valid != b.OccurredAt.Valid {
			return a.OccurredAt.Valid
		}
		if a.OccurredAt.Valid && !a.OccurredAt.Time.Equal(b.OccurredAt.Time) {
			if asc {
				return a.OccurredAt.Time.Before(b.OccurredAt.Time)
			}
			return a.OccurredAt.Time.After(b.OccurredAt.Time)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePortfolioRepo) FindByID(ctx context.Context, id uint64) (*entities.PortfolioItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (f *fakePortfolioRepo) Create(ctx context.Context, item *entities.PortfolioItem) (*entities.PortfolioItem, error) {
	if f.failCreate {
		return nil, fmt.Errorf("ошибка вставки")
	}
	return f.addItem(*item), nil
}

func (f *fakePortfolioRepo) Update(ctx context.Context, id uint64, title, description *string, occurredAt null.Time, occurredSet bool, timeNote *string, imageURL *string) error {
	item, ok := f.items[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if title != nil {
		item.Title = *title
	}
	if description != nil {
		item.Description = null.StringFrom(*description)
	}
	if occurredSet {
		item.OccurredAt = occurredAt
	}
	if timeNote != nil {
		item.TimeNote = null.StringFrom(*timeNote)
	}
	if imageURL != nil {
		item.ImageURL = *imageURL
	}
	return nil
}

func (f *fakePortfolioRepo) Delete(ctx context.Context, id uint64) error {
	if _, ok := f.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeCacheRepo struct {
	mu       sync.Mutex
	values   map[string]string
	delCalls int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string]string)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	default:
		f.values[key] = fmt.Sprintf("%v", value)
	}
	return nil
}

func (f *fakeCacheRepo) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delCalls++
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

// fakeTxManager исполняет функцию без настоящей транзакции: репозитории-фейки
// игнорируют tx.
type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeFileStorage struct {
	mu      sync.Mutex
	nextID  int
	saved   []string
	deleted []string
	failAll bool
}

func (f *fakeFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", fmt.Errorf("диск переполнен")
	}
	f.nextID++
	path := fmt.Sprintf("%s/%d-%s", prefix, f.nextID, originalFileName)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeFileStorage) Delete(filePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, filePath)
	return nil
}
