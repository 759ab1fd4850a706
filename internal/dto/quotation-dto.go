package dto

import "github.com/aarondl/null/v8"

// CreateQuotationDTO - поля формы при выдаче предложения (файл приходит
// отдельной частью multipart).
type CreateQuotationDTO struct {
	TotalPrice null.Float64 `json:"total_price"`
	ValidUntil null.Time    `json:"valid_until"`
}

type UpdateQuotationDTO struct {
	TotalPrice null.Float64 `json:"total_price"`
	ValidUntil null.Time    `json:"valid_until"`
}

type DecideQuotationDTO struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
}

type QuotationDTO struct {
	ID         uint64       `json:"id"`
	RequestID  uint64       `json:"request_id"`
	FileURL    string       `json:"file_url"`
	TotalPrice null.Float64 `json:"total_price"`
	ValidUntil null.Time    `json:"valid_until"`
	Status     string       `json:"status"`
	CreatedAt  string       `json:"created_at"`

	Request *SiteVisitRequestDTO `json:"request,omitempty"`
}
