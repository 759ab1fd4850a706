package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Quotation - коммерческое предложение по заявке. "Активным" для решения
// клиента считается последнее по времени создания (при равенстве - с
// большим id).
type Quotation struct {
	ID        uint64 `json:"id"`
	RequestID uint64 `json:"request_id"`

	FileURL    string       `json:"file_url"`
	TotalPrice null.Float64 `json:"total_price"`
	ValidUntil null.Time    `json:"valid_until"`

	// PENDING | APPROVED | REJECTED. Редактируется только в PENDING.
	Status string `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
