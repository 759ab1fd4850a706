package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// PortfolioItem - выполненная работа в публичной витрине. OccurredAt -
// когда работа была сделана; TimeNote - пояснение вроде "лето 2024",
// когда точная дата неизвестна.
type PortfolioItem struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	ImageURL    string      `json:"image_url"`
	OccurredAt  null.Time   `json:"occurred_at"`
	TimeNote    null.String `json:"time_note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
