package dto

import "github.com/aarondl/null/v8"

// CreatePortfolioItemDTO - поля формы при добавлении работы в витрину
// (изображение приходит отдельной частью multipart).
type CreatePortfolioItemDTO struct {
	Title       string `form:"title" validate:"required,min=2,max=200"`
	Description string `form:"description" validate:"omitempty,max=2000"`
	OccurredAt  string `form:"occurred_at" validate:"omitempty"`
	TimeNote    string `form:"time_note" validate:"omitempty,max=100"`
}

// UpdatePortfolioItemDTO - частичное обновление: незаполненные поля не
// трогаются, пустая строка в occurred_at сбрасывает дату.
type UpdatePortfolioItemDTO struct {
	Title       *string `form:"title" validate:"omitempty,min=2,max=200"`
	Description *string `form:"description" validate:"omitempty,max=2000"`
	OccurredAt  *string `form:"occurred_at" validate:"omitempty"`
	TimeNote    *string `form:"time_note" validate:"omitempty,max=100"`
}

type PortfolioItemDTO struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	ImageURL    string      `json:"image_url"`
	OccurredAt  null.Time   `json:"occurred_at"`
	TimeNote    null.String `json:"time_note"`
	CreatedAt   string      `json:"created_at"`
}
