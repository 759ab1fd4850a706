package entities

import "time"

// SiteVisit - назначенный (или прошедший) выезд на объект. Заявка может
// накапливать несколько выездов (переносы); записи никогда не удаляются.
type SiteVisit struct {
	ID          uint64    `json:"id"`
	RequestID   uint64    `json:"request_id"`
	ScheduledAt time.Time `json:"scheduled_at"`

	// PENDING | DONE | CANCELLED, меняется сотрудником.
	Status string `json:"status"`

	// Ответ клиента на предложенное время: PENDING | APPROVED | REJECTED.
	// Последний ответ перезаписывает предыдущий.
	CustomerResponse string     `json:"customer_response"`
	CustomerNote     string     `json:"customer_note,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
