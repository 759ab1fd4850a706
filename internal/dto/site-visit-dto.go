package dto

type CreateSiteVisitDTO struct {
	RequestID   uint64 `json:"request_id" validate:"required,gt=0"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
}

// UpdateSiteVisitDTO - частичное обновление: можно перенести время, сменить
// статус или и то и другое сразу.
type UpdateSiteVisitDTO struct {
	ScheduledAt *string `json:"scheduled_at,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type RespondSiteVisitDTO struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Note     string `json:"note" validate:"max=1000"`
}

type SiteVisitDTO struct {
	ID               uint64 `json:"id"`
	RequestID        uint64 `json:"request_id"`
	ScheduledAt      string `json:"scheduled_at"`
	Status           string `json:"status"`
	CustomerResponse string `json:"customer_response"`
	CustomerNote     string `json:"customer_note,omitempty"`
	RespondedAt      string `json:"responded_at,omitempty"`
	CreatedAt        string `json:"created_at"`

	Request *SiteVisitRequestDTO `json:"request,omitempty"`
}

// SiteVisitRequestDTO - краткая проекция заявки внутри ответа по выезду.
type SiteVisitRequestDTO struct {
	ID               uint64 `json:"id"`
	PublicRef        string `json:"public_ref"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	FormattedAddress string `json:"formatted_address,omitempty"`
	PlaceName        string `json:"place_name,omitempty"`
}
