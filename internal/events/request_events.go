package events

import "intake-system/internal/entities"

// События рабочего процесса. Публикуются сервисами после успешной записи;
// слушатели (уведомления) обрабатывают их асинхронно и не влияют на исход
// операции.

type RequestCreatedEvent struct {
	Request entities.ServiceRequest
}

func (e RequestCreatedEvent) Name() string { return "request.created" }

type VisitScheduledEvent struct {
	Visit   entities.SiteVisit
	Request entities.ServiceRequest
}

func (e VisitScheduledEvent) Name() string { return "visit.scheduled" }

type VisitUpdatedEvent struct {
	Visit     entities.SiteVisit
	RequestID uint64
	Cancelled bool
}

func (e VisitUpdatedEvent) Name() string { return "visit.updated" }

type VisitRespondedEvent struct {
	Visit    entities.SiteVisit
	Decision string
	Note     string
}

func (e VisitRespondedEvent) Name() string { return "visit.responded" }

type QuotationIssuedEvent struct {
	Quotation entities.Quotation
	Request   entities.ServiceRequest
}

func (e QuotationIssuedEvent) Name() string { return "quotation.issued" }

type QuotationDecidedEvent struct {
	Quotation entities.Quotation
	Decision  string
}

func (e QuotationDecidedEvent) Name() string { return "quotation.decided" }
