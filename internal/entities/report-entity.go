package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// QuotationReportItem - строка отчета по коммерческим предложениям.
type QuotationReportItem struct {
	QuotationID   uint64
	RequestID     uint64
	PublicRef     string
	RequestTitle  string
	RequestStatus string
	CustomerName  string
	CustomerEmail string
	TotalPrice    null.Float64
	ValidUntil    null.Time
	Status        string
	CreatedAt     time.Time
}

// ReportFilter - границы выборки отчета (по дате создания предложения).
type ReportFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string
}
