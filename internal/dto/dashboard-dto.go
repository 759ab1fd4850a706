package dto

// DashboardSummaryDTO - сводка по количеству заявок в каждом статусе.
type DashboardSummaryDTO struct {
	Total    uint64            `json:"total"`
	ByStatus map[string]uint64 `json:"by_status"`
}
