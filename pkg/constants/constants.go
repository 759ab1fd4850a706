package constants

// --- СТАТУСЫ ЗАЯВОК (Совпадает с кодами в БД) ---
const (
	RequestStatusNew        = "NEW"
	RequestStatusSurvey     = "SURVEY"
	RequestStatusSurveyDone = "SURVEY_DONE"
	RequestStatusQuoted     = "QUOTED"
	RequestStatusApproved   = "APPROVED"
	RequestStatusRejected   = "REJECTED"
)

// Терминальные статусы заявки: выставляются решением клиента и в штатном
// потоке больше не меняются (но см. services.StatusSynchronizer - пересчёт
// по выездам их НЕ защищает, поведение унаследовано от исходной системы).
var TerminalRequestStatuses = []string{
	RequestStatusApproved,
	RequestStatusRejected,
}

func IsTerminalRequestStatus(code string) bool {
	for _, s := range TerminalRequestStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// --- СТАТУСЫ ВЫЕЗДОВ НА ОБЪЕКТ ---
const (
	VisitStatusPending   = "PENDING"
	VisitStatusDone      = "DONE"
	VisitStatusCancelled = "CANCELLED"
)

var AllowedVisitStatuses = []string{VisitStatusPending, VisitStatusDone, VisitStatusCancelled}

func IsAllowedVisitStatus(code string) bool {
	for _, s := range AllowedVisitStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// --- ОТВЕТ КЛИЕНТА НА ВЫЕЗД ---
const (
	VisitResponsePending  = "PENDING"
	VisitResponseApproved = "APPROVED"
	VisitResponseRejected = "REJECTED"
)

// --- СТАТУСЫ КОММЕРЧЕСКИХ ПРЕДЛОЖЕНИЙ ---
const (
	QuotationStatusPending  = "PENDING"
	QuotationStatusApproved = "APPROVED"
	QuotationStatusRejected = "REJECTED"
)

// --- РОЛИ ---
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// Префикс публичного номера заявки: REQ-YYYYMM-NNNNN.
const PublicRefPrefix = "REQ"
