package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"intake-system/internal/entities"
	"intake-system/internal/repositories"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
)

var quotationReportHeaders = []interface{}{
	"№", "Номер заявки", "Заявка", "Статус заявки",
	"Клиент", "Email", "Сумма", "Действительно до", "Статус предложения", "Дата выдачи",
}

type ReportServiceInterface interface {
	GetQuotationReport(ctx context.Context, filter entities.ReportFilter) ([]entities.QuotationReportItem, error)
	BuildQuotationReportXLSX(ctx context.Context, filter entities.ReportFilter) (*excelize.File, error)
}

type reportService struct {
	quotationRepo repositories.QuotationRepositoryInterface
	logger        *zap.Logger
}

func NewReportService(quotationRepo repositories.QuotationRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &reportService{quotationRepo: quotationRepo, logger: logger}
}

func (s *reportService) GetQuotationReport(ctx context.Context, filter entities.ReportFilter) ([]entities.QuotationReportItem, error) {
	if filter.Status != "" {
		switch filter.Status {
		case constants.QuotationStatusPending, constants.QuotationStatusApproved, constants.QuotationStatusRejected:
		default:
			return nil, apperrors.NewHttpError(400, "Недопустимый статус предложения в фильтре отчета", nil,
				map[string]interface{}{"status": filter.Status})
		}
	}
	return s.quotationRepo.GetReportItems(ctx, filter)
}

// BuildQuotationReportXLSX собирает отчет по предложениям в книгу Excel.
func (s *reportService) BuildQuotationReportXLSX(ctx context.Context, filter entities.ReportFilter) (*excelize.File, error) {
	items, err := s.GetQuotationReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Отчет по предложениям"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &quotationReportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "J1", style)

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			i + 1,
			item.PublicRef,
			item.RequestTitle,
			item.RequestStatus,
			item.CustomerName,
			item.CustomerEmail,
			nullFloatCell(item.TotalPrice),
			nullTimeCell(item.ValidUntil),
			item.Status,
			item.CreatedAt.Local().Format(timeLayout),
		}
		f.SetSheetRow(sheet, cell, &row)
	}

	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "E", "F", 25)
	f.SetColWidth(sheet, "H", "J", 18)

	s.logger.Info("Сформирован отчет по предложениям",
		zap.Int("rows", len(items)),
		zap.String("status", filter.Status),
	)
	return f, nil
}

func nullFloatCell(v null.Float64) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Float64
}

func nullTimeCell(v null.Time) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Time.Local().Format("2006-01-02")
}

// ParseReportFilter разбирает границы дат из query-параметров отчета.
func ParseReportFilter(dateFrom, dateTo, status string) (entities.ReportFilter, error) {
	filter := entities.ReportFilter{Status: status}

	parse := func(value string) (*time.Time, error) {
		if value == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return nil, apperrors.NewHttpError(400,
				fmt.Sprintf("Неверный формат даты '%s', ожидается ГГГГ-ММ-ДД", value), err, nil)
		}
		return &t, nil
	}

	var err error
	if filter.DateFrom, err = parse(dateFrom); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parse(dateTo); err != nil {
		return filter, err
	}
	return filter, nil
}
