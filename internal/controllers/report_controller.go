package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intake-system/internal/services"
	"intake-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetQuotationReport отдает отчет по предложениям. Формат по умолчанию -
// JSON, ?format=xlsx выгружает книгу Excel. Границы: ?date_from, ?date_to
// (ГГГГ-ММ-ДД), фильтр ?status=.
func (c *ReportController) GetQuotationReport(ctx echo.Context) error {
	filter, err := services.ParseReportFilter(
		ctx.QueryParam("date_from"),
		ctx.QueryParam("date_to"),
		ctx.QueryParam("status"),
	)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") == "xlsx" {
		f, err := c.reportService.BuildQuotationReportXLSX(ctx.Request().Context(), filter)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}

		fileName := fmt.Sprintf("quotations_%s.xlsx", time.Now().Format("2006-01-02"))
		ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
		ctx.Response().WriteHeader(http.StatusOK)
		return f.Write(ctx.Response().Writer)
	}

	items, err := c.reportService.GetQuotationReport(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Successfully", http.StatusOK)
}
