package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/services"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/utils"
)

type QuotationController struct {
	quotationService services.QuotationServiceInterface
	logger           *zap.Logger
}

func NewQuotationController(quotationService services.QuotationServiceInterface, logger *zap.Logger) *QuotationController {
	return &QuotationController{quotationService: quotationService, logger: logger}
}

// Issue выдает предложение по заявке из пути. Форма multipart: документ в
// поле "document", опциональные "total_price" и "valid_until".
func (c *QuotationController) Issue(ctx echo.Context) error {
	requestID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	payload, err := quotationFormPayload(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	quotation, err := c.quotationService.Issue(ctx.Request().Context(), requestID, dto.CreateQuotationDTO{
		TotalPrice: payload.TotalPrice,
		ValidUntil: payload.ValidUntil,
	}, formFile(ctx, "document"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, quotation, "Предложение выдано", http.StatusCreated)
}

func (c *QuotationController) Revise(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	payload, err := quotationFormPayload(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	quotation, err := c.quotationService.Revise(ctx.Request().Context(), id, payload, formFile(ctx, "document"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, quotation, "Предложение обновлено", http.StatusOK)
}

func (c *QuotationController) Decide(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.DecideQuotationDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	quotation, err := c.quotationService.Decide(ctx.Request().Context(), id, userID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, quotation, "Решение сохранено", http.StatusOK)
}

func (c *QuotationController) GetQuotation(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	quotation, err := c.quotationService.GetQuotation(reqCtx, id, userID, utils.IsAdminCtx(reqCtx))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, quotation, "Successfully", http.StatusOK)
}

// GetQuotationsByRequest отдает предложения по заявке из пути (:id - заявка).
func (c *QuotationController) GetQuotationsByRequest(ctx echo.Context) error {
	requestID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	quotations, err := c.quotationService.ListByRequest(reqCtx, requestID, userID, utils.IsAdminCtx(reqCtx))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, quotations, "Successfully", http.StatusOK)
}

func quotationFormPayload(ctx echo.Context) (dto.UpdateQuotationDTO, error) {
	var payload dto.UpdateQuotationDTO

	if priceStr := ctx.FormValue("total_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			return payload, apperrors.NewHttpError(http.StatusBadRequest,
				"Поле 'total_price' должно быть неотрицательным числом", err, nil)
		}
		payload.TotalPrice = null.Float64From(price)
	}

	if validStr := ctx.FormValue("valid_until"); validStr != "" {
		parsed, err := parseDateValue(validStr)
		if err != nil {
			return payload, err
		}
		payload.ValidUntil = null.TimeFrom(parsed)
	}

	return payload, nil
}

func parseDateValue(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewHttpError(http.StatusBadRequest,
		"Поле 'valid_until' должно быть датой в формате ГГГГ-ММ-ДД", nil, nil)
}

func formFile(ctx echo.Context, field string) *multipart.FileHeader {
	file, err := ctx.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}
