package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/services"
	"intake-system/pkg/utils"
)

type SiteVisitController struct {
	visitService services.SiteVisitServiceInterface
	logger       *zap.Logger
}

func NewSiteVisitController(visitService services.SiteVisitServiceInterface, logger *zap.Logger) *SiteVisitController {
	return &SiteVisitController{visitService: visitService, logger: logger}
}

func (c *SiteVisitController) Schedule(ctx echo.Context) error {
	var payload dto.CreateSiteVisitDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	visit, err := c.visitService.Schedule(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visit, "Выезд назначен", http.StatusCreated)
}

func (c *SiteVisitController) Update(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateSiteVisitDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	visit, err := c.visitService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visit, "Выезд обновлен", http.StatusOK)
}

func (c *SiteVisitController) Respond(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.RespondSiteVisitDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	visit, err := c.visitService.Respond(ctx.Request().Context(), id, userID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visit, "Ответ сохранен", http.StatusOK)
}

func (c *SiteVisitController) GetVisit(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	visit, err := c.visitService.GetVisit(reqCtx, id, userID, utils.IsAdminCtx(reqCtx))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visit, "Successfully", http.StatusOK)
}

// GetVisits - списки для сотрудника: либо по заявке (?request_id=), либо по
// статусу (?status=).
func (c *SiteVisitController) GetVisits(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if requestIDStr := ctx.QueryParam("request_id"); requestIDStr != "" {
		requestID, err := parseUint(requestIDStr)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		userID, err := utils.GetUserIDFromCtx(reqCtx)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		visits, err := c.visitService.ListByRequest(reqCtx, requestID, userID, utils.IsAdminCtx(reqCtx))
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		return utils.SuccessResponse(ctx, visits, "Successfully", http.StatusOK)
	}

	visits, err := c.visitService.ListByStatus(reqCtx, ctx.QueryParam("status"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visits, "Successfully", http.StatusOK)
}

func (c *SiteVisitController) GetOwnVisits(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	visits, err := c.visitService.ListOwn(ctx.Request().Context(), userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, visits, "Successfully", http.StatusOK)
}
