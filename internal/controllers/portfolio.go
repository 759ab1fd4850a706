package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/internal/services"
	"intake-system/pkg/utils"
)

type PortfolioController struct {
	portfolioService services.PortfolioServiceInterface
	logger           *zap.Logger
}

func NewPortfolioController(portfolioService services.PortfolioServiceInterface, logger *zap.Logger) *PortfolioController {
	return &PortfolioController{portfolioService: portfolioService, logger: logger}
}

// GetPortfolio - публичная витрина. Параметры: limit, order=asc|desc
// (по умолчанию desc - свежие работы первыми).
func (c *PortfolioController) GetPortfolio(ctx echo.Context) error {
	var limit uint64
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := parseUint(raw)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		limit = parsed
	}
	asc := ctx.QueryParam("order") == "asc"

	items, err := c.portfolioService.List(ctx.Request().Context(), limit, asc)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Successfully", http.StatusOK)
}

// CreatePortfolioItem принимает multipart: изображение в поле "image",
// остальные поля формы.
func (c *PortfolioController) CreatePortfolioItem(ctx echo.Context) error {
	var payload dto.CreatePortfolioItemDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	item, err := c.portfolioService.Create(ctx.Request().Context(), payload, formFile(ctx, "image"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, item, "Работа добавлена в витрину", http.StatusCreated)
}

func (c *PortfolioController) UpdatePortfolioItem(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdatePortfolioItemDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	item, err := c.portfolioService.Update(ctx.Request().Context(), id, payload, formFile(ctx, "image"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, item, "Работа обновлена", http.StatusOK)
}

func (c *PortfolioController) DeletePortfolioItem(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.portfolioService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Работа удалена", http.StatusOK)
}
