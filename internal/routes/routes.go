package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intake-system/internal/controllers"
	"intake-system/internal/listeners"
	"intake-system/internal/repositories"
	"intake-system/internal/services"
	"intake-system/pkg/config"
	"intake-system/pkg/eventbus"
	"intake-system/pkg/filestorage"
	"intake-system/pkg/middleware"
	"intake-system/pkg/service"
)

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, cfg *config.Config, logger *zap.Logger) {
	logger.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	fileStorage, err := filestorage.NewLocalFileStorage(cfg.UploadDir)
	if err != nil {
		logger.Fatal("не удалось создать файловое хранилище", zap.Error(err))
	}
	txManager := repositories.NewTxManager(dbConn)
	bus := eventbus.New(logger)
	listeners.NewNotificationListener(cfg.Mail, logger).Register(bus)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn)
	categoryRepo := repositories.NewCategoryRepository(dbConn)
	requestRepo := repositories.NewRequestRepository(dbConn)
	visitRepo := repositories.NewSiteVisitRepository(dbConn)
	quotationRepo := repositories.NewQuotationRepository(dbConn)
	portfolioRepo := repositories.NewPortfolioRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- 2. СЕРВИСЫ ---
	synchronizer := services.NewStatusSynchronizer(requestRepo, visitRepo, cacheRepo, logger)
	quoteGuard := services.NewQuoteGuard(visitRepo, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	categoryService := services.NewCategoryService(categoryRepo, logger)
	requestService := services.NewRequestService(
		requestRepo, categoryRepo, userRepo, visitRepo, quotationRepo,
		synchronizer, fileStorage, bus, logger,
	)
	visitService := services.NewSiteVisitService(visitRepo, requestRepo, synchronizer, bus, logger)
	quotationService := services.NewQuotationService(
		quotationRepo, requestRepo, quoteGuard, synchronizer, txManager,
		fileStorage, bus, logger,
	)
	dashboardService := services.NewDashboardService(requestRepo, cacheRepo, cfg.DashboardCacheTTL, logger)
	reportService := services.NewReportService(quotationRepo, logger)
	portfolioService := services.NewPortfolioService(portfolioRepo, fileStorage, logger)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, logger)
	categoryCtrl := controllers.NewCategoryController(categoryService, logger)
	requestCtrl := controllers.NewRequestController(requestService, logger)
	visitCtrl := controllers.NewSiteVisitController(visitService, logger)
	quotationCtrl := controllers.NewQuotationController(quotationService, logger)
	dashboardCtrl := controllers.NewDashboardController(dashboardService, logger)
	reportCtrl := controllers.NewReportController(reportService, logger)
	portfolioCtrl := controllers.NewPortfolioController(portfolioService, logger)

	// --- 4. МАРШРУТЫ ---
	auth := api.Group("/auth")
	auth.POST("/register", authCtrl.Register)
	auth.POST("/login", authCtrl.Login)
	auth.POST("/refresh", authCtrl.Refresh)
	auth.GET("/profile", authCtrl.Profile, authMW.Auth)

	api.GET("/categories", categoryCtrl.GetCategories)
	api.POST("/categories", categoryCtrl.CreateCategory, authMW.Auth, authMW.RequireAdmin)

	// Витрина выполненных работ: чтение публичное, правки только админу.
	api.GET("/portfolio", portfolioCtrl.GetPortfolio)
	api.POST("/portfolio", portfolioCtrl.CreatePortfolioItem, authMW.Auth, authMW.RequireAdmin)
	api.PUT("/portfolio/:id", portfolioCtrl.UpdatePortfolioItem, authMW.Auth, authMW.RequireAdmin)
	api.DELETE("/portfolio/:id", portfolioCtrl.DeletePortfolioItem, authMW.Auth, authMW.RequireAdmin)

	// Клиентская часть.
	my := api.Group("/my", authMW.Auth)
	my.GET("/requests", requestCtrl.GetOwnRequests)
	my.GET("/requests/:id", requestCtrl.GetRequestByID)
	my.POST("/requests/:id/cancel", requestCtrl.CancelRequest)
	my.POST("/requests/:id/images", requestCtrl.AddImages)
	my.GET("/site-visits", visitCtrl.GetOwnVisits)
	my.POST("/site-visits/:id/respond", visitCtrl.Respond)
	my.POST("/quotations/:id/decision", quotationCtrl.Decide)

	api.POST("/requests", requestCtrl.CreateRequest, authMW.Auth)
	api.GET("/requests/:id/quotations", quotationCtrl.GetQuotationsByRequest, authMW.Auth)

	// Административная часть.
	admin := api.Group("", authMW.Auth, authMW.RequireAdmin)
	admin.GET("/requests", requestCtrl.GetRequests)
	admin.GET("/requests/:id", requestCtrl.GetRequestByID)
	admin.POST("/requests/:id/quotations", quotationCtrl.Issue)
	admin.POST("/site-visits", visitCtrl.Schedule)
	admin.GET("/site-visits", visitCtrl.GetVisits)
	admin.GET("/site-visits/:id", visitCtrl.GetVisit)
	admin.PUT("/site-visits/:id", visitCtrl.Update)
	admin.GET("/quotations/:id", quotationCtrl.GetQuotation)
	admin.PUT("/quotations/:id", quotationCtrl.Revise)
	admin.GET("/dashboard/summary", dashboardCtrl.GetSummary)
	admin.GET("/reports/quotations", reportCtrl.GetQuotationReport)

	logger.Info("InitRouter: Маршруты созданы")
}
