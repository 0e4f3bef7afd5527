// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/handler"
	"print-service/internal/middleware"
	"print-service/internal/printer"
	"print-service/internal/service"
	"print-service/internal/transport"
	"print-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	manager      *printer.Manager
	selector     *transport.Selector
	printService *service.PrintService
	eventBus     *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	manager *printer.Manager,
	selector *transport.Selector,
	printService *service.PrintService,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		manager:      manager,
		selector:     selector,
		printService: printService,
		eventBus:     eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.manager, r.config, r.logger)
	printerHandler := handler.NewPrinterHandler(r.manager, r.selector, r.logger)
	printHandler := handler.NewPrintHandler(r.printService, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.logger)

	healthHandler.RegisterRoutes(router.Group(""))

	apiV1 := router.Group("/api/v1")
	printerHandler.RegisterRoutes(apiV1)
	printHandler.RegisterRoutes(apiV1)

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.logger.Info("All routes configured successfully")
}
