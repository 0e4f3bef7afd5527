// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/handler"
	"print-service/internal/model"
	"print-service/internal/printer"
	"print-service/internal/render"
	"print-service/internal/routes"
	"print-service/internal/service"
	"print-service/internal/session"
	"print-service/internal/transport"
	"print-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	manager      *printer.Manager
	selector     *transport.Selector
	printService *service.PrintService
	eventBus     *handler.EventBus
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.initializePrintCore()
	app.initializeServer()

	return app, nil
}

// initializePrintCore wires the connection manager, transport selector
// and print orchestrator together
func (app *Application) initializePrintCore() {
	app.eventBus = handler.NewEventBus(app.logger)

	store := session.NewStore(app.config.Printer.SessionPath)
	app.manager = printer.NewManager(app.config.Printer, store, app.logger, nil)
	app.manager.SetStateListener(func(state model.ConnectionState, message string) {
		app.eventBus.Publish("connection_state", map[string]interface{}{
			"state":   string(state),
			"message": message,
		})
	})

	capabilities := transport.NewHostCapabilities(app.config.Capability)
	app.selector = transport.NewSelector(capabilities, app.manager)

	renderer := render.NewRenderer(app.config.Printer.PaperWidth, nil)
	app.printService = service.NewPrintService(
		renderer,
		app.manager,
		app.selector,
		app.eventBus,
		app.config.Printer.BatchDelay,
		app.logger,
	)

	app.logger.Info("Print core initialized",
		zap.String("connection_type", app.config.Printer.ConnectionType),
		zap.Bool("direct_transport", capabilities.SupportsDirectTransport()),
	)
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.manager,
		app.selector,
		app.printService,
		app.eventBus,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
}

// Start runs the server, the connection manager and waits for shutdown
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Silent startup reconnect plus liveness poll
	app.manager.Start(context.Background())

	app.waitForShutdown()
	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.manager.Stop()

	// Close the device handle but leave the session marker so the next
	// start reconnects silently.
	app.manager.Shutdown()

	app.logger.Info("Application shutdown completed")

	// Flush buffered log entries last so the line above makes it out
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
