package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/employee_records/internal/config"
	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/handler"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/repository"
	"github.com/locvowork/employee_records/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Echo   *echo.Echo
	Config *config.Config
	DB     *database.DB

	// Index is nil when ELASTIC_URL is unset.
	Index domain.EmployeeIndex
	Repo  domain.EmployeeRepository
	Svc   *service.EmployeeService
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	a.Config = cfg

	// Initialize logging
	logger.InitLogging(cfg.Log)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	// Initialize database connection
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	logger.InfoLog(ctx, "Connected to %s database", db.Driver)

	a.Index = a.connectSearch(ctx)

	// Initialize dependencies
	a.Repo = repository.NewEmployeeRepository(db)
	a.Svc = service.NewEmployeeService(a.Repo, a.Index)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(handler.NewEmployeeHandler(a.Svc), handler.NewEmployeeV2Handler(a.Svc))

	return nil
}

// connectSearch returns the Elasticsearch index, or nil when it is not
// configured or cannot be prepared. The API runs without it.
func (a *App) connectSearch(ctx context.Context) domain.EmployeeIndex {
	if a.Config.Elastic.URL == "" {
		logger.InfoLog(ctx, "ELASTIC_URL not set, full-text search disabled")
		return nil
	}

	es, err := database.NewElasticSearchClient(a.Config.Elastic)
	if err != nil {
		logger.WarnLog(ctx, "Full-text search disabled: %v", err)
		return nil
	}
	if err := es.EnsureIndex(ctx); err != nil {
		logger.WarnLog(ctx, "Full-text search disabled: %v", err)
		return nil
	}
	logger.InfoLog(ctx, "Full-text search enabled at %s", a.Config.Elastic.URL)
	return es
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.Echo.Use(logger.RequestLogger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(v1 *handler.EmployeeHandler, v2 *handler.EmployeeV2Handler) {
	v1.Register(a.Echo.Group("/api/employees"))
	v2.Register(a.Echo.Group("/api/v2/employees"))
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(":" + a.Config.App.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.InfoLog(context.Background(), "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
