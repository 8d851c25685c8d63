package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/electrotrack/api"
	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/attendance"
	attendancePostgres "github.com/frahmantamala/electrotrack/internal/attendance/postgres"
	"github.com/frahmantamala/electrotrack/internal/auth"
	authPostgres "github.com/frahmantamala/electrotrack/internal/auth/postgres"
	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/frahmantamala/electrotrack/internal/dashboard"
	dashboardPostgres "github.com/frahmantamala/electrotrack/internal/dashboard/postgres"
	"github.com/frahmantamala/electrotrack/internal/lock"
	"github.com/frahmantamala/electrotrack/internal/material"
	materialPostgres "github.com/frahmantamala/electrotrack/internal/material/postgres"
	"github.com/frahmantamala/electrotrack/internal/metrics"
	"github.com/frahmantamala/electrotrack/internal/storage"
	"github.com/frahmantamala/electrotrack/internal/storage/s3store"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/internal/transport/rest"
	"github.com/frahmantamala/electrotrack/internal/user"
	userPostgres "github.com/frahmantamala/electrotrack/internal/user/postgres"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	"github.com/frahmantamala/electrotrack/internal/workreport"
	workreportPostgres "github.com/frahmantamala/electrotrack/internal/workreport/postgres"
	"github.com/frahmantamala/electrotrack/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close drains in-flight event handlers before releasing connections they
// may still use.
func (d *Dependencies) close() {
	d.EventBus.Wait()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()
	ctx := context.Background()

	if _, err := api.Load(ctx); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), internal.GormConfig(nil))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gormDB,
		EventBus: events.NewEventBus(lg),
		Router:   chi.NewRouter(),
	}

	checks := map[string]rest.Pinger{
		"postgres": rest.PingFunc(db.PingContext),
	}

	var locker lock.Locker = lock.Noop{}
	if config.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = client
		locker = lock.NewRedisLocker(client, lg)
		checks["redis"] = rest.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	var photos storage.Store
	if config.Storage.Enabled {
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:     config.Storage.Endpoint,
			Region:       config.Storage.Region,
			Bucket:       config.Storage.Bucket,
			AccessKey:    config.Storage.AccessKey,
			SecretKey:    config.Storage.SecretKey,
			UsePathStyle: config.Storage.UsePathStyle,
		}, lg)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		photos = store
		checks["s3"] = rest.PingFunc(store.Ping)
	} else {
		lg.Warn("photo storage disabled, material requests with photos will be rejected")
	}

	var m *metrics.Metrics
	if config.Observability.Metrics.Enabled {
		m = metrics.New(nil)
		m.Subscribe(deps.EventBus)
	}

	handlers := buildHandlers(deps, locker, photos)

	rest.RegisterAllRoutes(deps.Router, handlers, rest.Options{
		Logger:         lg,
		RBAC:           auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		Health:         rest.NewHealthHandler(checks),
		Metrics:        m,
		MetricsPath:    config.Observability.Metrics.Path,
		AllowedOrigins: config.Server.Origins(),
		OpenAPI:        api.Handler(),
	})

	return deps, nil
}

func buildHandlers(deps *Dependencies, locker lock.Locker, photos storage.Store) rest.Handlers {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	policy := auth.NewPolicy(lg)
	checker := auth.NewPermissionChecker()
	engine := workflow.NewEngine(policy, deps.EventBus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokenGen, lg)

	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), checker, cfg.Security.BCryptCost, lg)

	attendanceService := attendance.NewService(
		attendancePostgres.NewAttendanceRepository(deps.Gorm),
		attendancePostgres.NewStatusStore(deps.Gorm),
		engine, policy, checker, lg,
		attendance.WithLocker(locker, cfg.Redis.LockTTL),
		attendance.WithPublisher(deps.EventBus),
	)

	workReportService := workreport.NewService(
		workreportPostgres.NewWorkReportRepository(deps.Gorm),
		workreportPostgres.NewStatusStore(deps.Gorm),
		engine, policy, deps.EventBus, lg,
	)

	materialService := material.NewService(
		materialPostgres.NewMaterialRepository(deps.Gorm),
		materialPostgres.NewStatusStore(deps.Gorm),
		engine, policy, checker, photos, deps.EventBus, lg,
	)

	dashboardService := dashboard.NewService(dashboardPostgres.NewDashboardRepository(deps.DB), checker, lg)

	return rest.Handlers{
		Auth:       auth.NewHandler(base, authService, cfg.Security.CookieSecure),
		User:       user.NewHandler(base, userService),
		Attendance: attendance.NewHandler(base, attendanceService),
		WorkReport: workreport.NewHandler(base, workReportService),
		Material:   material.NewHandler(base, materialService, cfg.Storage.UploadLimit()),
		Dashboard:  dashboard.NewHandler(base, dashboardService),
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
