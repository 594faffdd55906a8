package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/schoolrecords/internal/app/controllers"
	appMigrations "github.com/yigit/schoolrecords/internal/app/migrations"
	appRepos "github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/app/repositories/memory"
	appRoutes "github.com/yigit/schoolrecords/internal/app/routes"
	appServices "github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/config"
	"github.com/yigit/schoolrecords/internal/db"
	appMiddleware "github.com/yigit/schoolrecords/internal/middleware"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
	"github.com/yigit/schoolrecords/internal/pkg/redisclient"
	"github.com/yigit/schoolrecords/internal/pkg/websocket"
	"github.com/yigit/schoolrecords/internal/seed"
)

// Infrastructure holds the connections to backing services
type Infrastructure struct {
	Postgres *db.PostgresDB     // nil with the memory storage driver
	Redis    *redisclient.Redis // nil unless a component uses Redis
	Repos    *appRepos.Repositories
	Feed     changefeed.Feed
	KV       kvstore.Store
}

// Close releases every connection in reverse order of creation
func (i *Infrastructure) Close() error {
	var err error
	if i.Feed != nil {
		err = errors.Join(err, i.Feed.Close())
	}
	if i.Redis != nil {
		err = errors.Join(err, i.Redis.Close())
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
	return err
}

// Healthy pings the backing services
func (i *Infrastructure) Healthy(ctx context.Context) error {
	if i.Postgres != nil {
		if err := i.Postgres.Ping(ctx); err != nil {
			return apperrors.NewStoreUnavailableError("ping database", err)
		}
	}
	if i.Redis != nil && !i.Redis.Healthy(ctx) {
		return apperrors.NewStoreUnavailableError("ping redis", errors.New("no PONG"))
	}
	return nil
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services       *appServices.Services
	Handlers       appRoutes.Handlers
	AuthMiddleware *appMiddleware.AuthMiddleware
	LoginLimiter   *appMiddleware.TokenBucket
	Hub            *websocket.Hub
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	host, _ := os.Hostname()
	logger.ConfigureReporter(logger.ReporterConfig{
		Token:       cfg.Logging.RollbarToken,
		Environment: cfg.Logging.Environment,
		ServerHost:  host,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupInfrastructure connects the document store, Redis, the change feed and
// the key/value store selected by cfg.
func SetupInfrastructure(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}

	if err := setupStorage(ctx, cfg, infra, lgr); err != nil {
		return nil, err
	}

	if cfg.UsesRedis() {
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Connecting to Redis...")
		r, err := redisclient.New(ctx, redisclient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = r
	}

	switch cfg.ChangeFeed.Backend {
	case "redis":
		feed, err := changefeed.NewRedisFeed(ctx, infra.Redis.Client, cfg.ChangeFeed.Channel, lgr.With().Str("component", "changefeed").Logger())
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Feed = feed
	default:
		infra.Feed = changefeed.NewMemoryFeed(lgr.With().Str("component", "changefeed").Logger())
	}

	switch cfg.Session.Backend {
	case "redis":
		infra.KV = kvstore.NewRedisStore(infra.Redis.Client, "schoolrecords:session:")
	case "memory":
		infra.KV = kvstore.NewMemoryStore()
	default:
		store, err := kvstore.NewFileStore(cfg.Session.FilePath)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		infra.KV = store
	}

	lgr.Info().
		Str("storage", cfg.Storage.Driver).
		Str("changefeed", cfg.ChangeFeed.Backend).
		Str("session", cfg.Session.Backend).
		Msg("Infrastructure ready")
	return infra, nil
}

func setupStorage(ctx context.Context, cfg *config.Config, infra *Infrastructure, lgr zerolog.Logger) error {
	if cfg.Storage.Driver == "memory" {
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		infra.Repos = memory.NewRepositories(memory.Open())
		return nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)
	if err := migrator.Migrate(ctx, appMigrations.Files()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	infra.Postgres = database
	infra.Repos = appRepos.NewRepositories(database)
	return nil
}

// BuildDependencies initializes services, controllers and middleware.
func BuildDependencies(ctx context.Context, cfg *config.Config, infra *Infrastructure, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	sessions := pkgAuth.NewSessionManager()
	sessions.OnIdentityChange(func(_ context.Context, userID string, identity *pkgAuth.Identity) {
		if identity == nil {
			lgr.Info().Str("userID", userID).Msg("Signed out")
			return
		}
		lgr.Info().Str("userID", userID).Str("email", identity.Email).Msg("Signed in")
	})

	deps.Services = appServices.NewServices(appServices.Deps{
		Repos:      infra.Repos,
		Feed:       infra.Feed,
		KV:         infra.KV,
		JWT:        jwtService,
		Sessions:   sessions,
		BaseLogger: lgr,
	})

	defaults := seed.Defaults{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		AcademicYear:  cfg.Seed.AcademicYear,
	}
	if err := seed.CreateDefaultData(ctx, deps.Services, infra.Repos.UserRoles, defaults, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	svc := deps.Services
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(svc.Auth, svc.Authorization)
	deps.LoginLimiter = appMiddleware.NewTokenBucket(cfg.RateLimit.LoginBurst, cfg.RateLimit.LoginPerMinute)
	deps.Hub = websocket.NewHub(lgr.With().Str("component", "websocket").Logger())

	deps.Handlers = appRoutes.Handlers{
		Auth:          appControllers.NewAuthController(svc.Auth, svc.Users, lgr),
		Users:         appControllers.NewUserController(svc.Users),
		Students:      appControllers.NewStudentController(svc.Students, svc.Corrections, lgr),
		Corrections:   appControllers.NewCorrectionController(svc.Corrections),
		AcademicYears: appControllers.NewAcademicYearController(svc.AcademicYears, svc.YearSelector),
		Dashboard:     appControllers.NewDashboardController(svc.Dashboard),
		WebSocket:     websocket.NewHandler(deps.Hub, svc.Students, svc.Dashboard, svc.Corrections, lgr.With().Str("component", "websocket").Logger()),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, infra *Infrastructure, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}
	appMiddleware.ConfigureBinding()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr, "/ping", "/healthz", "/metrics"))
	router.Use(metrics.GinMiddleware())

	appRoutes.SetupRouter(router,
		deps.Handlers,
		deps.AuthMiddleware,
		deps.Services.YearSelector,
		deps.LoginLimiter,
		func(c *gin.Context) error { return infra.Healthy(c.Request.Context()) },
	)

	return router
}

// StartBackgroundJobs runs the websocket hub and purges expired token
// revocations every interval until ctx is done.
func StartBackgroundJobs(ctx context.Context, deps *Dependencies, interval time.Duration) {
	go deps.Hub.Run(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := deps.Services.Auth.PurgeRevokedTokens(ctx)
				if err != nil {
					logger.ReportError(err, "Failed to purge revoked tokens", nil)
					continue
				}
				if n > 0 {
					deps.Logger.Debug().Int64("purged", n).Msg("Expired token revocations removed")
				}
			}
		}
	}()
}
