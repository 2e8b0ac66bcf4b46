package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/samenactief/backend/internal/app/auth"
	appControllers "github.com/samenactief/backend/internal/app/controllers"
	appMigrations "github.com/samenactief/backend/internal/app/migrations"
	appRepos "github.com/samenactief/backend/internal/app/repositories"
	appRoutes "github.com/samenactief/backend/internal/app/routes"
	appServices "github.com/samenactief/backend/internal/app/services"
	"github.com/samenactief/backend/internal/config"
	"github.com/samenactief/backend/internal/db"
	appMiddleware "github.com/samenactief/backend/internal/middleware"
	pkgAuth "github.com/samenactief/backend/internal/pkg/auth"
	"github.com/samenactief/backend/internal/pkg/email"
	"github.com/samenactief/backend/internal/pkg/helpers"
	"github.com/samenactief/backend/internal/pkg/logger"
	"github.com/samenactief/backend/internal/pkg/notification"
	"github.com/samenactief/backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	LedgerService      appServices.LedgerService
	ActivityService    appServices.ActivityService
	ReminderService    appServices.ReminderService
	AuthService        appServices.AuthService
	AuthController     *appControllers.AuthController
	UserController     *appControllers.UserController
	ActivityController *appControllers.ActivityController
	LedgerController   *appControllers.LedgerController
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Repos              *appRepos.Repositories
	JWTService         *pkgAuth.JWTService
	AuthzService       *appAuth.AuthorizationService
	Dispatcher         *notification.Dispatcher
	Logger             zerolog.Logger

	// closeSender releases the sender behind the dispatcher, if it holds a connection
	closeSender func()
}

// Close drains queued notifications and releases the sender
func (d *Dependencies) Close(ctx context.Context) error {
	var err error
	if d.Dispatcher != nil {
		err = d.Dispatcher.Close(ctx)
	}
	if d.closeSender != nil {
		d.closeSender()
	}
	return err
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// CONFIG_PATH overrides the default configs/config.yaml.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default platform admin and demo center.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx, database.Pool, appRepos.NewRepositories(), lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// newSender picks the delivery channel for notifications. The returned
// close func is nil when the sender holds no connection.
func newSender(cfg *config.Config, lgr zerolog.Logger) (notification.Sender, func(), error) {
	n := cfg.Notification
	switch n.Driver {
	case config.DriverSMTP:
		return email.NewSMTPSender(email.SMTPConfig{
			Host:      n.SMTP.Host,
			Port:      n.SMTP.Port,
			Username:  n.SMTP.Username,
			Password:  n.SMTP.Password,
			FromName:  n.FromName,
			FromEmail: n.FromEmail,
			UseTLS:    n.SMTP.UseTLS,
		}), nil, nil
	case config.DriverSendGrid:
		return email.NewSendGridSender(n.SendGrid.APIKey, n.FromName, n.FromEmail), nil, nil
	case config.DriverAMQP:
		sender, err := notification.NewAMQPSender(n.AMQP.URL, n.AMQP.Exchange)
		if err != nil {
			return nil, nil, err
		}
		return sender, sender.Close, nil
	default:
		return notification.NewLogSender(lgr), nil, nil
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories()
	stores := appServices.StoresFromRepositories(deps.Repos)

	// Settings that can fail go first so a bad value never leaves workers running
	policy, err := appServices.ParsePromotionPolicy(cfg.Ledger.PromotionPolicy)
	if err != nil {
		return nil, err
	}

	sender, closeSender, err := newSender(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Notification.Driver).Msg("Failed to initialize notification sender")
		return nil, fmt.Errorf("failed to initialize notification sender: %w", err)
	}
	deps.closeSender = closeSender
	deps.Dispatcher = notification.NewDispatcher(sender, notification.Options{
		Workers:     cfg.Notification.Workers,
		QueueSize:   cfg.Notification.QueueSize,
		SendTimeout: helpers.ParseDuration(cfg.Notification.SendTimeout, 15*time.Second),
	}, lgr)
	deps.Dispatcher.Start()

	deps.AuthzService = appAuth.NewAuthorizationService()
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.LedgerService = appServices.NewLedgerService(
		database,
		database.Pool,
		stores,
		deps.Dispatcher,
		deps.AuthzService,
		appServices.LedgerOptions{Policy: policy},
		lgr,
	)
	deps.ActivityService = appServices.NewActivityService(
		database,
		database.Pool,
		stores,
		deps.LedgerService,
		deps.AuthzService,
		lgr,
	)
	deps.ReminderService = appServices.NewReminderService(database.Pool, stores)
	deps.AuthService = appServices.NewAuthService(database.Pool, stores, deps.JWTService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.UserController = appControllers.NewUserController(deps.AuthService, deps.ReminderService)
	deps.ActivityController = appControllers.NewActivityController(deps.ActivityService)
	deps.LedgerController = appControllers.NewLedgerController(deps.LedgerService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router, appRoutes.Controllers{
		Auth:     deps.AuthController,
		User:     deps.UserController,
		Activity: deps.ActivityController,
		Ledger:   deps.LedgerController,
	}, deps.AuthMiddleware)

	return router
}
