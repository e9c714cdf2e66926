package main

import (
	"fmt"
	"os"

	"github.com/franciscosanchezn/partstock/internal/auth"
	"github.com/franciscosanchezn/partstock/internal/config"
	"github.com/franciscosanchezn/partstock/internal/controllers"
	"github.com/franciscosanchezn/partstock/internal/database"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/franciscosanchezn/partstock/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// app holds every wired component. Commands build one and use the parts
// they need.
type app struct {
	cfg *config.Config
	db  *gorm.DB

	olxAuth   *olx.AuthManager
	olxConfig *olx.ConfigReader
	oauth     *auth.OAuthService

	catalog services.CatalogService
	drafts  services.DraftService
	publish services.PublishService
	adverts services.AdvertService
	users   services.UserService
	clients services.ClientService
	photos  services.PhotoService
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// bootstrap reads configuration, sets log levels and wires the app.
func bootstrap() (*app, error) {
	loadDotenvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level, err := logLevel(cfg)
	if err != nil {
		return nil, err
	}
	setLogLevels(level)

	return newApp(cfg)
}

// logLevel derives the level from APP_ENV unless LOG_LEVEL is set.
func logLevel(cfg *config.Config) (logrus.Level, error) {
	if os.Getenv("LOG_LEVEL") == "" {
		return config.LevelForEnvironment(cfg.Environment), nil
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func setLogLevels(level logrus.Level) {
	log.SetLevel(level)
	auth.SetLogLevel(level)
	controllers.SetLogLevel(level)
	database.SetLogLevel(level)
	olx.SetLogLevel(level)
	services.SetLogLevel(level)
	storage.SetLogLevel(level)
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   cfg.DBDriver,
		URL:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	client := olx.NewClient(olx.ClientOptions{
		Endpoints: olx.Endpoints{
			APIBaseURL:   cfg.OLX.APIBaseURL,
			TokenURL:     cfg.OLX.TokenURL,
			AuthorizeURL: cfg.OLX.AuthorizeURL,
		},
		UserAgent:     cfg.OLX.UserAgent,
		SubmitTimeout: cfg.OLX.SubmitTimeout,
		CheckTimeout:  cfg.OLX.CheckTimeout,
		RateLimit:     cfg.OLX.RateLimitRPS,
	})
	olxAuth := olx.NewAuthManager(client, olx.NewGormTokenStore(db), olx.Credentials{
		ClientID:     cfg.OLX.ClientID,
		ClientSecret: cfg.OLX.ClientSecret,
		RedirectURI:  cfg.OLX.RedirectURI,
	})

	catalog := services.NewCatalogService(db)
	payloads := olx.NewPayloadBuilder(olx.ListingDefaults{
		CategoryID:    cfg.OLX.CategoryID,
		CityID:        cfg.OLX.CityID,
		ContactName:   cfg.OLX.ContactName,
		ContactPhone:  cfg.OLX.ContactPhone,
		VATMultiplier: cfg.OLX.VATMultiplier,
		PhotoBaseURL:  cfg.Photos.BaseURL,
	}, catalog)

	staging := storage.NewPhotoStaging(cfg.Photos.StagingDir)

	return &app{
		cfg:       cfg,
		db:        db,
		olxAuth:   olxAuth,
		olxConfig: olx.NewConfigReader(client, olxAuth),
		oauth:     auth.NewOAuthService(db, cfg.JWTSecret),
		catalog:   catalog,
		drafts:    services.NewDraftService(db),
		publish:   services.NewPublishService(db, catalog, olxAuth, client, payloads, staging),
		adverts:   services.NewAdvertService(db, olxAuth, client),
		users:     services.NewUserService(db),
		clients:   services.NewClientService(db),
		photos:    services.NewPhotoService(db, staging),
	}, nil
}

// Close releases the database connection.
func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("Closing database failed")
	}
}
