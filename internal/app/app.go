package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joho/godotenv"

	"github.com/veltacap/custodian/internal/config"
	"github.com/veltacap/custodian/internal/env"
	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/file"
	"github.com/veltacap/custodian/internal/governance"
	"github.com/veltacap/custodian/internal/helper"
	"github.com/veltacap/custodian/internal/notify"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/seeder"
	"github.com/veltacap/custodian/internal/smtp"
	"github.com/veltacap/custodian/internal/stream"
)

// Application holds the shared services every request path reaches for.
type Application struct {
	Config        config.Config
	DB            repository.Database
	Logger        *slog.Logger
	Engine        *governance.Engine
	Mailer        *smtp.Mailer
	WG            sync.WaitGroup
	errorHandler  *errHandler.ErrorRepository
	helper        *helper.HelperRepository
	Kafka         *stream.KafkaStream
	Notifier      *notify.RedisNotifier
	DocumentStore *file.DocumentStore
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file.
	// Default values are for development mode only; make sure no
	// production-level value is exposed as a default here.
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if NOTIFICATIONS_EMAIL is unset
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Example Name <no_reply@example.org>")

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.DocumentStore.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.DocumentStore.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.DocumentStore.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")

	cfg.Seed.GovernorEmail = env.GetString("SEED_GOVERNOR_EMAIL", "")
	cfg.Seed.GovernorPassword = env.GetString("SEED_GOVERNOR_PASSWORD", "")
	cfg.Seed.DemoData = env.GetBool("SEED_DEMO_DATA", false)

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	kafkaStream, err := stream.New(cfg.KafkaServers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
	}

	notifier := notify.New(cfg.RedisServer, 0)

	documentStore := file.New(cfg.DocumentStore.CloudName, cfg.DocumentStore.ApiKey, cfg.DocumentStore.ApiSecret)

	engine := governance.New(db, logger, notifier, kafkaStream)

	app := &Application{
		Config:        cfg,
		DB:            db,
		Logger:        logger,
		Engine:        engine,
		Mailer:        mailer,
		Kafka:         kafkaStream,
		Notifier:      notifier,
		DocumentStore: documentStore,
	}

	app.helper = helper.New(&cfg.BaseURL, &app.WG, logger)
	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger, app.helper)

	seed := seeder.New(db, logger, cfg.Seed.GovernorEmail, cfg.Seed.GovernorPassword, cfg.Seed.DemoData)
	if err := seed.Run(); err != nil {
		return nil, fmt.Errorf("failed to run seeder: %w", err)
	}

	return app, nil
}
