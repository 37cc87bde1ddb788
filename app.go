package main

import (
	"errors"
	"fmt"
	"time"

	"productapi/internal/config"
	"productapi/internal/database"
	"productapi/internal/handlers"
	"productapi/internal/metrics"
	"productapi/internal/middleware"
	"productapi/internal/repositories"
	"productapi/internal/services"
	"productapi/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators NewApp wires into the router.
type Dependencies struct {
	Products *services.ProductService
	// Ping reports store health for /health.
	Ping func() error
	Log  zerolog.Logger
}

// NewApp builds the Fiber application. It performs no I/O of its own.
func NewApp(cfg config.Config, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "productapi",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Log),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(deps.Log))
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			if err := deps.Ping(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unhealthy",
					"time":   time.Now().Format(time.RFC3339),
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	productHandler := handlers.NewProductHandler(deps.Products, deps.Log)
	productHandler.RegisterRoutes(app)

	return app
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes, in the same JSON shape the handlers use.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else {
			log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{
			"message": utils.StatusMessage(code),
			"error":   err.Error(),
		})
	}
}

// store bundles the repository with what is needed to prepare, check and
// release it.
type store struct {
	repo    repositories.ProductRepository
	migrate func() error
	ping    func() error
	close   func() error
}

// openStore opens the configured store without touching its schema; callers
// run st.migrate explicitly.
func openStore(cfg config.Config, log zerolog.Logger) (*store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return &store{
			repo:    repositories.NewMemoryProductRepository(),
			migrate: func() error { return nil },
			close:   func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}
	return &store{
		repo: repositories.NewGORMProductRepository(db),
		migrate: func() error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("product schema is up to date")
			return nil
		},
		ping:  func() error { return database.Ping(db) },
		close: sqlDB.Close,
	}, nil
}

// openPublisher connects to RabbitMQ when a URL is configured.
func openPublisher(cfg config.Config, log zerolog.Logger) (services.Publisher, func() error, error) {
	if cfg.RabbitMQURL == "" {
		log.Info().Msg("RABBITMQ_URL not set; product events are disabled")
		return services.NopPublisher{}, func() error { return nil }, nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("queue", cfg.RabbitMQQueue).Msg("publishing product events to RabbitMQ")
	return client, client.Close, nil
}
