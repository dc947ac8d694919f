package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"knowdex/internal/ai"
	"knowdex/internal/config"
	"knowdex/internal/platform/database"
	rabbitmqClient "knowdex/internal/platform/rabbitmq"
	redisClient "knowdex/internal/platform/redis"
	"knowdex/internal/repository"
	"knowdex/internal/worker"
)

// App holds the process wide resources shared by the HTTP layer. Redis, MQConn
// and AuditWorker are nil when their feature is not configured.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	AuditWorker *worker.LLMAuditWorker
	Providers   *ai.Registry

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (app *App, err error) {
	app = &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			if closeErr := app.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("release partially initialised resources failed")
			}
			app = nil
		}
	}()

	app.DB, err = database.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return app, err
	}
	if err = database.Migrate(app.DB); err != nil {
		return app, err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	app.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return app, err
	}
	if app.Redis == nil {
		log.Info().Msg("redis not configured, history cache disabled")
	}

	app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return app, err
	}
	if app.MQConn != nil {
		app.AuditWorker = worker.NewLLMAuditWorker(app.MQConn, repository.NewLLMCallRepository(app.DB), cfg.RabbitMQ.AuditQueue, log)
		if err = app.AuditWorker.Start(ctx); err != nil {
			return app, fmt.Errorf("start audit worker failed: %w", err)
		}
	} else {
		log.Info().Msg("rabbitmq not configured, llm audit disabled")
	}

	app.Providers = NewProviders(cfg.LLM)
	return app, nil
}

// NewProviders registers every supported LLM provider. Missing API keys are
// reported by the provider at call time.
func NewProviders(cfg config.LLMConfig) *ai.Registry {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return ai.NewRegistry(cfg.DefaultProvider,
		ai.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, timeout),
		ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel),
	)
}

func (a *App) Close() error {
	var errs []error
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
