package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-poi-recommender/app/db"
	"github.com/FACorreiaa/go-poi-recommender/config"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/candidate"
	generativeAI "github.com/FACorreiaa/go-poi-recommender/internal/api/generative_ai"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/radius"
	"github.com/FACorreiaa/go-poi-recommender/internal/api/recommendation"
)

// Container holds all application dependencies.
type Container struct {
	Config                *config.Config
	Logger                *slog.Logger
	Pool                  *pgxpool.Pool
	POIHandler            *poi.HandlerImpl
	RecommendationHandler *recommendation.HandlerImpl
}

// NewContainer initializes and returns a new dependency container.
// The reasoning client is optional: when it cannot be constructed the
// recommendation service still runs, falling back past the strict tier.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	recCfg := cfg.Recommendation

	poiRepo := poi.NewRepositoryImpl(pool, logger)
	poiService := poi.NewServiceImpl(poiRepo, recCfg.CacheTTL, logger)
	poiHandler := poi.NewHandlerImpl(poiService, logger)

	var aiClient generativeAI.Client
	client, err := generativeAI.NewAIClient(ctx, recCfg.Model)
	if err != nil {
		logger.Warn("Reasoning client unavailable, strict tier disabled", slog.Any("error", err))
	} else {
		aiClient = client
	}

	retriever := candidate.NewRetriever(poiService, recCfg, logger)
	processor := candidate.NewProcessor(recCfg.Scoring, logger)
	radiusPolicy := radius.NewPolicy(recCfg)

	recommendationService := recommendation.NewServiceImpl(
		recCfg, aiClient, poiService, retriever, processor, radiusPolicy, logger)
	recommendationHandler := recommendation.NewHandlerImpl(recommendationService, logger)

	return &Container{
		Config:                cfg,
		Logger:                logger,
		Pool:                  pool,
		POIHandler:            poiHandler,
		RecommendationHandler: recommendationHandler,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations.
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
