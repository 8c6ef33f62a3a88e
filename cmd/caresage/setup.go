package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
	"github.com/veldt-labs/caresage/internal/providers/llm"
	"github.com/veldt-labs/caresage/internal/service/extract"
	"github.com/veldt-labs/caresage/internal/service/intent"
	"github.com/veldt-labs/caresage/internal/service/memory"
	"github.com/veldt-labs/caresage/internal/service/orchestrator"
	"github.com/veldt-labs/caresage/internal/service/respond"
	"github.com/veldt-labs/caresage/internal/storage/sqlite"
	"github.com/veldt-labs/caresage/internal/transport/cli"
	"github.com/veldt-labs/caresage/pkg/log"
	"github.com/veldt-labs/caresage/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	gwCfg := config.NewGatewayConfig(ctx)

	// 2. Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	turnsRepo := sqlite.NewTurnsRepo(db)
	factsRepo := sqlite.NewFactsRepo(db)
	sumRepo := sqlite.NewSummariesRepo(db)
	profilesRepo := sqlite.NewProfilesRepo(db)

	// 3. Model provider
	generator, err := llm.NewProvider(ctx, appCfg.LLMProvider, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	embedder, err := llm.NewEmbedder(ctx, appCfg.LLMProvider, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embeddings provider")
	}

	// 4. Knowledge gateway
	gw := gateway.New(gwCfg)

	// 5. Memory tiers and the background summarizer
	mem := memory.New(appCfg, turnsRepo, sumRepo, embedder)
	summarizer := memory.NewSummarizer(generator, embedder, sumRepo)
	services = append(services, summarizer)

	// 6. Turn pipeline
	orch := orchestrator.New(
		appCfg,
		turnsRepo,
		factsRepo,
		sumRepo,
		profilesRepo,
		mem,
		intent.NewClassifier(generator),
		respond.NewRegistry(generator, gw, factsRepo),
		extract.NewExtractor(generator),
		summarizer,
	)

	// 7. Transports
	if appCfg.EnableCLI {
		readLine, err := cli.NewReadLine(orch, appCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize CLI transport")
		}
		services = append(services, readLine)
	}

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, err
	}
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
