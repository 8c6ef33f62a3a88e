package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/veldt-labs/caresage/pkg/log"
)

// GetRuntimePath resolves the runtime directory before full config
// parsing, for the .env bootstrap.
func GetRuntimePath() string {
	if p := os.Getenv("CARESAGE_RUNTIME_PATH"); p != "" {
		return p
	}
	return ".caresage"
}

type AppConfig struct {
	RuntimePath string `env:"CARESAGE_RUNTIME_PATH" envDefault:".caresage"`
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`

	// Transport flags
	EnableCLI bool `env:"ENABLE_CLI" envDefault:"true"`

	// Memory tuning. WindowSize bounds the recent-turn window,
	// SummaryCadence is the block size for long-term digests,
	// RecallTopK is how many archived summaries are injected per turn.
	WindowSize     int `env:"MEMORY_WINDOW_SIZE" envDefault:"20"`
	SummaryCadence int `env:"SUMMARY_CADENCE" envDefault:"10"`
	RecallTopK     int `env:"RECALL_TOP_K" envDefault:"3"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "caresage.db")
}
