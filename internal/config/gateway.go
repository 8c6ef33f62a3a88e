package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/veldt-labs/caresage/pkg/log"
)

type GatewayConfig struct {
	DrugFactsBaseURL      string `env:"OPENFDA_BASE_URL" envDefault:"https://api.fda.gov"`
	RxNormBaseURL         string `env:"RXNORM_BASE_URL" envDefault:"https://rxnav.nlm.nih.gov"`
	LiteratureBaseURL     string `env:"PUBMED_BASE_URL" envDefault:"https://eutils.ncbi.nlm.nih.gov"`
	ConditionCodesBaseURL string `env:"ICD10_BASE_URL" envDefault:"https://clinicaltables.nlm.nih.gov"`
	DocumentTextBaseURL   string `env:"DOCTEXT_BASE_URL" envDefault:"http://localhost:8090"`

	CallTimeout time.Duration `env:"GATEWAY_CALL_TIMEOUT" envDefault:"10s"`
	CacheTTL    time.Duration `env:"GATEWAY_CACHE_TTL" envDefault:"5m"`
}

func NewGatewayConfig(ctx context.Context) *GatewayConfig {
	c := &GatewayConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Gateway config")
	}
	return c
}
