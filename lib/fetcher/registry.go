// Package fetcher holds the per-platform price retrieval adapters.
package fetcher

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pricewatch/config"
	"pricewatch/lib/models"
)

// Fetcher looks up the current price of a product on one platform. A nil Quote
// with a nil error means the platform has no listing. Fetchers fail soft:
// network and parse failures are logged and reported as absent, never
// propagated, so one platform's failure never blocks the others.
type Fetcher interface {
	Fetch(ctx context.Context, productName string) (*models.Quote, error)
}

type Registry map[string]Fetcher

func NewRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}

	registry := Registry{}
	for platform := range priceBook {
		registry[platform] = &staticFetcher{base: base, platform: platform}
	}
	for _, target := range cfg.Targets() {
		// A configured live target overrides the built-in platform of the same name.
		registry[target.Platform] = &xpathFetcher{base: base, target: target}
	}
	return registry
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
