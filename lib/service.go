package lib

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pricewatch/config"
	"pricewatch/lib/aggregator"
	"pricewatch/lib/models"
	"pricewatch/lib/poller"
	"pricewatch/lib/store"
)

type Service struct {
	cfg *config.Config
	log *zap.Logger

	catalog      *store.Catalog
	observations *store.ObservationStore
	alerts       *store.AlertRegistry
	agg          *aggregator.Aggregator

	*searchProducts
	*createAlert
}

func NewService(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	catalog *store.Catalog,
	observations *store.ObservationStore,
	alerts *store.AlertRegistry,
	agg *aggregator.Aggregator,
	fetchJobs *poller.Poller,
) *Service {
	return &Service{
		cfg, log, catalog, observations, alerts, agg,
		&searchProducts{log, catalog, agg, fetchJobs},
		&createAlert{log, alerts},
	}
}

// ProductSummary is one catalog entry with its current best price (nil when
// the product has no observations yet) and bounded price trend.
type ProductSummary struct {
	Product models.Product
	Best    *models.Quote
	Trend   []float64
}

func (svc *Service) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	products, err := svc.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, product := range products {
		best, err := svc.agg.BestPrice(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		trend, err := svc.observations.Trend(ctx, product.ID, svc.cfg.TrendWindowDays, svc.cfg.TrendMaxPoints)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ProductSummary{Product: product, Best: best, Trend: trend})
	}
	return summaries, nil
}

// ProductDetail is everything known about one product's prices.
type ProductDetail struct {
	Product      models.Product
	Observations models.Observations
	Best         *models.Quote
}

func (svc *Service) ProductPrices(ctx context.Context, productID uint) (*ProductDetail, error) {
	product, err := svc.catalog.Find(ctx, productID)
	if err != nil {
		return nil, err
	}

	obs, err := svc.observations.Recent(ctx, productID, 100)
	if err != nil {
		return nil, err
	}
	best, err := svc.agg.BestPrice(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &ProductDetail{Product: *product, Observations: obs, Best: best}, nil
}

func (svc *Service) BestDeals(ctx context.Context) ([]aggregator.Deal, error) {
	return svc.agg.Deals(ctx, svc.cfg.DealsLimit)
}
