// Package aggregator reconciles per-platform price observations into the
// canonical "best price" view.
package aggregator

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/lib/errs"
	"pricewatch/lib/models"
)

// allPricesLimit caps how many observations Search returns per product.
const allPricesLimit = 100

type Aggregator struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewAggregator(log *zap.Logger, db *gorm.DB) *Aggregator {
	return &Aggregator{log, db}
}

type Deal struct {
	Product models.Product
	Best    models.Quote
}

type Match struct {
	Product      models.Product
	Best         *models.Quote
	Observations models.Observations
}

// BestPrice returns the minimum-price observation for a product; ties go to the
// most recent timestamp, then to the platform name ascending. A nil Quote means
// no observations yet, which callers must keep distinct from a zero price.
func (a *Aggregator) BestPrice(ctx context.Context, productID uint) (*models.Quote, error) {
	var obs models.Observation
	tx := a.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("price asc, timestamp desc, platform asc").
		First(&obs)
	switch err := tx.Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, errs.Storage("load best price", err)
	}
	return &models.Quote{Platform: obs.Platform, Price: obs.Price, URL: obs.URL}, nil
}

// Deals ranks products with at least one observation by their best price,
// ascending, truncated to limit.
func (a *Aggregator) Deals(ctx context.Context, limit int) ([]Deal, error) {
	var products models.Products
	tx := a.db.WithContext(ctx).Order("id asc").Find(&products)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("list products", err)
	}

	deals := make([]Deal, 0, len(products))
	for _, product := range products {
		best, err := a.BestPrice(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if best == nil {
			continue
		}
		deals = append(deals, Deal{Product: product, Best: *best})
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Best.Price < deals[j].Best.Price
	})
	if len(deals) > limit {
		deals = deals[:limit]
	}
	return deals, nil
}

// Search matches products whose name contains the query or whose name is
// contained in the query, case-insensitive. An unmatched query yields an empty
// result; there is no fallback product.
func (a *Aggregator) Search(ctx context.Context, query string) ([]Match, error) {
	q := strings.ToLower(query)

	var products models.Products
	tx := a.db.WithContext(ctx).
		Where("instr(lower(name), ?) > 0 OR instr(?, lower(name)) > 0", q, q).
		Order("id asc").
		Find(&products)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("search products", err)
	}

	matches := make([]Match, 0, len(products))
	for _, product := range products {
		best, err := a.BestPrice(ctx, product.ID)
		if err != nil {
			return nil, err
		}

		var obs models.Observations
		tx := a.db.WithContext(ctx).
			Where("product_id = ?", product.ID).
			Order("timestamp desc, id desc").
			Limit(allPricesLimit).
			Find(&obs)
		if err := tx.Error; err != nil {
			return nil, errs.Storage("load observations", err)
		}

		matches = append(matches, Match{Product: product, Best: best, Observations: obs})
	}
	return matches, nil
}
