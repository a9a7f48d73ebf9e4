package app

import (
	"time"

	"pricewatch/lib"
	"pricewatch/lib/aggregator"
	"pricewatch/lib/models"
)

type PriceView struct {
	Platform  string  `json:"platform"`
	Price     float64 `json:"price"`
	URL       string  `json:"url"`
	Timestamp string  `json:"timestamp"`
}

func (view PriceView) From(entity models.Observation) PriceView {
	return PriceView{
		Platform:  entity.Platform,
		Price:     entity.Price,
		URL:       entity.URL,
		Timestamp: entity.Timestamp.UTC().Format(time.RFC3339),
	}
}

type SearchResultView struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	LowestPrice float64     `json:"lowest_price"`
	Platform    string      `json:"platform"`
	URL         string      `json:"url"`
	AllPrices   []PriceView `json:"all_prices"`
}

func (view SearchResultView) From(match aggregator.Match) SearchResultView {
	v := SearchResultView{
		ID:        match.Product.ID,
		Name:      match.Product.Name,
		AllPrices: FromMany[models.Observation, PriceView](match.Observations),
	}
	if match.Best != nil {
		v.LowestPrice = match.Best.Price
		v.Platform = match.Best.Platform
		v.URL = match.Best.URL
	}
	return v
}

type PendingSearchView struct {
	ProductID uint   `json:"product_id"`
	Query     string `json:"query"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

func (view PendingSearchView) From(pending *lib.PendingSearch) PendingSearchView {
	return PendingSearchView{
		ProductID: pending.ProductID,
		Query:     pending.Query,
		JobID:     pending.JobID.String(),
		Status:    "in_progress",
	}
}

type ProductView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	LowestPrice *float64  `json:"lowest_price"`
	Platform    *string   `json:"platform"`
	URL         *string   `json:"url"`
	PriceTrend  []float64 `json:"price_trend"`
}

func (view ProductView) From(summary lib.ProductSummary) ProductView {
	v := ProductView{
		ID:         summary.Product.ID,
		Name:       summary.Product.Name,
		Category:   summary.Product.Category,
		PriceTrend: summary.Trend,
	}
	if summary.Trend == nil {
		v.PriceTrend = []float64{}
	}
	if summary.Best != nil {
		v.LowestPrice = &summary.Best.Price
		v.Platform = &summary.Best.Platform
		v.URL = &summary.Best.URL
	}
	return v
}

type ProductPricesView struct {
	ProductID   uint        `json:"product_id"`
	ProductName string      `json:"product_name"`
	Prices      []PriceView `json:"prices"`
	LowestPrice *float64    `json:"lowest_price"`
}

func (view ProductPricesView) From(detail *lib.ProductDetail) ProductPricesView {
	v := ProductPricesView{
		ProductID:   detail.Product.ID,
		ProductName: detail.Product.Name,
		Prices:      FromMany[models.Observation, PriceView](detail.Observations),
	}
	if detail.Best != nil {
		v.LowestPrice = &detail.Best.Price
	}
	return v
}

type DealView struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Platform string  `json:"platform"`
	URL      string  `json:"url"`
}

func (view DealView) From(deal aggregator.Deal) DealView {
	return DealView{
		ID:       deal.Product.ID,
		Name:     deal.Product.Name,
		Category: deal.Product.Category,
		Price:    deal.Best.Price,
		Platform: deal.Best.Platform,
		URL:      deal.Best.URL,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}
