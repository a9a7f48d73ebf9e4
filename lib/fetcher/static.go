package fetcher

import (
	"context"
	"strings"

	"pricewatch/lib/models"
)

// priceBook is the built-in per-platform listing used when no live target is
// configured for a platform. Keys are platform name, then lowercased product
// name.
var priceBook = map[string]map[string]models.Quote{
	"Amazon": {
		"laptop":     {Platform: "Amazon", Price: 45999, URL: "https://amazon.in"},
		"phone":      {Platform: "Amazon", Price: 29999, URL: "https://amazon.in"},
		"headphones": {Platform: "Amazon", Price: 3999, URL: "https://amazon.in"},
		"monitor":    {Platform: "Amazon", Price: 15999, URL: "https://amazon.in"},
		"keyboard":   {Platform: "Amazon", Price: 5999, URL: "https://amazon.in"},
	},
	"Flipkart": {
		"laptop":     {Platform: "Flipkart", Price: 43999, URL: "https://flipkart.com"},
		"phone":      {Platform: "Flipkart", Price: 27999, URL: "https://flipkart.com"},
		"headphones": {Platform: "Flipkart", Price: 3499, URL: "https://flipkart.com"},
		"monitor":    {Platform: "Flipkart", Price: 14999, URL: "https://flipkart.com"},
		"keyboard":   {Platform: "Flipkart", Price: 4999, URL: "https://flipkart.com"},
	},
	"eBay": {
		"laptop":     {Platform: "eBay", Price: 44500, URL: "https://ebay.com"},
		"phone":      {Platform: "eBay", Price: 28500, URL: "https://ebay.com"},
		"headphones": {Platform: "eBay", Price: 3800, URL: "https://ebay.com"},
		"monitor":    {Platform: "eBay", Price: 15500, URL: "https://ebay.com"},
		"keyboard":   {Platform: "eBay", Price: 5500, URL: "https://ebay.com"},
	},
}

// staticFetcher serves the fixed price book. Deterministic, never fails.
type staticFetcher struct {
	base
	platform string
}

func (f *staticFetcher) Fetch(ctx context.Context, productName string) (*models.Quote, error) {
	listings, ok := priceBook[f.platform]
	if !ok {
		return nil, nil
	}
	quote, ok := listings[strings.ToLower(productName)]
	if !ok {
		return nil, nil
	}
	return &quote, nil
}
