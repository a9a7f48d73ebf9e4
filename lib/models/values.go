package models

// Quote is a single platform's current asking price for a product.
type Quote struct {
	Platform string
	Price    float64
	URL      string
}
