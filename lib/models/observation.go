package models

import "time"

// Observation is one recorded price for a product on a platform. Rows are
// append-only; price history is the sequence of observations over time.
type Observation struct {
	ID        uint `gorm:"primarykey"`
	ProductID uint `gorm:"index:idx_product_timestamp"`
	Platform  string
	Price     float64
	URL       string
	Timestamp time.Time `gorm:"index:idx_product_timestamp"`
}

type Observations []Observation
