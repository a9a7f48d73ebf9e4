package models

import "gorm.io/gorm"

type Product struct {
	gorm.Model
	Name     string `gorm:"type:TEXT COLLATE NOCASE;uniqueIndex"` // search matching is case-insensitive
	Category string

	Observations []Observation
	Alerts       []Alert
}

type Products []Product
