package models

import (
	"database/sql"

	"gorm.io/gorm"
)

// Alert is a standing request to be told when a product's price falls to or
// below TargetPrice. NotifiedAt is set once the alert has been reported as due,
// so it fires at most once.
type Alert struct {
	gorm.Model
	ProductID   uint `gorm:"index"`
	TargetPrice float64
	UserEmail   string
	NotifiedAt  sql.NullTime
}

type Alerts []Alert
