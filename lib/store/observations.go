package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/lib/errs"
	"pricewatch/lib/models"
)

// ObservationStore persists immutable price observations. Observations are
// insert-only; concurrent appends are serialized by the database.
type ObservationStore struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewObservationStore(log *zap.Logger, db *gorm.DB) *ObservationStore {
	return &ObservationStore{log, db}
}

func (s *ObservationStore) Record(ctx context.Context, productID uint, platform string, price float64, url string) (*models.Observation, error) {
	if price < 0 {
		return nil, errs.Validationf("price must be non-negative, got %v", price)
	}
	obs := &models.Observation{
		ProductID: productID,
		Platform:  platform,
		Price:     price,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}
	tx := s.db.WithContext(ctx).Create(obs)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("record observation", err)
	}
	return obs, nil
}

// Recent returns up to limit observations for the product, newest first. A
// product with no observations yields an empty slice, not an error.
func (s *ObservationStore) Recent(ctx context.Context, productID uint, limit int) (models.Observations, error) {
	var obs models.Observations
	tx := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&obs)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("load observations", err)
	}
	return obs, nil
}

// Trend returns the mean price per day for days inside the trailing window that
// have at least one observation, at most maxPoints most-recent days, ordered
// oldest to newest. Days without observations are skipped, not zero-filled.
func (s *ObservationStore) Trend(ctx context.Context, productID uint, windowDays, maxPoints int) ([]float64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	var rows []struct {
		Day  string
		Mean float64
	}
	tx := s.db.WithContext(ctx).
		Model(&models.Observation{}).
		Select("date(timestamp) AS day, avg(price) AS mean").
		Where("product_id = ? AND timestamp >= ?", productID, cutoff).
		Group("date(timestamp)").
		Order("day desc").
		Limit(maxPoints).
		Scan(&rows)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("load price trend", err)
	}

	// Rows arrive newest day first; callers want chronological order.
	points := make([]float64, len(rows))
	for i, row := range rows {
		points[len(rows)-1-i] = row.Mean
	}
	return points, nil
}
