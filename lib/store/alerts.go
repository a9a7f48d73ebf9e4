package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/lib/errs"
	"pricewatch/lib/models"
)

// AlertRegistry stores target-price watches. The registry only decides which
// alerts are notification-worthy; delivery is someone else's problem.
type AlertRegistry struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewAlertRegistry(log *zap.Logger, db *gorm.DB) *AlertRegistry {
	return &AlertRegistry{log, db}
}

func (r *AlertRegistry) Create(ctx context.Context, productID uint, targetPrice float64, userEmail string) (*models.Alert, error) {
	if targetPrice <= 0 {
		return nil, errs.Validationf("target_price must be positive, got %v", targetPrice)
	}
	if userEmail == "" {
		return nil, errs.Validationf("user_email is required")
	}

	var count int64
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("check product", err)
	}
	if count == 0 {
		return nil, errs.Validationf("product %d does not exist", productID)
	}

	alert := &models.Alert{ProductID: productID, TargetPrice: targetPrice, UserEmail: userEmail}
	tx = r.db.WithContext(ctx).Create(alert)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("create alert", err)
	}
	return alert, nil
}

// Due returns the alerts for a product satisfied by currentPrice that have not
// fired yet. This is the evaluation hook a notifier would call after each new
// observation.
func (r *AlertRegistry) Due(ctx context.Context, productID uint, currentPrice float64) (models.Alerts, error) {
	var alerts models.Alerts
	tx := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("target_price >= ?", currentPrice).
		Where("notified_at IS NULL").
		Order("id asc").
		Find(&alerts)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("load due alerts", err)
	}
	return alerts, nil
}

func (r *AlertRegistry) MarkNotified(ctx context.Context, alertIDs []uint, when time.Time) error {
	if len(alertIDs) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id IN ?", alertIDs).
		Update("notified_at", when)
	if err := tx.Error; err != nil {
		return errs.Storage("mark alerts notified", err)
	}
	return nil
}

func (r *AlertRegistry) ListForProduct(ctx context.Context, productID uint) (models.Alerts, error) {
	var alerts models.Alerts
	tx := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id asc").Find(&alerts)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("list alerts", err)
	}
	return alerts, nil
}
