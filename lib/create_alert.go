package lib

import (
	"context"

	"go.uber.org/zap"

	"pricewatch/lib/models"
	"pricewatch/lib/store"
)

type createAlert struct {
	log    *zap.Logger
	alerts *store.AlertRegistry
}

func (svc *createAlert) CreateAlert(ctx context.Context, productID uint, targetPrice float64, userEmail string) (*models.Alert, error) {
	alert, err := svc.alerts.Create(ctx, productID, targetPrice, userEmail)
	if err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Created alert %v: product %v at or below %.2f for %s", alert.ID, productID, targetPrice, userEmail)
	return alert, nil
}
