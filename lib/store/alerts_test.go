package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricewatch/lib/errs"
	"pricewatch/lib/models"
)

func TestCreateAlertValidation(t *testing.T) {
	db := openTestDB(t)
	registry := NewAlertRegistry(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "phone")

	var validationErr *errs.ValidationError

	_, err := registry.Create(ctx, product.ID, 0, "x@example.com")
	assert.ErrorAs(t, err, &validationErr)

	_, err = registry.Create(ctx, product.ID, -50, "x@example.com")
	assert.ErrorAs(t, err, &validationErr)

	_, err = registry.Create(ctx, product.ID, 100, "")
	assert.ErrorAs(t, err, &validationErr)

	// Unknown product leaves no row behind.
	_, err = registry.Create(ctx, 7, 100, "x@example.com")
	assert.ErrorAs(t, err, &validationErr)

	var count int64
	require.NoError(t, db.Model(&models.Alert{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateAlert(t *testing.T) {
	db := openTestDB(t)
	registry := NewAlertRegistry(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "headphones")

	alert, err := registry.Create(ctx, product.ID, 3500, "x@example.com")
	require.NoError(t, err)
	assert.NotZero(t, alert.ID)
	assert.False(t, alert.NotifiedAt.Valid)
}

func TestDueAndMarkNotified(t *testing.T) {
	db := openTestDB(t)
	registry := NewAlertRegistry(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "monitor")

	satisfied, err := registry.Create(ctx, product.ID, 15000, "cheap@example.com")
	require.NoError(t, err)
	_, err = registry.Create(ctx, product.ID, 10000, "cheaper@example.com")
	require.NoError(t, err)

	due, err := registry.Due(ctx, product.ID, 14999)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, satisfied.ID, due[0].ID)

	require.NoError(t, registry.MarkNotified(ctx, []uint{satisfied.ID}, time.Now().UTC()))

	// A fired alert is never reported again.
	due, err = registry.Due(ctx, product.ID, 14999)
	require.NoError(t, err)
	assert.Empty(t, due)

	alerts, err := registry.ListForProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.True(t, alerts[0].NotifiedAt.Valid)
	assert.False(t, alerts[1].NotifiedAt.Valid)
}

func TestDueAtExactTargetPrice(t *testing.T) {
	db := openTestDB(t)
	registry := NewAlertRegistry(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "keyboard")

	alert, err := registry.Create(ctx, product.ID, 4999, "x@example.com")
	require.NoError(t, err)

	// target_price >= current_price, so the boundary fires.
	due, err := registry.Due(ctx, product.ID, 4999)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, alert.ID, due[0].ID)
}
