package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pricewatch/lib/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Observation{}, &models.Alert{}))
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()

	product := &models.Product{Name: name, Category: "General"}
	require.NoError(t, db.Create(product).Error)
	return product
}

func observe(t *testing.T, db *gorm.DB, productID uint, platform string, price float64, at time.Time) {
	t.Helper()

	obs := &models.Observation{
		ProductID: productID,
		Platform:  platform,
		Price:     price,
		URL:       "https://" + platform,
		Timestamp: at,
	}
	require.NoError(t, db.Create(obs).Error)
}

func TestBestPriceIsMinimum(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "phone")
	now := time.Now().UTC()

	observe(t, db, product.ID, "Amazon", 29999, now)
	observe(t, db, product.ID, "Flipkart", 27999, now)
	observe(t, db, product.ID, "eBay", 28500, now)

	best, err := agg.BestPrice(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 27999.0, best.Price)
	assert.Equal(t, "Flipkart", best.Platform)
}

func TestBestPriceTieBreaks(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(zap.NewNop(), db)
	ctx := context.Background()

	product := createProduct(t, db, "keyboard")
	now := time.Now().UTC().Truncate(time.Second)

	// Equal price: the most recent observation wins.
	observe(t, db, product.ID, "Amazon", 5000, now.Add(-time.Hour))
	observe(t, db, product.ID, "eBay", 5000, now)

	best, err := agg.BestPrice(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "eBay", best.Platform)

	// Equal price and timestamp: platform name ascending wins.
	observe(t, db, product.ID, "Flipkart", 5000, now)
	best, err = agg.BestPrice(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "Flipkart", best.Platform)
}

func TestBestPriceAbsentWithoutObservations(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(zap.NewNop(), db)

	product := createProduct(t, db, "laptop")

	best, err := agg.BestPrice(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestDealsSortedAndBounded(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(zap.NewNop(), db)
	ctx := context.Background()

	now := time.Now().UTC()
	phone := createProduct(t, db, "phone")
	monitor := createProduct(t, db, "monitor")
	headphones := createProduct(t, db, "headphones")
	createProduct(t, db, "never observed")

	observe(t, db, phone.ID, "Flipkart", 27999, now)
	observe(t, db, monitor.ID, "Flipkart", 14999, now)
	observe(t, db, monitor.ID, "Amazon", 15999, now)
	observe(t, db, headphones.ID, "Flipkart", 3499, now)

	deals, err := agg.Deals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, deals, 3) // the unobserved product is excluded
	assert.Equal(t, headphones.ID, deals[0].Product.ID)
	assert.Equal(t, monitor.ID, deals[1].Product.ID)
	assert.Equal(t, phone.ID, deals[2].Product.ID)
	for i := 1; i < len(deals); i++ {
		assert.LessOrEqual(t, deals[i-1].Best.Price, deals[i].Best.Price)
	}

	deals, err = agg.Deals(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, deals, 2)
}

func TestSearchContainsEitherDirection(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(zap.NewNop(), db)
	ctx := context.Background()

	now := time.Now().UTC()
	laptop := createProduct(t, db, "gaming laptop")
	observe(t, db, laptop.ID, "Amazon", 45999, now)

	// Query contained in product name.
	matches, err := agg.Search(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, laptop.ID, matches[0].Product.ID)
	require.NotNil(t, matches[0].Best)
	assert.Equal(t, 45999.0, matches[0].Best.Price)
	assert.Len(t, matches[0].Observations, 1)

	// Product name contained in query.
	matches, err = agg.Search(ctx, "cheap GAMING LAPTOP under 50k")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// No match yields an empty result, never a substitute product.
	matches, err = agg.Search(ctx, "toaster")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
