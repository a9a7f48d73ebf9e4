package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewatch/lib/errs"
	"pricewatch/lib/models"
)

const DefaultCategory = "General"

// Catalog maps search queries to a stable product identity.
type Catalog struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewCatalog(log *zap.Logger, db *gorm.DB) *Catalog {
	return &Catalog{log, db}
}

// ResolveOrCreate matches the query against existing product names
// (case-insensitive, substring in either direction) and creates a product named
// after the literal query when nothing matches. Two concurrent resolves of the
// same new name yield a single row: the insert is ON CONFLICT DO NOTHING
// against the unique name index, followed by a reload.
func (c *Catalog) ResolveOrCreate(ctx context.Context, query, category string) (*models.Product, error) {
	if category == "" {
		category = DefaultCategory
	}
	q := strings.ToLower(query)

	var match models.Product
	tx := c.db.WithContext(ctx).
		Where("instr(lower(name), ?) > 0 OR instr(?, lower(name)) > 0", q, q).
		Order("length(name) asc, id asc").
		First(&match)
	switch err := tx.Error; {
	case err == nil:
		return &match, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errs.Storage("resolve product", err)
	}

	product := &models.Product{Name: query, Category: category}
	tx = c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(product)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("create product", err)
	}

	// A concurrent resolve may have won the insert; reload by name either way.
	var created models.Product
	tx = c.db.WithContext(ctx).Where("lower(name) = ?", q).First(&created)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("reload product", err)
	}
	c.log.Sugar().Infof("Resolved %q to product %v (%s)", query, created.ID, created.Name)
	return &created, nil
}

func (c *Catalog) ListAll(ctx context.Context) (models.Products, error) {
	var products models.Products
	tx := c.db.WithContext(ctx).Order("id asc").Find(&products)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("list products", err)
	}
	return products, nil
}

func (c *Catalog) Find(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	tx := c.db.WithContext(ctx).First(&product, id)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	} else if err != nil {
		return nil, errs.Storage("find product", err)
	}
	return &product, nil
}

// ListStale returns products whose newest observation is older than cutoff,
// including products that have never been observed at all.
func (c *Catalog) ListStale(ctx context.Context, cutoff time.Time) (models.Products, error) {
	var products models.Products
	tx := c.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins("LEFT JOIN observations ON observations.product_id = products.id").
		Group("products.id").
		Having("max(observations.timestamp) IS NULL OR max(observations.timestamp) < ?", cutoff).
		Find(&products)
	if err := tx.Error; err != nil {
		return nil, errs.Storage("list stale products", err)
	}
	return products, nil
}
