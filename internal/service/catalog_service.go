package service

import (
	"context"
	"errors"
	"strconv"

	"shop-service/internal/models"
	"shop-service/internal/store"
)

// CatalogStore is the read-only persistence surface for products
type CatalogStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CatalogService exposes read-only product lookups. Catalog writes are
// an administrative concern outside this service.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListProducts returns the full catalog
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, storageErr("ListProducts", err)
	}
	return products, nil
}

// GetProduct returns a single product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, &NotFoundError{Resource: "product", Key: strconv.FormatInt(id, 10)}
		}
		return nil, storageErr("GetProduct", err)
	}
	return product, nil
}
