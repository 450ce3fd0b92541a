package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	"github.com/Skotchmaster/shirin_shop/internal/transport"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
)

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Index   ProductIndex
	Metrics *metrics.Metrics
}

// mapCatalogErr turns a missing row into notFound and a missing referenced
// category into ErrCategoryNotFound.
func mapCatalogErr(err, notFound error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, repo.ErrCategoryMissing):
		return ErrCategoryNotFound
	case errors.Is(err, repo.ErrCategoryInUse):
		return fmt.Errorf("category has products: %w", ErrConflict)
	default:
		return err
	}
}

func validateCategory(in transport.CategoryInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	return nil
}

func validateProduct(in transport.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price == nil || *in.Price < 0 {
		return fmt.Errorf("price must be non-negative: %w", ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("stock must be non-negative: %w", ErrValidation)
	}
	if in.CategoryID == 0 {
		return fmt.Errorf("category_id is required: %w", ErrValidation)
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, in transport.CategoryInput) (*models.Category, error) {
	if err := validateCategory(in); err != nil {
		return nil, err
	}
	var cat models.Category
	in.Apply(&cat)
	if err := s.Repo.CreateCategory(ctx, &cat); err != nil {
		return nil, err
	}
	s.publishCategory(ctx, "category_created", &cat)
	return &cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in transport.CategoryInput) (*models.Category, error) {
	if err := validateCategory(in); err != nil {
		return nil, err
	}
	cat, err := s.Repo.UpdateCategory(ctx, id, in.Apply)
	if err != nil {
		return nil, mapCatalogErr(err, ErrCategoryNotFound)
	}
	s.publishCategory(ctx, "category_updated", cat)
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return mapCatalogErr(err, ErrCategoryNotFound)
	}
	s.publishCategory(ctx, "category_deleted", &models.Category{ID: id})
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uint) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, categoryID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in transport.ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	var p models.Product
	in.Apply(&p)
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound)
	}
	s.indexProduct(ctx, &p)
	s.publishProduct(ctx, "product_created", &p)
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in transport.ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.Repo.UpdateProduct(ctx, id, in.Apply)
	if err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound)
	}
	s.indexProduct(ctx, p)
	s.publishProduct(ctx, "product_updated", p)
	return p, nil
}

// DeleteProduct also drops the product from every cart.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return mapCatalogErr(err, ErrProductNotFound)
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index", "status", "fail", "op", "delete", "product_id", id, "error", err)
		}
	}
	s.publishProduct(ctx, "product_deleted", &models.Product{ID: id})
	return nil
}

// SearchProducts uses the search index when configured and falls back to SQL
// matching when it is absent or failing.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query is required: %w", ErrValidation)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index", "status", "fail", "op", "search", "reason", "falling back to sql", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, errors.New("search index is not configured")
	}
	items, err := s.Repo.ListProducts(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (s *CatalogService) indexProduct(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index", "status", "fail", "op", "index", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publishCategory(ctx context.Context, typ string, c *models.Category) {
	publish(ctx, s.Events, s.Metrics, TopicProductEvents, "category:"+strconv.FormatUint(uint64(c.ID), 10), typ, map[string]any{
		"category_id": c.ID,
		"name":        c.Name,
	})
}

func (s *CatalogService) publishProduct(ctx context.Context, typ string, p *models.Product) {
	publish(ctx, s.Events, s.Metrics, TopicProductEvents, strconv.FormatUint(uint64(p.ID), 10), typ, map[string]any{
		"product_id":  p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"category_id": p.CategoryID,
	})
}
