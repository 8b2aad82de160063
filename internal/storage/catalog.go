package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
)

// Catalog operations (filesystem-backed, reviews from Redis)

func (r *RedisStorage) loadCatalog() ([]catalog.Product, error) {
	r.catalogOnce.Do(func() {
		path := filepath.Join(r.dataDir, "products.yaml")
		r.products, r.catalogErr = catalog.Load(path)
		if r.catalogErr != nil {
			r.logger.Error("Failed to load catalog", "path", path, "error", r.catalogErr)
			return
		}
		r.logger.Info("Catalog loaded", "path", path, "products", len(r.products))
	})
	return r.products, r.catalogErr
}

func (r *RedisStorage) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	products, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Product, len(products))
	for i, p := range products {
		reviews, err := r.ListReviews(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Reviews = reviews
		out[i] = p
	}
	return out, nil
}

func (r *RedisStorage) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	products, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	p, ok := catalog.Find(products, id)
	if !ok {
		return nil, nil
	}
	reviews, err := r.ListReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews
	return &p, nil
}

// Review operations (Redis-backed)

func reviewsKey(productID int) string {
	return "reviews:" + strconv.Itoa(productID)
}

func (r *RedisStorage) AddReview(ctx context.Context, productID int, review catalog.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}
	if err := r.client.RPush(ctx, reviewsKey(productID), data).Err(); err != nil {
		r.logger.Error("Failed to save review", "product_id", productID, "error", err)
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListReviews(ctx context.Context, productID int) ([]catalog.Review, error) {
	raw, err := r.client.LRange(ctx, reviewsKey(productID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	reviews := make([]catalog.Review, 0, len(raw))
	for _, item := range raw {
		var rev catalog.Review
		if err := json.Unmarshal([]byte(item), &rev); err != nil {
			r.logger.Warn("Skipping malformed review", "product_id", productID, "error", err)
			continue
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}
