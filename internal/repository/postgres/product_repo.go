package postgres

import (
	"context"

	"github.com/dom/techxchange/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *productRepository {
	return &productRepository{db: db}
}

// withSeller loads the owning user without the password hash.
func withSeller(db *gorm.DB) *gorm.DB {
	return db.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "email", "role", "created_at", "updated_at")
	})
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Seller").Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := withSeller(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	err := withSeller(r.db.WithContext(ctx)).Order("created_at DESC").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
