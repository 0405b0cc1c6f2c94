package postgres

import (
	"context"

	"github.com/dom/techxchange/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func withReviewer(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username")
	})
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(review).Error)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	if err := withReviewer(r.db.WithContext(ctx)).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	var reviews []*domain.Review
	err := withReviewer(r.db.WithContext(ctx)).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
