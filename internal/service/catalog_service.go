package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrMissingProductFields = domain.NewError(domain.ErrValidation, "All fields are required")
	ErrInvalidPrice         = domain.NewError(domain.ErrValidation, "Price must be greater than zero")
	ErrMissingReviewFields  = domain.NewError(domain.ErrValidation, "All fields are required")
	ErrInvalidRating        = domain.NewError(domain.ErrValidation,
		fmt.Sprintf("Rating must be between %d and %d", domain.MinRating, domain.MaxRating))

	ErrProductNotFound = domain.NewError(domain.ErrNotFound, "Product not found")
	ErrSellerNotFound  = domain.NewError(domain.ErrNotFound, "Seller not found")
)

// CatalogService is the product/seller/review glue behind the Gate.
type CatalogService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
}

func NewCatalogService(productRepo repository.ProductRepository, reviewRepo repository.ReviewRepository, userRepo repository.UserRepository) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
	}
}

type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Price       float64
}

type CreateReviewInput struct {
	ProductID  uuid.UUID
	Rating     int
	ReviewText string
}

type ProductDetail struct {
	Product *domain.Product
	Reviews []*domain.Review
}

type SellerDetail struct {
	Seller   *domain.User
	Products []*domain.Product
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return &ProductDetail{Product: product, Reviews: reviews}, nil
}

// CreateProduct lists a product owned by seller. Ownership comes from the
// authenticated identity, never from the request body.
func (s *CatalogService) CreateProduct(ctx context.Context, seller *domain.User, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)

	if name == "" || description == "" || category == "" || input.Price == 0 {
		return nil, ErrMissingProductFields
	}
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Category:    category,
		Price:       input.Price,
		SellerID:    seller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	product.Seller = seller
	return product, nil
}

func (s *CatalogService) ListSellers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListByRole(ctx, domain.RoleSeller)
}

func (s *CatalogService) GetSeller(ctx context.Context, id uuid.UUID) (*SellerDetail, error) {
	seller, err := s.userRepo.GetIdentity(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	if seller.Role != domain.RoleSeller {
		return nil, ErrSellerNotFound
	}

	products, err := s.productRepo.ListBySeller(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}

	return &SellerDetail{Seller: seller, Products: products}, nil
}

// CreateReview records a review by author. The reviewer is always the
// authenticated identity.
func (s *CatalogService) CreateReview(ctx context.Context, author *domain.User, input CreateReviewInput) (*domain.Review, error) {
	text := strings.TrimSpace(input.ReviewText)
	if input.ProductID == uuid.Nil || input.Rating == 0 || text == "" {
		return nil, ErrMissingReviewFields
	}
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, ErrInvalidRating
	}

	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	now := time.Now()
	review := &domain.Review{
		ID:         uuid.New(),
		ProductID:  input.ProductID,
		UserID:     author.ID,
		Rating:     input.Rating,
		ReviewText: text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	review.User = author
	return review, nil
}
