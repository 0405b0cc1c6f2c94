package repository

import (
	"context"
	"errors"

	"github.com/dom/techxchange/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	// Create fails with ErrDuplicate when username or email is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetIdentity is GetByID without the password hash.
	GetIdentity(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// GetByID and List populate Seller.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	// ListByProduct populates User.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
}

type Repositories struct {
	User    UserRepository
	Product ProductRepository
	Review  ReviewRepository
}
