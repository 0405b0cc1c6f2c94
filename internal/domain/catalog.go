package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is listed by a seller. SellerID is the owning user.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Category    string    `json:"category" gorm:"index;not null"`
	Price       float64   `json:"price" gorm:"not null;check:price >= 0"`
	SellerID    uuid.UUID `json:"sellerId" gorm:"type:uuid;index;not null"`
	Seller      *User     `json:"-" gorm:"foreignKey:SellerID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Review is written by an authenticated user about a product.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;index;not null"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;index;not null"`
	User       *User     `json:"-" gorm:"foreignKey:UserID"`
	Rating     int       `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	ReviewText string    `json:"reviewText" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)
