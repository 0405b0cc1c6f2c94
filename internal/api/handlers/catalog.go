package handlers

import (
	"net/http"
	"time"

	"github.com/dom/techxchange/internal/api/respond"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

type CreateReviewRequest struct {
	ProductID  string `json:"productId"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// SellerSummary is the seller projection populated into products.
type SellerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ReviewerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ProductResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	SellerID    string         `json:"sellerId"`
	Seller      *SellerSummary `json:"seller,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ReviewResponse struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"productId"`
	Rating     int              `json:"rating"`
	ReviewText string           `json:"reviewText"`
	User       *ReviewerSummary `json:"user,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type ProductDetailResponse struct {
	ProductResponse
	Reviews []ReviewResponse `json:"reviews"`
}

type SellerResponse struct {
	SellerSummary
	CreatedAt time.Time `json:"createdAt"`
}

type SellerDetailResponse struct {
	SellerResponse
	Products []ProductResponse `json:"products"`
}

func newSellerSummary(u *domain.User) *SellerSummary {
	if u == nil {
		return nil
	}
	return &SellerSummary{ID: u.ID.String(), Username: u.Username, Email: u.Email}
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		SellerID:    p.SellerID.String(),
		Seller:      newSellerSummary(p.Seller),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newReviewResponse(rv *domain.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:         rv.ID.String(),
		ProductID:  rv.ProductID.String(),
		Rating:     rv.Rating,
		ReviewText: rv.ReviewText,
		CreatedAt:  rv.CreatedAt,
	}
	if rv.User != nil {
		resp.User = &ReviewerSummary{ID: rv.User.ID.String(), Username: rv.User.Username}
	}
	return resp
}

func newSellerResponse(u *domain.User) SellerResponse {
	return SellerResponse{SellerSummary: *newSellerSummary(u), CreatedAt: u.CreatedAt}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respond.Error(w, r, notFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", service.ErrProductNotFound)
	if !ok {
		return
	}

	detail, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := ProductDetailResponse{
		ProductResponse: newProductResponse(detail.Product),
		Reviews:         make([]ReviewResponse, 0, len(detail.Reviews)),
	}
	for _, rv := range detail.Reviews {
		resp.Reviews = append(resp.Reviews, newReviewResponse(rv))
	}
	respond.JSON(w, http.StatusOK, resp)
}

// CreateProduct must be mounted behind a seller/admin role check.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), user, service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *CatalogHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.catalogService.ListSellers(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]SellerResponse, 0, len(sellers))
	for _, s := range sellers {
		resp = append(resp, newSellerResponse(s))
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", service.ErrSellerNotFound)
	if !ok {
		return
	}

	detail, err := h.catalogService.GetSeller(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := SellerDetailResponse{
		SellerResponse: newSellerResponse(detail.Seller),
		Products:       make([]ProductResponse, 0, len(detail.Products)),
	}
	for _, p := range detail.Products {
		resp.Products = append(resp.Products, newProductResponse(p))
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var productID uuid.UUID
	if req.ProductID != "" {
		parsed, err := uuid.Parse(req.ProductID)
		if err != nil {
			respond.Error(w, r, service.ErrProductNotFound)
			return
		}
		productID = parsed
	}

	review, err := h.catalogService.CreateReview(r.Context(), user, service.CreateReviewInput{
		ProductID:  productID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, newReviewResponse(review))
}
