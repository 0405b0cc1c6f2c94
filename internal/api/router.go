package api

import (
	"net/http"

	"github.com/dom/techxchange/internal/api/handlers"
	"github.com/dom/techxchange/internal/api/middleware"
	"github.com/dom/techxchange/internal/auth"
	"github.com/dom/techxchange/internal/config"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// productWriters may create products.
var productWriters = auth.Roles(domain.RoleSeller, domain.RoleAdmin)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	gate := middleware.NewGate(services.Auth)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	catalogHandler := handlers.NewCatalogHandler(services.Catalog)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Method(http.MethodGet, "/profile", gate.Protect(authHandler.Profile))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/{id}", catalogHandler.GetProduct)
			r.Method(http.MethodPost, "/", gate.Require(productWriters, catalogHandler.CreateProduct))
		})

		r.Route("/sellers", func(r chi.Router) {
			r.Get("/", catalogHandler.ListSellers)
			r.Get("/{id}", catalogHandler.GetSeller)
		})

		r.Method(http.MethodPost, "/reviews", gate.Protect(catalogHandler.CreateReview))
	})

	return r
}
