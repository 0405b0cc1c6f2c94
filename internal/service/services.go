package service

import (
	"github.com/dom/techxchange/internal/config"
	"github.com/dom/techxchange/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Catalog *CatalogService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, cfg),
		Catalog: NewCatalogService(repos.Product, repos.Review, repos.User),
	}
}
