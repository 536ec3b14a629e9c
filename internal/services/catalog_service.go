package services

import (
	"github.com/phentivokcs/vintagevibes/internal/domain"
	"github.com/phentivokcs/vintagevibes/internal/repos"
)

type CatalogService struct {
	Products *repos.ProductRepo
	Inv      *repos.InventoryRepo
}

func NewCatalogService(products *repos.ProductRepo, inv *repos.InventoryRepo) *CatalogService {
	return &CatalogService{Products: products, Inv: inv}
}

func (s *CatalogService) List(gender, category string, limit, offset int) ([]domain.Product, error) {
	if gender == "" && category == "" {
		return s.Products.List(limit, offset)
	}
	return s.Products.ListFiltered(gender, category, limit, offset)
}

func (s *CatalogService) Get(id string) (domain.Product, error) {
	return s.Products.Get(id)
}

// Availability reports the authoritative purchasability of one item.
func (s *CatalogService) Availability(productID string) (domain.Availability, error) {
	status, err := s.Inv.Status(productID)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.Availability{Status: status}, nil
}
