package repos

import (
	"github.com/phentivokcs/vintagevibes/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
  id, name, description, price, size, condition, category, gender,
  images_json, stock, sold, inventory_status, reserved_by, reserved_until,
  created_at, updated_at`

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productColumns+`
	  FROM products
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

// ListFiltered applies each filter only when it is set, so a gender-only
// or category-only browse narrows the list on its own.
func (r *ProductRepo) ListFiltered(gender, category string, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productColumns+`
	  FROM products
	  WHERE (? = '' OR gender = ?)
	    AND (? = '' OR category = ?)
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, gender, gender, category, category, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return p, err
}
