package repos

import (
	"github.com/phentivokcs/vintagevibes/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// UpsertByEmail creates or refreshes the customer record keyed by email
// and returns it. Checkout calls this before the order insert.
func (r *CustomerRepo) UpsertByEmail(email, name, phone string) (domain.Customer, error) {
	_, err := r.db.Exec(`
		INSERT INTO customers(id, email, name, phone)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, phone = excluded.phone
	`, uuid.NewString(), email, name, phone)
	if err != nil {
		return domain.Customer{}, err
	}

	var c domain.Customer
	err = r.db.Get(&c, `
		SELECT id, email, name, phone, created_at
		FROM customers WHERE LOWER(email) = LOWER(?)
	`, email)
	return c, err
}
