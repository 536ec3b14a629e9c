package domain

const RoleAdmin = "ADMIN"

// User is a back-office operator account. Shoppers stay anonymous, so
// every row in the users table belongs to staff.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
