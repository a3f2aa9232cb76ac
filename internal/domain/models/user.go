package models

// Roles assignable to a user
const (
	RoleEmployee = "Employee"
	RoleAdmin    = "Admin"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"hashed_password"`
	Role         string `json:"role" db:"role"`
	DepartmentID *int64 `json:"department_id" db:"department_id"` // NULL = no department
}

// IsAdmin reports whether the user may run maintenance operations
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
