package models

import "time"

type Customer struct {
	ID           int64  `json:"id" yaml:"id"`
	Username     string `json:"username" yaml:"username"`
	PasswordHash string `json:"-" yaml:"password_hash"`
	Phone        string `json:"phone" yaml:"phone"`
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Session is an authenticated login, stored by session id.
type Session struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	SubjectID int64     `json:"subject_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal identifies the caller of an operation.
type Principal struct {
	Role      Role   `json:"role"`
	SubjectID int64  `json:"subject_id"`
	Username  string `json:"username"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
