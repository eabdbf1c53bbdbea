package model

import "time"

// Role is the kind of account an Identity holds.
type Role string

const (
	RoleStudent  Role = "student"
	RoleOperator Role = "operator"
)

// Identity is an authenticated user: a student who submits print jobs
// or a print shop operator who processes them.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CollegeID    string    `json:"college_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i *Identity) IsOperator() bool {
	return i != nil && i.Role == RoleOperator
}

// Session binds an opaque bearer token to an identity. Only the token hash is stored.
type Session struct {
	TokenHash  string
	IdentityID string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
