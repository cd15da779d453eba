package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	OperatorRoleAdmin   = 1
	OperatorRoleAnalyst = 2
	OperatorRoleViewer  = 3
)

// Operator é quem revisa e resolve os sinais gerados
type Operator struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	RoleID       int       `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Claims struct {
	OperatorID     int
	OperatorName   string
	OperatorEmail  string
	OperatorRoleID int
	jwt.RegisteredClaims
}
