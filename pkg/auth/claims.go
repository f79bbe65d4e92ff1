package auth

import (
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Username   string
	Role       enums.UserRole
	CustomerID *int64
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. CustomerID is
// null until the user has a customer record.
type AccessTokenClaims struct {
	Username   string         `json:"username"`
	Role       enums.UserRole `json:"role"`
	CustomerID *int64         `json:"customer_id"`
	jwt.RegisteredClaims
}
