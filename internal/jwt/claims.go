// Package jwt firma y valida los bearer tokens HS256 de la API de administración.
package jwt

import (
	"errors"
	"slices"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid_jwt")
	ErrInvalidIssuer   = errors.New("invalid_issuer")
	ErrInvalidAudience = errors.New("invalid_audience")
)

// Claims son los claims del access token de la API.
type Claims struct {
	Email    string   `json:"email,omitempty"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwtv5.RegisteredClaims
}

// HasRole compara sin distinguir mayúsculas.
func (c *Claims) HasRole(role string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool { return strings.EqualFold(r, role) })
}
