// Package users contiene los DTOs de la API de usuarios de un tenant.
package users

import "strings"

// UserDTO es el body de alta de un usuario.
type UserDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Roles    string `json:"roles"`
}

// Missing devuelve los campos requeridos vacíos.
func (d UserDTO) Missing() []string {
	var out []string
	if strings.TrimSpace(d.Email) == "" {
		out = append(out, "email")
	}
	if d.Password == "" {
		out = append(out, "password")
	}
	return out
}

// UserUpdateDTO es el body de PUT. Campos vacíos no se modifican.
type UserUpdateDTO struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Roles    string `json:"roles,omitempty"`
}

// UserResponse nunca expone el hash del password.
type UserResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Roles    string `json:"roles"`
	TenantID string `json:"tenantId"`
}

// ListUsersResponse es la respuesta de GET /api/tenants/{tenantId}/users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
