// Package tenants contiene los DTOs de la API de tenants.
package tenants

import "time"

// TenantCreationDTO es el body de POST /api/tenants.
type TenantCreationDTO struct {
	CompanyName   string `json:"companyName"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	Plan          string `json:"plan"`
}

// Missing devuelve los campos requeridos vacíos.
func (d TenantCreationDTO) Missing() []string {
	return missing(map[string]string{
		"companyName":   d.CompanyName,
		"adminEmail":    d.AdminEmail,
		"adminPassword": d.AdminPassword,
		"plan":          d.Plan,
	})
}

// TenantUpdateDTO es el body de PUT /api/tenants/{tenantId}.
// Solo CompanyName y Plan se aplican; las credenciales del admin se ignoran.
type TenantUpdateDTO struct {
	CompanyName   string `json:"companyName"`
	AdminEmail    string `json:"adminEmail,omitempty"`
	AdminPassword string `json:"adminPassword,omitempty"`
	Plan          string `json:"plan"`
}

func (d TenantUpdateDTO) Missing() []string {
	return missing(map[string]string{
		"companyName": d.CompanyName,
		"plan":        d.Plan,
	})
}

// TenantResponse es la representación pública de un tenant.
type TenantResponse struct {
	TenantID    string    `json:"tenantId"`
	CompanyName string    `json:"companyName"`
	CreatedDate time.Time `json:"createdDate"`
	Plan        string    `json:"plan"`
}

// MessageResponse es el body de las respuestas sin payload.
type MessageResponse struct {
	Message string `json:"message"`
}
