package repository

import (
	"context"
	"time"
)

// Tenant es la entidad raíz: su ID es también su TenantID.
type Tenant struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	CreatedDate time.Time `json:"created_date"`
	Plan        string    `json:"plan"`

	// RowVersion vive en su propia columna, no en el documento.
	RowVersion []byte `json:"-"`

	// Users solo se completa con la navegación NavTenantUsers.
	Users []*User `json:"-"`
}

// NavTenantUsers es el nombre de la navegación que carga los usuarios del tenant.
const NavTenantUsers = "Users"

func (t *Tenant) GetID() string          { return t.ID }
func (t *Tenant) GetRowVersion() []byte  { return t.RowVersion }
func (t *Tenant) SetRowVersion(v []byte) { t.RowVersion = v }
func (t *Tenant) GetTenantID() string    { return t.ID }
func (t *Tenant) SetTenantID(id string)  { t.ID = id }

// TenantOptions son las opciones de lectura para tenants.
type TenantOptions = Options[*Tenant, string]

// TenantRepository define operaciones sobre la entidad raíz Tenant.
//
// Las operaciones batch son todo-o-nada: una sola transacción por llamada.
type TenantRepository interface {
	// Create inserta un tenant. Si ID está vacío, el store asigna uno.
	// Si ya existe un tenant con el mismo ID, es un no-op.
	Create(ctx context.Context, tenant *Tenant) error

	// TryGet busca un tenant por ID. Retorna nil, nil si no existe.
	TryGet(ctx context.Context, id string, opts *TenantOptions) (*Tenant, error)

	// Update escribe el tenant condicionado a su RowVersion.
	// Retorna ErrConcurrencyConflict si el token está viejo.
	Update(ctx context.Context, tenant *Tenant) error

	// Delete elimina el tenant. Si no existe, es un no-op.
	Delete(ctx context.Context, id string) error

	// CreateBatch inserta todos los tenants o ninguno.
	// Rechaza IDs preasignados (ErrInvalidInput) e IDs repetidos (ErrDuplicateKey).
	CreateBatch(ctx context.Context, tenants []*Tenant) error

	// TryGetBatch retorna los tenants existentes; los IDs ausentes se omiten.
	TryGetBatch(ctx context.Context, ids []string, opts *TenantOptions) ([]*Tenant, error)

	// UpdateBatch actualiza todos o ninguno. Un ID ausente falla con ErrNotFound.
	UpdateBatch(ctx context.Context, tenants []*Tenant) error

	// DeleteBatch elimina los tenants existentes; los IDs ausentes se ignoran.
	DeleteBatch(ctx context.Context, ids []string) error
}
