package repository

// Roles conocidos.
const (
	RoleTenantAdmin = "TenantAdmin"
	RoleUser        = "User"
)

// User es un usuario perteneciente a un tenant.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Roles        string `json:"roles"`
	TenantID     string `json:"tenant_id"`

	RowVersion []byte `json:"-"`
}

func (u *User) GetID() string          { return u.ID }
func (u *User) GetRowVersion() []byte  { return u.RowVersion }
func (u *User) SetRowVersion(v []byte) { u.RowVersion = v }
func (u *User) GetTenantID() string    { return u.TenantID }
func (u *User) SetTenantID(id string)  { u.TenantID = id }

// UserOptions son las opciones de lectura para usuarios.
type UserOptions = Options[*User, string]

// UserRepository es el repositorio genérico instanciado para usuarios.
type UserRepository = Repository[*User, string]
