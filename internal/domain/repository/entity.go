package repository

// Entity es el contrato mínimo de todo tipo persistido: identidad y token de
// concurrencia optimista.
//
// RowVersion es opaco para el caller; el store lo rota en cada escritura
// exitosa y lo compara contra el valor almacenado en cada update.
type Entity[K comparable] interface {
	GetID() K
	GetRowVersion() []byte
	SetRowVersion(v []byte)
}

// TenantEntity es una Entity que pertenece a un tenant.
// Una vez persistido, TenantID solo cambia por la asignación inicial del gate.
type TenantEntity[K comparable] interface {
	Entity[K]
	GetTenantID() string
	SetTenantID(id string)
}
