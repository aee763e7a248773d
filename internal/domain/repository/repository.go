package repository

import "context"

// Repository define el CRUD tenant-scoped de un tipo de entidad.
//
// Todas las operaciones corren dentro de una transacción; si el contexto ya
// trae un scope de transacción, se unen a él.
type Repository[E TenantEntity[K], K comparable] interface {
	// Create inserta la entidad bajo tenantID. Si ya existe una fila con el
	// mismo ID, es un no-op (no sobreescribe).
	Create(ctx context.Context, tenantID string, entity E) error

	// TryGet busca por ID dentro del tenant aplicando opts (nil = defaults).
	// found es false si no hay coincidencia; no es un error.
	TryGet(ctx context.Context, tenantID string, id K, opts *Options[E, K]) (entity E, found bool, err error)

	// List retorna las entidades del tenant aplicando opts.
	List(ctx context.Context, tenantID string, opts *Options[E, K]) ([]E, error)

	// Update escribe la entidad condicionado a su RowVersion y rota el token.
	Update(ctx context.Context, tenantID string, entity E) error

	// Delete elimina por ID dentro del tenant. Si no existe, es un no-op.
	Delete(ctx context.Context, tenantID string, id K) error
}
