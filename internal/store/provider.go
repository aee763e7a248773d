// Package store implementa el motor genérico de persistencia tenant-scoped:
// repositorios, scope de transacción, gate de tenant y forma de las lecturas.
//
// El almacenamiento concreto se consume a través de Provider; los drivers
// viven en internal/store/adapters y se registran vía init().
package store

import (
	"context"
	"errors"
)

// ErrTxDone indica que la transacción ya fue confirmada o descartada.
var ErrTxDone = errors.New("store: transaction already finished")

// Record es una fila tal como la ve el provider: metadatos indexables más el
// documento JSON de la entidad.
type Record struct {
	Collection string
	ID         string
	TenantID   string
	RowVersion []byte
	Data       []byte
}

// Provider abre transacciones sobre un almacenamiento.
type Provider interface {
	// Name retorna el nombre del driver (ej: "postgres", "memory").
	Name() string

	// Begin abre una transacción. Debe respetar la cancelación de ctx.
	Begin(ctx context.Context) (Tx, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera los recursos del provider.
	Close() error
}

// Tx es una unidad de trabajo del provider.
//
// Las escrituras son condicionales: Insert falla con ErrDuplicateKey si el ID
// existe; Update y Delete comparan el RowVersion original contra el almacenado
// y fallan con ErrConcurrencyConflict si difiere, o ErrNotFound si no hay fila.
type Tx interface {
	// Get busca una fila por ID.
	Get(ctx context.Context, collection, id string) (Record, bool, error)

	// GetMany busca filas por ID; los IDs ausentes se omiten.
	GetMany(ctx context.Context, collection string, ids []string) ([]Record, error)

	// ListByTenant retorna todas las filas del tenant en la colección.
	ListByTenant(ctx context.Context, collection, tenantID string) ([]Record, error)

	// Insert agrega una fila nueva con rec.RowVersion como token inicial.
	Insert(ctx context.Context, rec Record) error

	// Update reemplaza la fila si su token actual es original; el nuevo token
	// es rec.RowVersion. Una fila de otro tenant cuenta como inexistente.
	Update(ctx context.Context, rec Record, original []byte) error

	// Delete elimina la fila si su token actual es original.
	Delete(ctx context.Context, collection, id string, original []byte) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
