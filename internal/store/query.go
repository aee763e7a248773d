package store

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
)

// NewRowVersion genera un token de concurrencia nuevo.
func NewRowVersion() []byte {
	id := uuid.New()
	return id[:]
}

// keyString serializa una clave al formato de la columna id.
func keyString[K comparable](k K) string {
	return fmt.Sprint(k)
}

func isZero[K comparable](k K) bool {
	var zero K
	return k == zero
}

// shape aplica filtro, orden estable multi-clave y paginación, en ese orden.
func shape[E repository.Entity[K], K comparable](items []E, opts repository.Options[E, K]) []E {
	if f := opts.Filter(); f != nil {
		items = slices.DeleteFunc(items, func(e E) bool { return !f(e) })
	}

	if keys := opts.OrderBy(); len(keys) > 0 {
		slices.SortStableFunc(items, func(a, b E) int {
			for _, k := range keys {
				c := k.Compare(a, b)
				if k.Descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	skip := opts.Skip()
	if skip >= len(items) {
		return items[:0]
	}
	items = items[skip:]
	if take := opts.Take(); take < len(items) {
		items = items[:take]
	}
	return items
}

func encode(entity any) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	return data, nil
}

func decode[E any](rec Record) (E, error) {
	var e E
	if err := json.Unmarshal(rec.Data, &e); err != nil {
		return e, fmt.Errorf("decode %s/%s: %w", rec.Collection, rec.ID, err)
	}
	return e, nil
}
