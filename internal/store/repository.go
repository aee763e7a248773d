package store

import (
	"context"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
)

// Repository es el CRUD tenant-scoped genérico sobre un Provider.
// No guarda estado de entidades entre llamadas.
type Repository[E repository.TenantEntity[K], K comparable] struct {
	engine[E, K]
}

var _ repository.Repository[*repository.User, string] = (*Repository[*repository.User, string])(nil)

// NewRepository crea un repositorio para E sobre p.
func NewRepository[E repository.TenantEntity[K], K comparable](p Provider, opts ...Option[E]) *Repository[E, K] {
	return &Repository[E, K]{engine: newEngine[E, K](p, opts)}
}

func (r *Repository[E, K]) validate(op, tenantID string, entity E) error {
	if tenantID == "" {
		return r.reject(op, tenantID, "", invalidArg("tenantID", "is required"))
	}
	if isNil(entity) {
		return r.reject(op, tenantID, "", invalidArg("entity", "is required"))
	}
	if isZero(entity.GetID()) {
		return r.reject(op, tenantID, "", invalidArg("entity.ID", "is required"))
	}
	return nil
}

func (r *Repository[E, K]) Create(ctx context.Context, tenantID string, entity E) error {
	if err := r.validate("create", tenantID, entity); err != nil {
		return err
	}
	id := keyString(entity.GetID())
	if err := ValidateTenant[K](tenantID, entity); err != nil {
		return r.reject("create", tenantID, id, err)
	}

	return r.exec(ctx, "create", tenantID, id, func(ctx context.Context, tx Tx) error {
		existing, found, err := tx.Get(ctx, r.collection, id)
		if err != nil {
			return err
		}
		if found {
			if existing.TenantID != tenantID {
				return invalidKey(id)
			}
			r.log.Info("entity already exists, skipping create", logger.TenantID(tenantID), logger.EntityID(id))
			return nil
		}

		v := NewRowVersion()
		rec, err := r.record(entity, v)
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}
		r.stamp(ctx, entity, v)
		return nil
	})
}

func (r *Repository[E, K]) TryGet(ctx context.Context, tenantID string, id K, opts *repository.Options[E, K]) (E, bool, error) {
	var zero E
	if tenantID == "" {
		return zero, false, r.reject("get", tenantID, "", invalidArg("tenantID", "is required"))
	}
	if isZero(id) {
		return zero, false, r.reject("get", tenantID, "", invalidArg("id", "is required"))
	}
	o := repository.OptionsOrDefault(opts)
	key := keyString(id)
	if err := r.checkNavigations(o); err != nil {
		return zero, false, r.reject("get", tenantID, key, err)
	}

	var out []E
	err := r.exec(ctx, "get", tenantID, key, func(ctx context.Context, tx Tx) error {
		rec, found, err := tx.Get(ctx, r.collection, key)
		if err != nil || !found || rec.TenantID != tenantID {
			return err
		}
		out, err = r.read(ctx, tx, []Record{rec}, []string{key}, o)
		return err
	})
	if err != nil || len(out) == 0 {
		return zero, false, err
	}
	return out[0], true, nil
}

func (r *Repository[E, K]) List(ctx context.Context, tenantID string, opts *repository.Options[E, K]) ([]E, error) {
	if tenantID == "" {
		return nil, r.reject("list", tenantID, "", invalidArg("tenantID", "is required"))
	}
	o := repository.OptionsOrDefault(opts)
	if err := r.checkNavigations(o); err != nil {
		return nil, r.reject("list", tenantID, "", err)
	}

	var out []E
	err := r.exec(ctx, "list", tenantID, "", func(ctx context.Context, tx Tx) error {
		recs, err := tx.ListByTenant(ctx, r.collection, tenantID)
		if err != nil {
			return err
		}
		out, err = r.read(ctx, tx, recs, recordIDs(recs), o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository[E, K]) Update(ctx context.Context, tenantID string, entity E) error {
	if err := r.validate("update", tenantID, entity); err != nil {
		return err
	}
	id := keyString(entity.GetID())
	if err := ValidateTenant[K](tenantID, entity); err != nil {
		return r.reject("update", tenantID, id, err)
	}

	return r.exec(ctx, "update", tenantID, id, func(ctx context.Context, tx Tx) error {
		v := NewRowVersion()
		rec, err := r.record(entity, v)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, rec, entity.GetRowVersion()); err != nil {
			return err
		}
		r.stamp(ctx, entity, v)
		return nil
	})
}

func (r *Repository[E, K]) Delete(ctx context.Context, tenantID string, id K) error {
	if tenantID == "" {
		return r.reject("delete", tenantID, "", invalidArg("tenantID", "is required"))
	}
	if isZero(id) {
		return r.reject("delete", tenantID, "", invalidArg("id", "is required"))
	}
	key := keyString(id)

	return r.exec(ctx, "delete", tenantID, key, func(ctx context.Context, tx Tx) error {
		rec, found, err := tx.Get(ctx, r.collection, key)
		if err != nil {
			return err
		}
		if !found || rec.TenantID != tenantID {
			r.log.Warn("entity not found, nothing to delete", logger.TenantID(tenantID), logger.EntityID(key))
			return nil
		}
		if err := tx.Delete(ctx, r.collection, key, rec.RowVersion); err != nil {
			return err
		}
		ScopeFrom(ctx).forget(r.collection, key)
		return nil
	})
}
