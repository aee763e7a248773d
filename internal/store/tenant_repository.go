package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
)

// TenantRepository persiste la entidad raíz Tenant. Como el tenant es su
// propio tenant, no hay gate: el scope es el ID mismo.
type TenantRepository struct {
	engine[*repository.Tenant, string]
	now func() time.Time
}

var _ repository.TenantRepository = (*TenantRepository)(nil)

// NewTenantRepository crea el repositorio de tenants. La navegación
// repository.NavTenantUsers viene registrada.
func NewTenantRepository(p Provider, opts ...Option[*repository.Tenant]) *TenantRepository {
	opts = append([]Option[*repository.Tenant]{
		WithCollection[*repository.Tenant](CollectionTenants),
		WithNavigationLoader[*repository.Tenant](repository.NavTenantUsers, loadTenantUsers),
	}, opts...)
	return &TenantRepository{
		engine: newEngine[*repository.Tenant, string](p, opts),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// prepare asigna ID y fecha de alta si faltan. Se revierte en rollback.
func (r *TenantRepository) prepare(ctx context.Context, t *repository.Tenant) {
	prevID, prevDate := t.ID, t.CreatedDate
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedDate.IsZero() {
		t.CreatedDate = r.now()
	}
	ScopeFrom(ctx).OnRollback(func() { t.ID, t.CreatedDate = prevID, prevDate })
}

func (r *TenantRepository) insert(ctx context.Context, tx Tx, t *repository.Tenant) error {
	v := NewRowVersion()
	rec, err := r.record(t, v)
	if err != nil {
		return err
	}
	if err := tx.Insert(ctx, rec); err != nil {
		return err
	}
	r.stamp(ctx, t, v)
	return nil
}

func (r *TenantRepository) Create(ctx context.Context, t *repository.Tenant) error {
	if t == nil {
		return r.reject("create", "", "", invalidArg("tenant", "is required"))
	}

	return r.exec(ctx, "create", t.ID, t.ID, func(ctx context.Context, tx Tx) error {
		if t.ID != "" {
			_, found, err := tx.Get(ctx, r.collection, t.ID)
			if err != nil {
				return err
			}
			if found {
				r.log.Info("tenant already exists, skipping create", logger.TenantID(t.ID))
				return nil
			}
		}
		r.prepare(ctx, t)
		return r.insert(ctx, tx, t)
	})
}

func (r *TenantRepository) TryGet(ctx context.Context, id string, opts *repository.TenantOptions) (*repository.Tenant, error) {
	if id == "" {
		return nil, r.reject("get", "", "", invalidArg("id", "is required"))
	}
	items, err := r.getMany(ctx, "get", []string{id}, opts)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *TenantRepository) Update(ctx context.Context, t *repository.Tenant) error {
	if t == nil {
		return r.reject("update", "", "", invalidArg("tenant", "is required"))
	}
	if t.ID == "" {
		return r.reject("update", "", "", invalidArg("tenant.ID", "is required"))
	}

	return r.exec(ctx, "update", t.ID, t.ID, func(ctx context.Context, tx Tx) error {
		return r.update(ctx, tx, t)
	})
}

func (r *TenantRepository) update(ctx context.Context, tx Tx, t *repository.Tenant) error {
	v := NewRowVersion()
	rec, err := r.record(t, v)
	if err != nil {
		return err
	}
	if err := tx.Update(ctx, rec, t.RowVersion); err != nil {
		return err
	}
	r.stamp(ctx, t, v)
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return r.reject("delete", "", "", invalidArg("id", "is required"))
	}

	return r.exec(ctx, "delete", id, id, func(ctx context.Context, tx Tx) error {
		rec, found, err := tx.Get(ctx, r.collection, id)
		if err != nil {
			return err
		}
		if !found {
			r.log.Warn("tenant not found, nothing to delete", logger.TenantID(id))
			return nil
		}
		if err := tx.Delete(ctx, r.collection, id, rec.RowVersion); err != nil {
			return err
		}
		ScopeFrom(ctx).forget(r.collection, id)
		return nil
	})
}

func (r *TenantRepository) CreateBatch(ctx context.Context, tenants []*repository.Tenant) error {
	if err := checkBatch(tenants); err != nil {
		return r.reject("create_batch", "", "", err)
	}
	for _, t := range tenants {
		if t.ID != "" {
			return r.reject("create_batch", t.ID, t.ID, invalidArg("tenant.ID", "is assigned by the store"))
		}
	}
	if len(tenants) == 0 {
		return nil
	}

	return r.exec(ctx, "create_batch", "", "", func(ctx context.Context, tx Tx) error {
		for _, t := range tenants {
			r.prepare(ctx, t)
			if err := r.insert(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TenantRepository) TryGetBatch(ctx context.Context, ids []string, opts *repository.TenantOptions) ([]*repository.Tenant, error) {
	for _, id := range ids {
		if id == "" {
			return nil, r.reject("get_batch", "", "", invalidArg("ids", "must not contain empty values"))
		}
	}
	return r.getMany(ctx, "get_batch", ids, opts)
}

func (r *TenantRepository) getMany(ctx context.Context, op string, ids []string, opts *repository.TenantOptions) ([]*repository.Tenant, error) {
	o := repository.OptionsOrDefault(opts)
	if err := r.checkNavigations(o); err != nil {
		return nil, r.reject(op, "", "", err)
	}
	if len(ids) == 0 {
		return []*repository.Tenant{}, nil
	}

	var out []*repository.Tenant
	err := r.exec(ctx, op, logID(ids), logID(ids), func(ctx context.Context, tx Tx) error {
		recs, err := tx.GetMany(ctx, r.collection, unique(ids))
		if err != nil {
			return err
		}
		out, err = r.read(ctx, tx, recs, ids, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TenantRepository) UpdateBatch(ctx context.Context, tenants []*repository.Tenant) error {
	if err := checkBatch(tenants); err != nil {
		return r.reject("update_batch", "", "", err)
	}
	ids := make([]string, len(tenants))
	for i, t := range tenants {
		if t.ID == "" {
			return r.reject("update_batch", "", "", invalidArg("tenant.ID", "is required"))
		}
		ids[i] = t.ID
	}
	if len(tenants) == 0 {
		return nil
	}

	return r.exec(ctx, "update_batch", "", logID(ids), func(ctx context.Context, tx Tx) error {
		recs, err := tx.GetMany(ctx, r.collection, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, recs); len(missing) > 0 {
			return fmt.Errorf("%w: tenants %s", repository.ErrNotFound, strings.Join(missing, ", "))
		}
		for _, t := range tenants {
			if err := r.update(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TenantRepository) DeleteBatch(ctx context.Context, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return r.reject("delete_batch", "", "", invalidArg("ids", "must not contain empty values"))
		}
		if _, dup := seen[id]; dup {
			return r.reject("delete_batch", id, id, fmt.Errorf("%w: %q repeated in batch", repository.ErrDuplicateKey, id))
		}
		seen[id] = struct{}{}
	}
	if len(ids) == 0 {
		return nil
	}

	return r.exec(ctx, "delete_batch", "", logID(ids), func(ctx context.Context, tx Tx) error {
		recs, err := tx.GetMany(ctx, r.collection, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, recs); len(missing) > 0 {
			r.log.Warn("tenants not found, ignored", logger.Count(len(missing)), logger.String("ids", strings.Join(missing, ",")))
		}
		for _, rec := range recs {
			if err := tx.Delete(ctx, r.collection, rec.ID, rec.RowVersion); err != nil {
				return err
			}
			ScopeFrom(ctx).forget(r.collection, rec.ID)
		}
		return nil
	})
}

// checkBatch rechaza entradas nil y entidades o IDs repetidos. No hace I/O.
func checkBatch(tenants []*repository.Tenant) error {
	ptrs := make(map[*repository.Tenant]struct{}, len(tenants))
	ids := make(map[string]struct{}, len(tenants))
	for _, t := range tenants {
		if t == nil {
			return invalidArg("tenants", "must not contain nil values")
		}
		if _, dup := ptrs[t]; dup {
			return fmt.Errorf("%w: same tenant instance repeated in batch", repository.ErrDuplicateKey)
		}
		ptrs[t] = struct{}{}
		if t.ID == "" {
			continue
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("%w: %q repeated in batch", repository.ErrDuplicateKey, t.ID)
		}
		ids[t.ID] = struct{}{}
	}
	return nil
}

func missingIDs(ids []string, recs []Record) []string {
	found := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		found[rec.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// logID resume un batch para el campo de log.
func logID(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	return fmt.Sprintf("%d ids", len(ids))
}

// loadTenantUsers completa Tenant.Users con los usuarios de cada tenant.
func loadTenantUsers(ctx context.Context, tx Tx, tenants []*repository.Tenant) error {
	for _, t := range tenants {
		recs, err := tx.ListByTenant(ctx, CollectionUsers, t.ID)
		if err != nil {
			return err
		}
		users := make([]*repository.User, 0, len(recs))
		for _, rec := range recs {
			u, err := decode[*repository.User](rec)
			if err != nil {
				return err
			}
			u.TenantID = rec.TenantID
			u.RowVersion = rec.RowVersion
			users = append(users, u)
		}
		t.Users = users
	}
	return nil
}
