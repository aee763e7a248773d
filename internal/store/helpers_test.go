package store_test

import (
	"cmp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"github.com/dropDatabas3/tenantadmin/internal/store/adapters/memory"
)

// widget es una entidad de prueba con clave entera.
type widget struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	TenantID   string `json:"tenant_id"`
	RowVersion []byte `json:"-"`
}

func (w *widget) GetID() int             { return w.ID }
func (w *widget) GetRowVersion() []byte  { return w.RowVersion }
func (w *widget) SetRowVersion(v []byte) { w.RowVersion = v }
func (w *widget) GetTenantID() string    { return w.TenantID }
func (w *widget) SetTenantID(id string)  { w.TenantID = id }

type widgetOpts = repository.OptionsBuilder[*widget, int]

func widgetOptions() *widgetOpts { return repository.NewOptionsBuilder[*widget, int]() }

func byRank(a, b *widget) int { return cmp.Compare(a.Rank, b.Rank) }
func byName(a, b *widget) int { return cmp.Compare(a.Name, b.Name) }

type observed struct {
	entity, op string
	err        error
}

type recorder struct {
	mu  sync.Mutex
	ops []observed
}

func (r *recorder) ObserveOperation(entity, op string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, observed{entity, op, err})
}

func newWidgets(t *testing.T) (*store.Repository[*widget, int], *memory.Provider) {
	t.Helper()
	p := memory.New()
	repo := store.NewRepository[*widget, int](p, store.WithLogger[*widget](zaptest.NewLogger(t)))
	return repo, p
}

func newTenants(t *testing.T) (*store.TenantRepository, *store.Repository[*repository.User, string], *memory.Provider) {
	t.Helper()
	p := memory.New()
	log := zaptest.NewLogger(t)
	tenants := store.NewTenantRepository(p, store.WithLogger[*repository.Tenant](log))
	users := store.NewRepository[*repository.User, string](p,
		store.WithCollection[*repository.User](store.CollectionUsers),
		store.WithLogger[*repository.User](log),
	)
	return tenants, users, p
}
