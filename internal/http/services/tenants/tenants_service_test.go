package tenants

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/tenantadmin/internal/cache"
	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/tenants"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	"github.com/dropDatabas3/tenantadmin/internal/security/password"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"github.com/dropDatabas3/tenantadmin/internal/store/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type lookups struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *lookups) CacheLookup(_, result string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[result]++
}

func (l *lookups) get(result string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[result]
}

// hookedTenants corre un hook de un solo uso alrededor de las lecturas sin
// opciones, que son las que hace Get.
type hookedTenants struct {
	repository.TenantRepository
	mu     sync.Mutex
	before func()
	after  func()
}

func (h *hookedTenants) TryGet(ctx context.Context, id string, opts *repository.TenantOptions) (*repository.Tenant, error) {
	if opts == nil {
		h.take(&h.before)()
	}
	t, err := h.TenantRepository.TryGet(ctx, id, opts)
	if opts == nil {
		h.take(&h.after)()
	}
	return t, err
}

func (h *hookedTenants) take(fn *func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := *fn
	*fn = nil
	if f == nil {
		return func() {}
	}
	return f
}

func (h *hookedTenants) set(fn *func(), f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*fn = f
}

type fixture struct {
	svc     Service
	p       *memory.Provider
	tenants *store.TenantRepository
	hooks   *hookedTenants
	cache   *cache.Memory
	obs     *lookups
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	p := memory.New()
	tenants := store.NewTenantRepository(p, store.WithLogger[*repository.Tenant](log))
	userRepo := store.NewRepository[*repository.User, string](p, store.WithLogger[*repository.User](log))
	c := cache.NewMemory("test:", time.Minute)
	obs := &lookups{}
	hooks := &hookedTenants{TenantRepository: tenants}

	svc := New(Deps{
		Provider: p,
		Tenants:  hooks,
		Users: users.New(users.Deps{
			Provider: p,
			Repo:     userRepo,
			Hasher:   password.NewArgon2id(password.Params{Memory: 1024, Time: 1, Parallelism: 1}),
		}),
		Cache:    c,
		Observer: obs,
	})
	return fixture{svc: svc, p: p, tenants: tenants, hooks: hooks, cache: c, obs: obs}
}

func acme() dto.TenantCreationDTO {
	return dto.TenantCreationDTO{
		CompanyName:   "Acme",
		AdminEmail:    "Admin@Acme.test",
		AdminPassword: "Passw0rd!",
		Plan:          "Pro",
	}
}

func TestCreate_WithAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)
	require.NotEmpty(t, tn.ID)
	assert.False(t, tn.CreatedDate.IsZero())
	assert.Equal(t, "Pro", tn.Plan)

	opts := repository.NewOptionsBuilder[*repository.Tenant, string]().
		WithNavigation(repository.NavTenantUsers).
		MustBuild()
	got, err := f.tenants.TryGet(ctx, tn.ID, &opts)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	assert.Equal(t, "admin@acme.test", got.Users[0].Email)
	assert.Equal(t, repository.RoleTenantAdmin, got.Users[0].Roles)
	assert.Equal(t, tn.ID, got.Users[0].TenantID)
}

func TestCreate_AdminFailureRollsBackTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := acme()
	req.AdminPassword = "weak"
	tn, err := f.svc.Create(ctx, req)
	require.ErrorIs(t, err, users.ErrInvalidInput)
	assert.Nil(t, tn)
	assert.Zero(t, f.p.Len(store.CollectionTenants))
	assert.Zero(t, f.p.Len(store.CollectionUsers))
}

func TestCreate_MissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), dto.TenantCreationDTO{CompanyName: "Acme"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "adminEmail,adminPassword,plan")
}

func TestGet_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)

	first, err := f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.obs.get("miss"))
	assert.Equal(t, 1, f.cache.Len())

	second, err := f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.obs.get("hit"))
	assert.Equal(t, first.CompanyName, second.CompanyName)
	assert.Equal(t, first.RowVersion, second.RowVersion)
	assert.True(t, first.CreatedDate.Equal(second.CreatedDate))

	_, err = f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(ctx, " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGet_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.svc.Get(ctx, tn.ID)
			if err == nil && got.ID != tn.ID {
				err = errors.New("wrong tenant")
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestGet_CancelledCallerDoesNotAbortSharedLoad(t *testing.T) {
	f := newFixture(t)

	tn, err := f.svc.Create(context.Background(), acme())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.hooks.set(&f.hooks.before, func() {
		close(entered)
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := f.svc.Get(ctx, tn.ID)
		errc <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	// la lectura compartida termina y llena el cache igual
	close(release)
	require.Eventually(t, func() bool { return f.cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	got, err := f.svc.Get(context.Background(), tn.ID)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, got.ID)
	assert.Equal(t, 1, f.obs.get("hit"))
}

func TestGet_UpdateDuringLoadDoesNotCacheStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)

	// el update confirma e invalida entre la lectura y el llenado del cache
	f.hooks.set(&f.hooks.after, func() {
		_, err := f.svc.Update(ctx, tn.ID, dto.TenantUpdateDTO{CompanyName: "Acme Corp", Plan: "Enterprise"})
		require.NoError(t, err)
	})

	stale, err := f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stale.CompanyName)
	assert.Zero(t, f.cache.Len())

	got, err := f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	assert.Equal(t, "Enterprise", got.Plan)
	assert.Equal(t, 1, f.cache.Len())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	up, err := f.svc.Update(ctx, tn.ID, dto.TenantUpdateDTO{CompanyName: "Acme Corp", Plan: "Enterprise"})
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, "Acme Corp", up.CompanyName)
	assert.NotEqual(t, tn.RowVersion, up.RowVersion)
	assert.Zero(t, f.cache.Len(), "update invalidates the cached entry")

	got, err := f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Enterprise", got.Plan)

	missing, err := f.svc.Update(ctx, "missing", dto.TenantUpdateDTO{CompanyName: "x", Plan: "y"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.svc.Update(ctx, tn.ID, dto.TenantUpdateDTO{CompanyName: "x"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, tn.ID))
	assert.Zero(t, f.cache.Len())
	_, err = f.svc.Get(ctx, tn.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// segunda baja: no-op
	require.NoError(t, f.svc.Delete(ctx, tn.ID))
}

func TestDelete_RolledBackKeepsCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tn, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, tn.ID)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.RunInTransaction(ctx, f.p, func(ctx context.Context) error {
		require.NoError(t, f.svc.Delete(ctx, tn.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, f.cache.Len())
	got, err := f.tenants.TryGet(ctx, tn.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
