package pg

import (
	"context"
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"github.com/dropDatabas3/tenantadmin/migrations/postgres"
)

func TestDriverRegistered(t *testing.T) {
	d, ok := store.GetDriver("postgres")
	require.True(t, ok)
	require.Equal(t, "postgres", d.Name())

	_, err := d.Open(context.Background(), store.ProviderConfig{Driver: "postgres"})
	require.Error(t, err, "DSN is required")
}

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr(nil))
	require.ErrorIs(t, mapErr(pgx.ErrTxClosed), store.ErrTxDone)
	require.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505"}), repository.ErrDuplicateKey)
	require.ErrorIs(t, mapErr(&pgconn.PgError{Code: "40001"}), repository.ErrConcurrencyConflict)

	other := errors.New("boom")
	require.Equal(t, other, mapErr(other))
}

func TestParseMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql": {Data: []byte("SELECT 2")},
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"README.md":  {Data: []byte("ignored")},
	}
	migs, err := ParseMigrations(fsys, ".")
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "a", migs[0].Name)
	require.Equal(t, "SELECT 2", migs[1].SQL)

	fsys["1_dup.sql"] = &fstest.MapFile{Data: []byte("SELECT 3")}
	_, err = ParseMigrations(fsys, ".")
	require.Error(t, err)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	migs, err := ParseMigrations(postgres.FS, postgres.Dir)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	require.Equal(t, "repository_records", migs[0].Name)
}

// Integración: requiere TENANTADMIN_PG_DSN apuntando a una base descartable.
func openTestProvider(t *testing.T) *Provider {
	t.Helper()
	dsn := os.Getenv("TENANTADMIN_PG_DSN")
	if dsn == "" {
		t.Skip("TENANTADMIN_PG_DSN not set")
	}
	p, err := store.OpenProvider(context.Background(), store.ProviderConfig{Driver: "postgres", DSN: dsn, Migrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p.(*Provider)
}

func TestPostgresConditionalWrites(t *testing.T) {
	p := openTestProvider(t)
	ctx := context.Background()
	coll := "test_" + uuid.NewString()
	rec := store.Record{Collection: coll, ID: "a", TenantID: "t1", RowVersion: []byte{1}, Data: []byte(`{"id":"a"}`)}

	tx, err := p.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, rec))
	require.ErrorIs(t, tx.Insert(ctx, rec), repository.ErrDuplicateKey)
	require.NoError(t, tx.Commit(ctx))

	tx, err = p.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck

	next := rec
	next.RowVersion = []byte{2}
	require.ErrorIs(t, tx.Update(ctx, next, []byte{9}), repository.ErrConcurrencyConflict)

	wrongTenant := next
	wrongTenant.TenantID = "t2"
	require.ErrorIs(t, tx.Update(ctx, wrongTenant, []byte{1}), repository.ErrNotFound)

	require.NoError(t, tx.Update(ctx, next, []byte{1}))
	got, ok, err := tx.Get(ctx, coll, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{2}, got.RowVersion)

	list, err := tx.ListByTenant(ctx, coll, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, tx.Delete(ctx, coll, "a", []byte{2}))
	require.ErrorIs(t, tx.Delete(ctx, coll, "a", []byte{2}), repository.ErrNotFound)
}

func TestPostgresTenantRepository(t *testing.T) {
	p := openTestProvider(t)
	ctx := context.Background()
	tenants := store.NewTenantRepository(p, store.WithCollection[*repository.Tenant]("test_tenants_"+uuid.NewString()))

	acme := &repository.Tenant{CompanyName: "Acme", Plan: "pro"}
	require.NoError(t, tenants.Create(ctx, acme))
	v1 := acme.RowVersion

	acme.Plan = "enterprise"
	require.NoError(t, tenants.Update(ctx, acme))

	replay := &repository.Tenant{ID: acme.ID, CompanyName: "Acme", Plan: "enterprise", RowVersion: v1}
	require.ErrorIs(t, tenants.Update(ctx, replay), repository.ErrConcurrencyConflict)

	require.NoError(t, tenants.DeleteBatch(ctx, []string{acme.ID, "missing"}))
	got, err := tenants.TryGet(ctx, acme.ID, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}
