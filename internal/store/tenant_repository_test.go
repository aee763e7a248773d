package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/store"
)

func TestTenantLifecycleAcme(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)

	// 1) Alta sin ID: el store lo asigna
	acme := &repository.Tenant{CompanyName: "Acme", Plan: "pro"}
	require.NoError(t, tenants.Create(ctx, acme))
	require.NotEmpty(t, acme.ID)
	require.False(t, acme.CreatedDate.IsZero())

	// 2) Lectura
	got, err := tenants.TryGet(ctx, acme.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, acme.ID, got.ID)
	require.Equal(t, acme.ID, got.GetTenantID())
	require.Equal(t, "Acme", got.CompanyName)
	require.Equal(t, "pro", got.Plan)
	v1 := got.RowVersion
	require.NotEmpty(t, v1)

	// 3) Update con v1
	got.Plan = "enterprise"
	require.NoError(t, tenants.Update(ctx, got))
	v2 := got.RowVersion
	require.NotEqual(t, v1, v2)

	// 4) Repetir el update con v1 falla
	replay := &repository.Tenant{ID: acme.ID, CompanyName: "Acme", Plan: "enterprise", RowVersion: v1}
	require.ErrorIs(t, tenants.Update(ctx, replay), repository.ErrConcurrencyConflict)

	stored, err := tenants.TryGet(ctx, acme.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "enterprise", stored.Plan)
	require.Equal(t, v2, stored.RowVersion)

	// 5) Baja
	require.NoError(t, tenants.Delete(ctx, acme.ID))
	stored, err = tenants.TryGet(ctx, acme.ID, nil)
	require.NoError(t, err)
	require.Nil(t, stored)

	// Borrar de nuevo es no-op
	require.NoError(t, tenants.Delete(ctx, acme.ID))
}

func TestTenantCreateWithExistingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	require.NoError(t, tenants.Create(ctx, &repository.Tenant{ID: "t1", CompanyName: "Acme"}))
	require.NoError(t, tenants.Create(ctx, &repository.Tenant{ID: "t1", CompanyName: "Other"}))

	got, err := tenants.TryGet(ctx, "t1", nil)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.CompanyName)
	require.Equal(t, 1, p.Len(store.CollectionTenants))
}

func TestCreateBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "A"}, {CompanyName: "B"}, {CompanyName: "C"}}
	require.NoError(t, tenants.CreateBatch(ctx, batch))
	for _, tn := range batch {
		require.NotEmpty(t, tn.ID)
		require.NotEmpty(t, tn.RowVersion)
	}
	require.Equal(t, 3, p.Len(store.CollectionTenants))
	require.NoError(t, tenants.CreateBatch(ctx, nil))
}

func TestCreateBatchRejectsDuplicatesEntirely(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	dupIDs := []*repository.Tenant{{ID: "x", CompanyName: "A"}, {CompanyName: "B"}, {ID: "x", CompanyName: "C"}}
	require.ErrorIs(t, tenants.CreateBatch(ctx, dupIDs), repository.ErrDuplicateKey)

	same := &repository.Tenant{CompanyName: "A"}
	require.ErrorIs(t, tenants.CreateBatch(ctx, []*repository.Tenant{same, same}), repository.ErrDuplicateKey)
	require.Empty(t, same.ID)

	require.Equal(t, 0, p.Len(store.CollectionTenants))
}

func TestCreateBatchRejectsPreassignedIDs(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "A"}, {ID: "mine", CompanyName: "B"}}
	require.ErrorIs(t, tenants.CreateBatch(ctx, batch), repository.ErrInvalidInput)
	require.Empty(t, batch[0].ID)
	require.Equal(t, 0, p.Len(store.CollectionTenants))

	require.ErrorIs(t, tenants.CreateBatch(ctx, []*repository.Tenant{nil}), repository.ErrInvalidInput)
}

func TestCreateBatchRollsBackAssignedIDs(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	ctx, cancel := context.WithCancel(ctx)
	var batch []*repository.Tenant
	err := store.RunInTransaction(ctx, p, func(ctx context.Context) error {
		batch = []*repository.Tenant{{CompanyName: "A"}, {CompanyName: "B"}}
		require.NoError(t, tenants.CreateBatch(ctx, batch))
		require.NotEmpty(t, batch[0].ID)
		cancel()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, batch[0].ID)
	require.Empty(t, batch[1].ID)
	require.Nil(t, batch[0].RowVersion)
	require.Equal(t, 0, p.Len(store.CollectionTenants))
}

func TestTryGetBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "B", Plan: "pro"}, {CompanyName: "A", Plan: "free"}, {CompanyName: "C", Plan: "pro"}}
	require.NoError(t, tenants.CreateBatch(ctx, batch))

	ids := []string{batch[0].ID, "missing", batch[1].ID, batch[2].ID}
	got, err := tenants.TryGetBatch(ctx, ids, nil)
	require.NoError(t, err)
	require.Len(t, got, 3, "absent ids are omitted")
	require.Equal(t, "B", got[0].CompanyName)

	opts := repository.NewOptionsBuilder[*repository.Tenant, string]().
		WithFilter(func(tn *repository.Tenant) bool { return tn.Plan == "pro" }).
		WithOrderByDescending(func(a, b *repository.Tenant) int { return compareStrings(a.CompanyName, b.CompanyName) }).
		MustBuild()
	got, err = tenants.TryGetBatch(ctx, ids, &opts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "C", got[0].CompanyName)
	require.Equal(t, "B", got[1].CompanyName)

	_, err = tenants.TryGetBatch(ctx, []string{""}, nil)
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestTryGetBatchIdentityResolution(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)
	require.NoError(t, tenants.Create(ctx, &repository.Tenant{ID: "t1"}))

	plain, err := tenants.TryGetBatch(ctx, []string{"t1", "t1"}, nil)
	require.NoError(t, err)
	require.Len(t, plain, 2)
	require.NotSame(t, plain[0], plain[1])

	opts := repository.NewOptionsBuilder[*repository.Tenant, string]().WithIdentityResolution(true).MustBuild()
	resolved, err := tenants.TryGetBatch(ctx, []string{"t1", "t1"}, &opts)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.Same(t, resolved[0], resolved[1])
}

func TestUpdateBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "A"}, {CompanyName: "B"}}
	require.NoError(t, tenants.CreateBatch(ctx, batch))
	before := [][]byte{batch[0].RowVersion, batch[1].RowVersion}

	batch[0].Plan = "pro"
	batch[1].Plan = "pro"
	require.NoError(t, tenants.UpdateBatch(ctx, batch))
	require.NotEqual(t, before[0], batch[0].RowVersion)
	require.NotEqual(t, before[1], batch[1].RowVersion)

	got, err := tenants.TryGetBatch(ctx, []string{batch[0].ID, batch[1].ID}, nil)
	require.NoError(t, err)
	for _, tn := range got {
		require.Equal(t, "pro", tn.Plan)
	}
}

func TestUpdateBatchMissingIDFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)

	a := &repository.Tenant{CompanyName: "A"}
	require.NoError(t, tenants.Create(ctx, a))
	v := a.RowVersion

	a.Plan = "pro"
	ghost := &repository.Tenant{ID: "ghost", RowVersion: []byte{1}}
	err := tenants.UpdateBatch(ctx, []*repository.Tenant{a, ghost})
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Equal(t, v, a.RowVersion)

	got, err := tenants.TryGet(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Empty(t, got.Plan)
}

func TestUpdateBatchStaleTokenFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, _ := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "A"}, {CompanyName: "B"}}
	require.NoError(t, tenants.CreateBatch(ctx, batch))

	stale := *batch[1]
	batch[1].Plan = "first"
	require.NoError(t, tenants.Update(ctx, batch[1]))

	batch[0].Plan = "pro"
	stale.Plan = "pro"
	err := tenants.UpdateBatch(ctx, []*repository.Tenant{batch[0], &stale})
	require.ErrorIs(t, err, repository.ErrConcurrencyConflict)

	got, err := tenants.TryGetBatch(ctx, []string{batch[0].ID, batch[1].ID}, nil)
	require.NoError(t, err)
	require.Empty(t, got[0].Plan)
	require.Equal(t, "first", got[1].Plan)
}

func TestUpdateBatchRejectsDuplicates(t *testing.T) {
	a := &repository.Tenant{ID: "a"}
	b := &repository.Tenant{ID: "a"}
	tenants, _, _ := newTenants(t)
	require.ErrorIs(t, tenants.UpdateBatch(context.Background(), []*repository.Tenant{a, b}), repository.ErrDuplicateKey)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	tenants, _, p := newTenants(t)

	batch := []*repository.Tenant{{CompanyName: "A"}, {CompanyName: "B"}, {CompanyName: "C"}}
	require.NoError(t, tenants.CreateBatch(ctx, batch))

	require.NoError(t, tenants.DeleteBatch(ctx, []string{batch[0].ID, "missing", batch[2].ID}))
	require.Equal(t, 1, p.Len(store.CollectionTenants))

	require.ErrorIs(t, tenants.DeleteBatch(ctx, []string{batch[1].ID, batch[1].ID}), repository.ErrDuplicateKey)
	require.Equal(t, 1, p.Len(store.CollectionTenants))
}

func TestUsersNavigation(t *testing.T) {
	ctx := context.Background()
	tenants, users, _ := newTenants(t)

	acme := &repository.Tenant{CompanyName: "Acme"}
	other := &repository.Tenant{CompanyName: "Other"}
	require.NoError(t, tenants.CreateBatch(ctx, []*repository.Tenant{acme, other}))

	require.NoError(t, users.Create(ctx, acme.ID, &repository.User{ID: "u1", Email: "a@acme.io", Roles: repository.RoleTenantAdmin}))
	require.NoError(t, users.Create(ctx, acme.ID, &repository.User{ID: "u2", Email: "b@acme.io", Roles: repository.RoleUser}))
	require.NoError(t, users.Create(ctx, other.ID, &repository.User{ID: "u3", Email: "c@other.io"}))

	got, err := tenants.TryGet(ctx, acme.ID, nil)
	require.NoError(t, err)
	require.Nil(t, got.Users, "navigation is opt-in")

	opts := repository.NewOptionsBuilder[*repository.Tenant, string]().WithNavigation(repository.NavTenantUsers).MustBuild()
	got, err = tenants.TryGet(ctx, acme.ID, &opts)
	require.NoError(t, err)
	require.Len(t, got.Users, 2)
	for _, u := range got.Users {
		require.Equal(t, acme.ID, u.TenantID)
		require.NotEmpty(t, u.RowVersion)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
