package dal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/dal"
	"github.com/dropDatabas3/tenantadmin/internal/store"
)

func TestAllDriversRegistered(t *testing.T) {
	require.Equal(t, []string{"memory", "postgres"}, store.ListDrivers())
}
