// Package dal importa todos los drivers para auto-registro.
// Importar este paquete en main.go para habilitar "memory" y "postgres".
//
//	import _ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/dal"
package dal

import (
	_ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/pg"
)
