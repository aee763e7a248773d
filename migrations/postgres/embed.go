// Package postgres embebe las migraciones SQL del driver postgres.
package postgres

import "embed"

// FS contiene las migraciones, formato {version}_{nombre}.sql.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "."
