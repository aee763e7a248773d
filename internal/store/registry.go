package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Driver crea providers. Cada adapter registra el suyo en init().
type Driver interface {
	// Name retorna el nombre del driver (ej: "postgres", "memory").
	Name() string

	// Open establece conexión con el almacenamiento.
	Open(ctx context.Context, cfg ProviderConfig) (Provider, error)
}

// ProviderConfig configuración para abrir un provider.
type ProviderConfig struct {
	// Driver: "postgres", "memory"
	Driver string

	// DSN connection string (para DBs)
	DSN string

	// Pool settings (para DBs)
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration

	// Migrate aplica las migraciones embebidas al abrir.
	Migrate bool
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver)
)

// RegisterDriver registra un driver en el registry global.
// Llamar en init() de cada adapter.
func RegisterDriver(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := d.Name()
	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("store: driver %q already registered", name))
	}
	drivers[name] = d
}

// GetDriver obtiene un driver por nombre.
func GetDriver(name string) (Driver, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

// ListDrivers retorna los nombres de los drivers registrados, ordenados.
func ListDrivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenProvider abre un provider usando el driver indicado en la config.
func OpenProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	d, ok := GetDriver(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: driver %q not registered", cfg.Driver)
	}
	return d.Open(ctx, cfg)
}
