package repository

import "slices"

const (
	// DefaultTake es el tope de filas por lectura cuando no se configura Take.
	DefaultTake = 100
	// DefaultSkip es el offset por defecto.
	DefaultSkip = 0
)

// ReadMode define cómo se materializan las entidades leídas.
type ReadMode int

const (
	// ReadModeUntracked retorna snapshots no elegibles para change-detection.
	ReadModeUntracked ReadMode = iota
	// ReadModeTracked adjunta la entidad al scope de transacción: lecturas
	// trackeadas del mismo ID dentro del scope retornan la misma instancia.
	ReadModeTracked
	// ReadModeIdentityResolution es untracked, pero unifica instancias con el
	// mismo ID dentro de un mismo resultado.
	ReadModeIdentityResolution
)

func (m ReadMode) String() string {
	switch m {
	case ReadModeTracked:
		return "tracked"
	case ReadModeIdentityResolution:
		return "identity_resolution"
	default:
		return "untracked"
	}
}

// OrderBy es una clave de ordenamiento. Compare sigue la convención de
// cmp.Compare: negativo si a < b, cero si son iguales, positivo si a > b.
type OrderBy[E any] struct {
	Compare    func(a, b E) int
	Descending bool
}

// Options describe cómo se da forma a una lectura.
//
// El zero value es equivalente a DefaultOptions: Take=100, Skip=0, untracked.
// Se construye con OptionsBuilder; una vez construido no se puede mutar.
type Options[E Entity[K], K comparable] struct {
	useAsTracking      bool
	disableTracking    bool
	identityResolution bool
	navigation         []string
	orderBy            []OrderBy[E]
	skip               int
	take               int
	hasTake            bool
	filter             func(E) bool
}

// DefaultOptions retorna las opciones por defecto.
func DefaultOptions[E Entity[K], K comparable]() Options[E, K] {
	return Options[E, K]{}
}

// UseAsTracking indica si se pidió lectura trackeada.
func (o Options[E, K]) UseAsTracking() bool { return o.useAsTracking }

// DisableTracking indica si se deshabilitó explícitamente el tracking.
func (o Options[E, K]) DisableTracking() bool { return o.disableTracking }

// ReadMode resuelve los flags de tracking a un único modo.
// DisableTracking tiene prioridad sobre UseAsTracking.
func (o Options[E, K]) ReadMode() ReadMode {
	switch {
	case o.useAsTracking && !o.disableTracking:
		return ReadModeTracked
	case o.identityResolution:
		return ReadModeIdentityResolution
	default:
		return ReadModeUntracked
	}
}

// NavigationProperties retorna las navegaciones a cargar, en orden.
func (o Options[E, K]) NavigationProperties() []string { return slices.Clone(o.navigation) }

// OrderBy retorna las claves de orden en el orden en que se aplican.
func (o Options[E, K]) OrderBy() []OrderBy[E] { return slices.Clone(o.orderBy) }

// Skip retorna el offset.
func (o Options[E, K]) Skip() int { return o.skip }

// Take retorna el tope de filas.
func (o Options[E, K]) Take() int {
	if !o.hasTake {
		return DefaultTake
	}
	return o.take
}

// Filter retorna el predicado configurado o nil.
func (o Options[E, K]) Filter() func(E) bool { return o.filter }

// OptionsOrDefault desreferencia opts o retorna las opciones por defecto.
func OptionsOrDefault[E Entity[K], K comparable](opts *Options[E, K]) Options[E, K] {
	if opts == nil {
		return DefaultOptions[E, K]()
	}
	return *opts
}
