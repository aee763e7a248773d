package repository

import (
	"errors"
	"slices"
)

// OptionsBuilder arma Options de forma fluida.
//
//	opts, err := repository.NewOptionsBuilder[*repository.User, string]().
//		WithOrderBy(func(a, b *repository.User) int { return strings.Compare(a.Email, b.Email) }).
//		WithTake(20).
//		Build()
//
// Los errores de validación se acumulan y se reportan en Build.
type OptionsBuilder[E Entity[K], K comparable] struct {
	opts Options[E, K]
	errs []error
}

// NewOptionsBuilder crea un builder con los valores por defecto.
func NewOptionsBuilder[E Entity[K], K comparable]() *OptionsBuilder[E, K] {
	return &OptionsBuilder[E, K]{}
}

// WithAsTracking pide lecturas trackeadas.
func (b *OptionsBuilder[E, K]) WithAsTracking(useAsTracking bool) *OptionsBuilder[E, K] {
	b.opts.useAsTracking = useAsTracking
	return b
}

// WithDisableTracking deshabilita el tracking (prevalece sobre WithAsTracking).
func (b *OptionsBuilder[E, K]) WithDisableTracking(disableTracking bool) *OptionsBuilder[E, K] {
	b.opts.disableTracking = disableTracking
	return b
}

// WithIdentityResolution pide lecturas untracked con resolución de identidad.
func (b *OptionsBuilder[E, K]) WithIdentityResolution(enabled bool) *OptionsBuilder[E, K] {
	b.opts.identityResolution = enabled
	return b
}

// WithNavigation agrega una navegación a cargar junto con la entidad.
// Repetir el mismo nombre no tiene efecto.
func (b *OptionsBuilder[E, K]) WithNavigation(name string) *OptionsBuilder[E, K] {
	if name == "" {
		b.errs = append(b.errs, invalidArg("navigation", "must not be empty"))
		return b
	}
	if !slices.Contains(b.opts.navigation, name) {
		b.opts.navigation = append(b.opts.navigation, name)
	}
	return b
}

// WithOrderBy agrega una clave ascendente. Cada llamada desempata la anterior.
func (b *OptionsBuilder[E, K]) WithOrderBy(compare func(a, b E) int) *OptionsBuilder[E, K] {
	return b.addOrder(compare, false)
}

// WithOrderByDescending agrega una clave descendente.
func (b *OptionsBuilder[E, K]) WithOrderByDescending(compare func(a, b E) int) *OptionsBuilder[E, K] {
	return b.addOrder(compare, true)
}

func (b *OptionsBuilder[E, K]) addOrder(compare func(a, b E) int, desc bool) *OptionsBuilder[E, K] {
	if compare == nil {
		b.errs = append(b.errs, invalidArg("orderBy", "must not be nil"))
		return b
	}
	b.opts.orderBy = append(b.opts.orderBy, OrderBy[E]{Compare: compare, Descending: desc})
	return b
}

// WithSkip fija el offset. Negativo es inválido.
func (b *OptionsBuilder[E, K]) WithSkip(skip int) *OptionsBuilder[E, K] {
	if skip < 0 {
		b.errs = append(b.errs, invalidArg("skip", "must not be negative"))
		return b
	}
	b.opts.skip = skip
	return b
}

// WithTake fija el tope de filas. Negativo es inválido.
func (b *OptionsBuilder[E, K]) WithTake(take int) *OptionsBuilder[E, K] {
	if take < 0 {
		b.errs = append(b.errs, invalidArg("take", "must not be negative"))
		return b
	}
	b.opts.take = take
	b.opts.hasTake = true
	return b
}

// WithFilter fija el predicado. La última llamada gana.
func (b *OptionsBuilder[E, K]) WithFilter(filter func(E) bool) *OptionsBuilder[E, K] {
	b.opts.filter = filter
	return b
}

// Build retorna un snapshot inmutable de las opciones.
// Seguir usando el builder no altera opciones ya construidas.
func (b *OptionsBuilder[E, K]) Build() (Options[E, K], error) {
	if len(b.errs) > 0 {
		return Options[E, K]{}, errors.Join(b.errs...)
	}
	out := b.opts
	out.navigation = slices.Clone(b.opts.navigation)
	out.orderBy = slices.Clone(b.opts.orderBy)
	return out, nil
}

// MustBuild es Build para opciones armadas en tiempo de inicialización.
func (b *OptionsBuilder[E, K]) MustBuild() Options[E, K] {
	opts, err := b.Build()
	if err != nil {
		panic(err)
	}
	return opts
}
