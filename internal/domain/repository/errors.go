package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: duplicado, token de concurrencia viejo).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	// Se retorna antes de cualquier I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTenantMismatch indica que el tenant de la entidad no coincide con el
	// tenant esperado por el caller.
	ErrTenantMismatch = errors.New("tenant mismatch")

	// ErrConcurrencyConflict indica que el RowVersion enviado no coincide con
	// el almacenado: otro writer ganó la carrera.
	ErrConcurrencyConflict = fmt.Errorf("%w: concurrency token mismatch", ErrConflict)

	// ErrDuplicateKey indica identificadores repetidos en un batch o una
	// clave que ya existe en el store.
	ErrDuplicateKey = fmt.Errorf("%w: duplicate key", ErrConflict)
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict (incluye concurrencia y duplicados).
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidInput verifica si el error es ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTenantMismatch verifica si el error es ErrTenantMismatch.
func IsTenantMismatch(err error) bool {
	return errors.Is(err, ErrTenantMismatch)
}

// IsConcurrencyConflict verifica si el error es ErrConcurrencyConflict.
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsDuplicateKey verifica si el error es ErrDuplicateKey.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// invalidArg construye un ErrInvalidInput con el nombre del argumento.
func invalidArg(name, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, name, reason)
}
