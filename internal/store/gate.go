package store

import (
	"fmt"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
)

// ValidateTenant concilia el tenant de la entidad con el esperado por el caller.
//
// Una entidad sin tenant asignado queda estampada con expected; una entidad con
// el mismo tenant se acepta tal cual; cualquier otro valor es ErrTenantMismatch.
// Debe correr antes de cualquier escritura.
func ValidateTenant[K comparable](expected string, entity repository.TenantEntity[K]) error {
	if expected == "" {
		return invalidArg("tenantID", "is required")
	}
	switch actual := entity.GetTenantID(); actual {
	case "":
		entity.SetTenantID(expected)
		return nil
	case expected:
		return nil
	default:
		return fmt.Errorf("%w: entity belongs to %q, expected %q", repository.ErrTenantMismatch, actual, expected)
	}
}

func invalidArg(name, reason string) error {
	return fmt.Errorf("%w: %s %s", repository.ErrInvalidInput, name, reason)
}

// invalidKey indica que el ID ya pertenece a otro tenant.
func invalidKey(id string) error {
	return fmt.Errorf("%w: id %q is owned by another tenant", repository.ErrDuplicateKey, id)
}
