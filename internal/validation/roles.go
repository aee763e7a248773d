// Package validation contiene reglas de formato compartidas por servicios.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Role name rules:
// - Start with a letter.
// - Letters, digits, "_" and "-" after that.
// - Length 1..64.
//
// Examples valid: User, TenantAdmin, billing-viewer
// Examples invalid: "", 1admin, bad space, semicolon;hack, a,b as a single name.
var roleNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidRoleName returns true if the provided role name matches the allowed pattern.
func ValidRoleName(name string) bool {
	return roleNameRe.MatchString(name)
}

// NormalizeRoles valida una lista separada por comas y la devuelve sin
// espacios ni duplicados (comparación case-insensitive, gana la primera).
// Una lista vacía devuelve "".
func NormalizeRoles(s string) (string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !ValidRoleName(r) {
			return "", fmt.Errorf("invalid role name %q", r)
		}
		k := strings.ToLower(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return strings.Join(out, ","), nil
}
