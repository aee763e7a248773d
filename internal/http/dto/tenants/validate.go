package tenants

import (
	"slices"
	"strings"
)

func missing(fields map[string]string) []string {
	var out []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
