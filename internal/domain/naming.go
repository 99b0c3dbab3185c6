package domain

import (
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
)

// ExperimentName joins key_value pairs in parameter order.
func ExperimentName(params *m.Map) string {
	parts := make([]string, 0, params.Len())

	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		parts = append(parts, key+"_"+v.String())
	}

	return strings.Join(parts, "_")
}
