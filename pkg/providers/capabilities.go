package providers

import (
	"strings"

	"github.com/parleyhq/parley/pkg/logger"
)

// CapabilityTable answers whether a model supports native tool calling.
// Entries map a model-id prefix to support; the longest matching prefix
// wins. Models with no matching entry are assumed to support tools, with
// a warning logged once per model.
type CapabilityTable struct {
	prefixes map[string]bool
	warned   map[string]bool
}

func NewCapabilityTable(prefixes map[string]bool) *CapabilityTable {
	table := &CapabilityTable{
		prefixes: make(map[string]bool, len(prefixes)),
		warned:   make(map[string]bool),
	}
	for prefix, supported := range prefixes {
		table.prefixes[prefix] = supported
	}
	return table
}

// SupportsTools reports whether model can drive the tool-calling loop.
func (t *CapabilityTable) SupportsTools(model string) bool {
	bestLen := -1
	bestVal := false
	for prefix, supported := range t.prefixes {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			bestVal = supported
		}
	}
	if bestLen >= 0 {
		return bestVal
	}

	if !t.warned[model] {
		t.warned[model] = true
		logger.WarnCF("providers", "Model not in capability table, assuming tool support", map[string]any{
			"model": model,
		})
	}
	return true
}
