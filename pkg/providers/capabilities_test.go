package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable_LongestPrefixWins(t *testing.T) {
	table := NewCapabilityTable(map[string]bool{
		"meta-llama/":          false,
		"meta-llama/llama-3.3": true,
		"anthropic/":           true,
	})

	assert.True(t, table.SupportsTools("meta-llama/llama-3.3-70b-instruct"))
	assert.False(t, table.SupportsTools("meta-llama/llama-2-13b"))
	assert.True(t, table.SupportsTools("anthropic/claude-sonnet-4"))
}

func TestCapabilityTable_UnknownModelAssumesSupport(t *testing.T) {
	table := NewCapabilityTable(nil)

	assert.True(t, table.SupportsTools("some-vendor/new-model"))
	// Second lookup exercises the warn-once path.
	assert.True(t, table.SupportsTools("some-vendor/new-model"))
}

func TestCapabilityTable_DisabledPrefix(t *testing.T) {
	table := NewCapabilityTable(map[string]bool{"openrouter/auto": false})

	assert.False(t, table.SupportsTools("openrouter/auto"))
	assert.True(t, table.SupportsTools("openai/gpt-4o"))
}
