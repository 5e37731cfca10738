package coordinator

import (
	"testing"

	"drivethru/menu"
	"drivethru/order"
	"drivethru/storage"
	"drivethru/tools"
	"drivethru/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	catalog := menu.NewTestCatalog()
	ledger := order.NewLedger("s", storage.NewMemoryJournal(), storage.NewMemorySnapshotStore())
	reg := tools.NewRegistry(tools.NewOrderTools(catalog, validation.New(catalog, validation.DefaultConfig()), ledger))

	specs := ToolSpecs(reg)
	require.Len(t, specs, 3)
	assert.Equal(t, "add_item_to_order", specs[0].Name)
	assert.Equal(t, []string{"item_name"}, specs[0].Parameters["required"])
	_, hasRequired := specs[1].Parameters["required"]
	assert.False(t, hasRequired, "complete_order takes no arguments")

	prompt, err := SystemPrompt(reg, catalog.AllCategories())
	require.NoError(t, err)
	assert.Contains(t, prompt, "- Beef & Pork\n")
	assert.Contains(t, prompt, `"name": "remove_item_from_order"`)
}
