package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojinpark/dtSim/internal/statistics"
)

func TestNewAdvisor(t *testing.T) {
	advisor := NewAdvisor()

	assert.NotNil(t, advisor)
	assert.NotEmpty(t, advisor.rules)
}

func TestNewAdvisorWithRules(t *testing.T) {
	rules := []Rule{
		{Type: "test", Name: "test_rule"},
	}

	advisor := NewAdvisorWithRules(rules)

	require.Len(t, advisor.rules, 1)
	assert.Equal(t, "test_rule", advisor.rules[0].Name)
}

func TestAdvisor_Advise_SaturatedAccelerator(t *testing.T) {
	advisor := NewAdvisor()

	ctx := &RuleContext{
		Makespan: 200,
		Resources: &statistics.TopResourcesResult{
			Top: []statistics.ResourceEntry{
				{Handle: 1, Kind: "accelerator", Percent: 98.0},
				{Handle: 2, Kind: "accelerator", Percent: 40.0},
			},
		},
	}

	suggestions := advisor.Advise(ctx)

	var found bool
	for _, s := range suggestions {
		if s.Type == "saturated_accelerator" && s.Handle == 1 {
			found = true
		}
	}
	assert.True(t, found, "expected a saturated_accelerator suggestion for handle 1")
}

func TestAdvisor_Advise_SaturatedLink(t *testing.T) {
	advisor := NewAdvisor()

	ctx := &RuleContext{
		Resources: &statistics.TopResourcesResult{
			Top: []statistics.ResourceEntry{
				{Handle: 5, Kind: "link", Percent: 95.0},
			},
		},
	}

	suggestions := advisor.Advise(ctx)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "saturated_link", suggestions[0].Type)
	assert.Equal(t, "warning", suggestions[0].Severity)
}

func TestAdvisor_Advise_IdleAccelerator(t *testing.T) {
	advisor := NewAdvisor()

	ctx := &RuleContext{
		Resources: &statistics.TopResourcesResult{
			Top: []statistics.ResourceEntry{
				{Handle: 3, Kind: "accelerator", Percent: 4.0},
			},
		},
	}

	suggestions := advisor.Advise(ctx)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "idle_accelerator", suggestions[0].Type)
}

func TestAdvisor_Advise_NoResourcesIsNoOp(t *testing.T) {
	advisor := NewAdvisor()
	suggestions := advisor.Advise(&RuleContext{})
	assert.Empty(t, suggestions)
}

func TestAdvisor_Advise_BelowThresholdIsNoOp(t *testing.T) {
	advisor := NewAdvisor()

	ctx := &RuleContext{
		Resources: &statistics.TopResourcesResult{
			Top: []statistics.ResourceEntry{
				{Handle: 1, Kind: "accelerator", Percent: 50.0},
				{Handle: 2, Kind: "link", Percent: 50.0},
			},
		},
	}

	suggestions := advisor.Advise(ctx)
	assert.Empty(t, suggestions)
}
