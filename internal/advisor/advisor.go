// Package advisor generates bottleneck suggestions from a simulation
// run's resource utilization statistics.
package advisor

import (
	"fmt"

	"github.com/seojinpark/dtSim/internal/statistics"
)

// Advisor generates suggestions based on a run's utilization data.
type Advisor struct {
	rules []Rule
}

// Rule represents a suggestion rule.
type Rule struct {
	Type        string
	Name        string
	Description string
	Threshold   float64
	Check       RuleCheckFunc
}

// RuleCheckFunc is a function that checks if a rule applies.
type RuleCheckFunc func(ctx *RuleContext) []Suggestion

// RuleContext provides context for rule checking.
type RuleContext struct {
	Resources *statistics.TopResourcesResult
	Makespan  float64
}

// Suggestion is one bottleneck observation surfaced to the caller.
type Suggestion struct {
	Type     string
	Severity string
	Message  string
	Handle   int
}

// NewAdvisor creates a new Advisor with the default rule set.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates a new Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise generates suggestions from the given context.
func (a *Advisor) Advise(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)

	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}

	return suggestions
}

func defaultRules() []Rule {
	return []Rule{
		{
			Type:        "accelerator",
			Name:        "saturated_accelerator",
			Description: "Flag accelerators busy nearly the entire makespan",
			Threshold:   95.0,
			Check:       checkSaturatedAccelerator,
		},
		{
			Type:        "link",
			Name:        "saturated_link",
			Description: "Flag links busy nearly the entire makespan",
			Threshold:   90.0,
			Check:       checkSaturatedLink,
		},
		{
			Type:        "accelerator",
			Name:        "idle_accelerator",
			Description: "Flag accelerators with low utilization",
			Threshold:   10.0,
			Check:       checkIdleAccelerator,
		},
	}
}

func checkSaturatedAccelerator(ctx *RuleContext) []Suggestion {
	return checkByKindAbove(ctx, "accelerator", 95.0, "saturated_accelerator", "critical",
		func(handle int, pct float64) string {
			return fmt.Sprintf("accelerator %d busy %.1f%% of the makespan — it is the likely bottleneck", handle, pct)
		})
}

func checkSaturatedLink(ctx *RuleContext) []Suggestion {
	return checkByKindAbove(ctx, "link", 90.0, "saturated_link", "warning",
		func(handle int, pct float64) string {
			return fmt.Sprintf("link %d busy %.1f%% of the makespan — consider an additional parallel link", handle, pct)
		})
}

func checkIdleAccelerator(ctx *RuleContext) []Suggestion {
	if ctx.Resources == nil {
		return nil
	}

	suggestions := make([]Suggestion, 0)
	for _, r := range ctx.Resources.Top {
		if r.Kind == "accelerator" && r.Percent < 10.0 {
			suggestions = append(suggestions, Suggestion{
				Type:     "idle_accelerator",
				Severity: "info",
				Message:  fmt.Sprintf("accelerator %d busy only %.1f%% of the makespan — consider rebalancing replicas", r.Handle, r.Percent),
				Handle:   r.Handle,
			})
		}
	}
	return suggestions
}

func checkByKindAbove(ctx *RuleContext, kind string, threshold float64, suggType, severity string, message func(handle int, pct float64) string) []Suggestion {
	if ctx.Resources == nil {
		return nil
	}

	suggestions := make([]Suggestion, 0)
	for _, r := range ctx.Resources.Top {
		if r.Kind == kind && r.Percent >= threshold {
			suggestions = append(suggestions, Suggestion{
				Type:     suggType,
				Severity: severity,
				Message:  message(r.Handle, r.Percent),
				Handle:   r.Handle,
			})
		}
	}
	return suggestions
}
