package lint

import (
	"cmp"
	"slices"
)

// Collector merges diagnostics from every rule run on one file. Identical
// reports (same rule, span and message) are kept once, first one wins.
type Collector struct {
	diags []Diagnostic
	seen  map[diagKey]struct{}
}

type diagKey struct {
	ruleID     string
	start, end int
	message    string
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[diagKey]struct{})}
}

// Add records diagnostics, dropping duplicates.
func (c *Collector) Add(diags ...Diagnostic) {
	for _, d := range diags {
		key := diagKey{ruleID: d.RuleID, start: d.StartOffset, end: d.EndOffset, message: d.Message}
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.diags = append(c.diags, d)
	}
}

// Len returns the number of distinct diagnostics collected.
func (c *Collector) Len() int {
	return len(c.diags)
}

// Diagnostics returns the collected diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := slices.Clone(c.diags)
	SortDiagnostics(out)
	return out
}

// SortDiagnostics orders diagnostics by start offset, then rule id, then
// message. The sort is stable so equal reports keep their input order.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.StartOffset, b.StartOffset),
			cmp.Compare(a.RuleID, b.RuleID),
			cmp.Compare(a.Message, b.Message),
		)
	})
}

// CountByRule tallies diagnostics per rule id, ignoring internal ones.
func CountByRule(diags []Diagnostic) map[string]int {
	counts := make(map[string]int)
	for _, d := range diags {
		if d.Internal {
			continue
		}
		counts[d.RuleID]++
	}
	return counts
}
