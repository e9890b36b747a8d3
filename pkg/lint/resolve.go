package lint

import "github.com/yaklabco/atclint/pkg/config"

// ResolvedRule pairs a Rule with its resolved configuration.
type ResolvedRule struct {
	// Rule is the underlying rule implementation.
	Rule Rule

	// Enabled indicates whether the rule should be run.
	Enabled bool

	// Severity is the resolved severity for diagnostics from this rule.
	Severity config.Severity

	// AutoFix indicates whether auto-fix is enabled for this rule.
	AutoFix bool

	// Config is the rule-specific configuration (may be nil).
	Config *config.RuleConfig
}

// ResolveRules determines which rules to run based on registry and config.
// Returns only enabled rules with their resolved configuration, sorted by ID.
func ResolveRules(registry *Registry, cfg *config.Config) []ResolvedRule {
	var resolved []ResolvedRule

	for _, rule := range registry.Rules() {
		rr := resolveRule(registry, rule, cfg)
		if rr.Enabled {
			resolved = append(resolved, rr)
		}
	}

	return resolved
}

// matches reports whether any key in keys names rule. Keys may be ids,
// names or aliases.
func matches(registry *Registry, rule Rule, keys []string) bool {
	for _, key := range keys {
		if id, _, ok := registry.Resolve(key); ok && id == rule.ID() {
			return true
		}
	}
	return false
}

// resolveRule resolves the configuration for a single rule.
func resolveRule(registry *Registry, rule Rule, cfg *config.Config) ResolvedRule {
	rr := ResolvedRule{
		Rule:     rule,
		Enabled:  rule.DefaultEnabled(),
		Severity: rule.DefaultSeverity(),
		AutoFix:  rule.CanFix(),
		Config:   nil,
	}

	if cfg == nil {
		return rr
	}

	if cfg.SeverityDefault != "" && config.Severity(cfg.SeverityDefault).IsValid() &&
		rule.DefaultSeverity() == config.SeverityWarning {
		rr.Severity = config.Severity(cfg.SeverityDefault)
	}

	// Apply rule-specific config.
	if ruleCfg, ok := cfg.Rules[rule.ID()]; ok {
		rr.Config = &ruleCfg

		if ruleCfg.Enabled != nil {
			rr.Enabled = *ruleCfg.Enabled
		}
		if ruleCfg.Severity != nil && config.Severity(*ruleCfg.Severity).IsValid() {
			rr.Severity = config.Severity(*ruleCfg.Severity)
		}
		if ruleCfg.AutoFix != nil {
			rr.AutoFix = *ruleCfg.AutoFix && rule.CanFix()
		}
	}

	// Explicit enable/disable from the CLI wins over files.
	if matches(registry, rule, cfg.EnableRules) {
		rr.Enabled = true
	}
	if matches(registry, rule, cfg.DisableRules) {
		rr.Enabled = false
	}

	// The fix-rules filter from the CLI narrows auto-fix, it never widens it.
	if len(cfg.FixRules) > 0 && !matches(registry, rule, cfg.FixRules) {
		rr.AutoFix = false
	}

	// Disable auto-fix if --fix is not set.
	if !cfg.Fix {
		rr.AutoFix = false
	}

	return rr
}
