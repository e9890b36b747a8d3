package configloader

import "github.com/yaklabco/atclint/pkg/config"

// merge layers override on top of base and returns a new configuration.
//   - Scalars: override wins when non-zero.
//   - Booleans: override wins only when true; a layer cannot clear a flag.
//     Config files clear the section toggles through applyToggles.
//   - Slices: a non-nil override replaces base.
//   - Rules: merged per rule and per field.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	if override.MaxLineLength != 0 {
		result.MaxLineLength = override.MaxLineLength
	}
	if override.LineWidth != "" {
		result.LineWidth = override.LineWidth
	}
	if override.IndentSize != 0 {
		result.IndentSize = override.IndentSize
	}
	if override.SeverityDefault != "" {
		result.SeverityDefault = override.SeverityDefault
	}
	if override.GlobalUsingsFile != "" {
		result.GlobalUsingsFile = override.GlobalUsingsFile
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.RuleFormat != "" {
		result.RuleFormat = override.RuleFormat
	}
	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}
	if override.Backups.Mode != "" {
		result.Backups.Mode = override.Backups.Mode
	}
	if override.Cache.Dir != "" {
		result.Cache.Dir = override.Cache.Dir
	}

	result.Fix = result.Fix || override.Fix
	result.DryRun = result.DryRun || override.DryRun
	result.NoBackups = result.NoBackups || override.NoBackups
	result.Backups.Enabled = result.Backups.Enabled || override.Backups.Enabled
	result.Cache.Enabled = result.Cache.Enabled || override.Cache.Enabled

	if override.ConnectorIdentifiers != nil {
		result.ConnectorIdentifiers = override.ConnectorIdentifiers
	}
	if override.GlobalUsingPrefixes != nil {
		result.GlobalUsingPrefixes = override.GlobalUsingPrefixes
	}
	if override.Ignore != nil {
		result.Ignore = override.Ignore
	}
	if override.EnableRules != nil {
		result.EnableRules = override.EnableRules
	}
	if override.DisableRules != nil {
		result.DisableRules = override.DisableRules
	}
	if override.FixRules != nil {
		result.FixRules = override.FixRules
	}

	result.Rules = mergeRules(base.Rules, override.Rules)

	return &result
}

// mergeRules merges rule maps key by key. The result never aliases either
// input map.
func mergeRules(base, override map[string]config.RuleConfig) map[string]config.RuleConfig {
	if base == nil && override == nil {
		return nil
	}

	result := make(map[string]config.RuleConfig, len(base)+len(override))
	for key, val := range base {
		result[key] = val
	}
	for key, val := range override {
		if existing, ok := result[key]; ok {
			result[key] = mergeRuleConfig(existing, val)
		} else {
			result[key] = val
		}
	}
	return result
}

func mergeRuleConfig(base, override config.RuleConfig) config.RuleConfig {
	result := base

	if override.Enabled != nil {
		result.Enabled = override.Enabled
	}
	if override.Severity != nil {
		result.Severity = override.Severity
	}
	if override.AutoFix != nil {
		result.AutoFix = override.AutoFix
	}

	if override.Options != nil {
		options := make(map[string]any, len(base.Options)+len(override.Options))
		for key, val := range base.Options {
			options[key] = val
		}
		for key, val := range override.Options {
			options[key] = val
		}
		result.Options = options
	}

	return result
}

// MergeAll merges configurations in order; later ones take precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for _, next := range configs[1:] {
		result = merge(result, next)
	}
	return result
}
