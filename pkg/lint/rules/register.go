package rules

import "github.com/yaklabco/atclint/pkg/lint"

// RegisterAll registers all built-in rules with the given registry.
func RegisterAll(registry *lint.Registry) {
	// Layout rules
	registry.MustRegister(
		NewParameterLayoutRule(),        // ATC201
		NewMethodChainRule(),            // ATC202
		NewInterpolationChainRule(),     // ATC203
		NewExpressionBodyRule(),         // ATC204
		NewBlankLineBetweenBlocksRule(), // ATC205
	)

	// Using directive rules
	registry.MustRegister(
		NewGlobalUsingsRule(),       // ATC301
		NewScopedGlobalUsingsRule(), // ATC302
	)

	// Performance rules
	registry.MustRegister(NewRedundantRegexCompiledRule()) // ATC401
}

// RegisterAliases registers short alternate names accepted in configuration
// files and on the command line.
func RegisterAliases(registry *lint.Registry) {
	registry.RegisterAlias("chain-separation", "ATC202")
	registry.RegisterAlias("expression-bodied-members", "ATC204")
	registry.RegisterAlias("regex-compiled", "ATC401")
}

// NewDefaultRegistry returns a fresh registry holding every built-in rule
// and its aliases.
func NewDefaultRegistry() *lint.Registry {
	registry := lint.NewRegistry()
	RegisterAll(registry)
	RegisterAliases(registry)
	return registry
}
