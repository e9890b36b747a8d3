package lint

import (
	"context"
	"sort"
	"strings"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/globalusings"
)

// RuleContext provides all context needed by a rule to perform linting.
//
// RuleContext stores context.Context as a field (Ctx) rather than passing it
// as a method parameter. It is a short-lived parameter object created per
// rule invocation, which keeps the Rule interface to a single Apply method.
type RuleContext struct {
	// Ctx is the context for cancellation and timeouts.
	Ctx context.Context

	// File is the parsed FileSnapshot.
	File *csast.FileSnapshot

	// Root is the syntax tree root (convenience alias for File.Root).
	Root *csast.Node

	// Config is the resolved configuration.
	Config *config.Config

	// RuleConfig is the rule-specific configuration (may be nil).
	RuleConfig *config.RuleConfig

	// GlobalUsings is the shared global usings file, loaded once per run.
	// Nil when no file is configured.
	GlobalUsings *globalusings.Snapshot

	// Registry provides access to the rule registry for name lookups.
	Registry *Registry

	nodes *NodeCache
}

// NewRuleContext creates a RuleContext for the given file and configuration.
func NewRuleContext(
	ctx context.Context,
	file *csast.FileSnapshot,
	cfg *config.Config,
	ruleCfg *config.RuleConfig,
) *RuleContext {
	var root *csast.Node
	if file != nil {
		root = file.Root
	}

	return &RuleContext{
		Ctx:        ctx,
		File:       file,
		Root:       root,
		Config:     cfg,
		RuleConfig: ruleCfg,
	}
}

// Cancelled returns true if the context has been cancelled.
func (rc *RuleContext) Cancelled() bool {
	select {
	case <-rc.Ctx.Done():
		return true
	default:
		return false
	}
}

// Nodes returns the nodes of the given kinds in document order, from a
// cache shared by every rule evaluating this file.
func (rc *RuleContext) Nodes(kinds ...csast.NodeKind) []*csast.Node {
	if rc.nodes == nil {
		rc.nodes = newNodeCache()
	}
	rc.nodes.build(rc.Root)
	return rc.nodes.Nodes(kinds...)
}

// Option returns a rule-specific option value, or the default if not set.
func (rc *RuleContext) Option(key string, defaultValue any) any {
	if rc.RuleConfig == nil || rc.RuleConfig.Options == nil {
		return defaultValue
	}
	if v, ok := rc.RuleConfig.Options[key]; ok {
		return v
	}
	return defaultValue
}

// OptionInt returns a rule-specific integer option, or the default.
func (rc *RuleContext) OptionInt(key string, defaultValue int) int {
	v := rc.Option(key, defaultValue)
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return defaultValue
	}
}

// OptionString returns a rule-specific string option, or the default.
func (rc *RuleContext) OptionString(key string, defaultValue string) string {
	v := rc.Option(key, defaultValue)
	if s, ok := v.(string); ok {
		return s
	}
	return defaultValue
}

// OptionBool returns a rule-specific boolean option, or the default.
func (rc *RuleContext) OptionBool(key string, defaultValue bool) bool {
	v := rc.Option(key, defaultValue)
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultValue
}

// OptionStringSlice returns a rule-specific string slice option, or the default.
func (rc *RuleContext) OptionStringSlice(key string, defaultValue []string) []string {
	v := rc.Option(key, defaultValue)
	if slice, ok := v.([]string); ok {
		return slice
	}
	// Handle []any from YAML/TOML decoding.
	if iface, ok := v.([]any); ok {
		result := make([]string, 0, len(iface))
		for _, item := range iface {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// MaxLineLength returns the layout threshold. A rule option of the same
// name overrides the global setting.
func (rc *RuleContext) MaxLineLength() int {
	limit := config.DefaultMaxLineLength
	if rc.Config != nil && rc.Config.MaxLineLength > 0 {
		limit = rc.Config.MaxLineLength
	}
	return rc.OptionInt("max_line_length", limit)
}

// WidthMode returns how line length is measured.
func (rc *RuleContext) WidthMode() csast.WidthMode {
	if rc.Config != nil && rc.Config.LineWidth == config.LineWidthDisplay {
		return csast.WidthDisplay
	}
	return csast.WidthChars
}

// Width measures text in the configured width mode.
func (rc *RuleContext) Width(text string) int {
	return csast.Width(text, rc.WidthMode())
}

// Newline returns the line terminator used by the file.
func (rc *RuleContext) Newline() string {
	if rc.File == nil {
		return "\n"
	}
	return rc.File.Newline()
}

// IndentUnit returns one level of indentation: a tab when the file indents
// code with tabs, otherwise IndentSize spaces.
func (rc *RuleContext) IndentUnit() string {
	size := config.DefaultIndentSize
	if rc.Config != nil && rc.Config.IndentSize > 0 {
		size = rc.Config.IndentSize
	}

	if rc.File != nil {
		for idx, metric := range rc.File.Metrics {
			if metric.Blank || metric.CommentOnly || metric.Indent == 0 {
				continue
			}
			if rc.File.LineContent(idx + 1)[0] == '\t' {
				return "\t"
			}
			break
		}
	}
	return strings.Repeat(" ", size)
}

// Text returns the source text of n.
func (rc *RuleContext) Text(n *csast.Node) string {
	if n == nil {
		return ""
	}
	return string(n.Text())
}

func sortByOffset(nodes []*csast.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].SourceRange().StartOffset < nodes[j].SourceRange().StartOffset
	})
}
