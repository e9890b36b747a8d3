package lint_test

import (
	"context"
	"testing"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/lint"
)

const defaultTestValue = "default"

func TestNewRuleContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := parseTest(t, "class C { }\n")
	cfg := config.NewConfig()
	ruleCfg := &config.RuleConfig{
		Options: map[string]any{"key": "value"},
	}

	rc := lint.NewRuleContext(ctx, file, cfg, ruleCfg)

	if rc.Ctx != ctx {
		t.Error("Ctx mismatch")
	}
	if rc.File != file {
		t.Error("File mismatch")
	}
	if rc.Root != file.Root {
		t.Error("Root should equal File.Root")
	}
	if rc.Config != cfg {
		t.Error("Config mismatch")
	}
	if rc.RuleConfig != ruleCfg {
		t.Error("RuleConfig mismatch")
	}
	if rc.GlobalUsings != nil {
		t.Error("GlobalUsings should be nil until the engine sets it")
	}
}

func TestNewRuleContext_NilFile(t *testing.T) {
	t.Parallel()

	rc := lint.NewRuleContext(context.Background(), nil, nil, nil)

	if rc.File != nil {
		t.Error("File should be nil")
	}
	if rc.Root != nil {
		t.Error("Root should be nil when File is nil")
	}
}

func TestRuleContext_Cancelled(t *testing.T) {
	t.Parallel()

	t.Run("not cancelled", func(t *testing.T) {
		t.Parallel()

		rc := lint.NewRuleContext(context.Background(), nil, nil, nil)

		if rc.Cancelled() {
			t.Error("should not be cancelled")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rc := lint.NewRuleContext(ctx, nil, nil, nil)

		if !rc.Cancelled() {
			t.Error("should be cancelled")
		}
	})
}

func TestRuleContext_Option(t *testing.T) {
	t.Parallel()

	t.Run("returns default when RuleConfig is nil", func(t *testing.T) {
		t.Parallel()

		rc := lint.NewRuleContext(context.Background(), nil, nil, nil)

		result := rc.Option("key", defaultTestValue)
		if result != defaultTestValue {
			t.Errorf("got %v, want %s", result, defaultTestValue)
		}
	})

	t.Run("returns default when Options is nil", func(t *testing.T) {
		t.Parallel()

		rc := lint.NewRuleContext(context.Background(), nil, nil, &config.RuleConfig{})

		result := rc.Option("key", defaultTestValue)
		if result != defaultTestValue {
			t.Errorf("got %v, want %s", result, defaultTestValue)
		}
	})

	t.Run("returns default when key not found", func(t *testing.T) {
		t.Parallel()

		rc := lint.NewRuleContext(context.Background(), nil, nil, &config.RuleConfig{
			Options: map[string]any{"other": "value"},
		})

		result := rc.Option("key", defaultTestValue)
		if result != defaultTestValue {
			t.Errorf("got %v, want %s", result, defaultTestValue)
		}
	})

	t.Run("returns value when found", func(t *testing.T) {
		t.Parallel()

		rc := lint.NewRuleContext(context.Background(), nil, nil, &config.RuleConfig{
			Options: map[string]any{"key": "found"},
		})

		result := rc.Option("key", "default")
		if result != "found" {
			t.Errorf("got %v, want found", result)
		}
	})
}

func TestRuleContext_OptionInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options map[string]any
		key     string
		def     int
		want    int
	}{
		{
			name:    "returns default when nil options",
			options: nil,
			key:     "max",
			def:     100,
			want:    100,
		},
		{
			name:    "returns int value",
			options: map[string]any{"max": 50},
			key:     "max",
			def:     100,
			want:    50,
		},
		{
			name:    "converts float64 to int",
			options: map[string]any{"max": float64(75)},
			key:     "max",
			def:     100,
			want:    75,
		},
		{
			name:    "returns default for wrong type",
			options: map[string]any{"max": "not an int"},
			key:     "max",
			def:     100,
			want:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ruleCfg *config.RuleConfig
			if tt.options != nil {
				ruleCfg = &config.RuleConfig{Options: tt.options}
			}

			rc := lint.NewRuleContext(context.Background(), nil, nil, ruleCfg)
			got := rc.OptionInt(tt.key, tt.def)

			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRuleContext_OptionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options map[string]any
		key     string
		def     string
		want    string
	}{
		{
			name:    "returns default when nil options",
			options: nil,
			key:     "style",
			def:     "default",
			want:    "default",
		},
		{
			name:    "returns string value",
			options: map[string]any{"style": "custom"},
			key:     "style",
			def:     "default",
			want:    "custom",
		},
		{
			name:    "returns default for wrong type",
			options: map[string]any{"style": 123},
			key:     "style",
			def:     "default",
			want:    "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ruleCfg *config.RuleConfig
			if tt.options != nil {
				ruleCfg = &config.RuleConfig{Options: tt.options}
			}

			rc := lint.NewRuleContext(context.Background(), nil, nil, ruleCfg)
			got := rc.OptionString(tt.key, tt.def)

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleContext_OptionBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options map[string]any
		key     string
		def     bool
		want    bool
	}{
		{
			name:    "returns default when nil options",
			options: nil,
			key:     "enabled",
			def:     true,
			want:    true,
		},
		{
			name:    "returns bool value true",
			options: map[string]any{"enabled": true},
			key:     "enabled",
			def:     false,
			want:    true,
		},
		{
			name:    "returns bool value false",
			options: map[string]any{"enabled": false},
			key:     "enabled",
			def:     true,
			want:    false,
		},
		{
			name:    "returns default for wrong type",
			options: map[string]any{"enabled": "yes"},
			key:     "enabled",
			def:     true,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ruleCfg *config.RuleConfig
			if tt.options != nil {
				ruleCfg = &config.RuleConfig{Options: tt.options}
			}

			rc := lint.NewRuleContext(context.Background(), nil, nil, ruleCfg)
			got := rc.OptionBool(tt.key, tt.def)

			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleContext_HasRegistry(t *testing.T) {
	t.Parallel()

	reg := lint.NewRegistry()
	ctx := &lint.RuleContext{
		Registry: reg,
	}

	if ctx.Registry == nil {
		t.Error("Registry should not be nil")
	}
	if ctx.Registry != reg {
		t.Error("Registry should be the same instance")
	}
}

func TestRuleContext_OptionStringSlice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options map[string]any
		want    []string
	}{
		{
			name: "returns default when unset",
			want: []string{"Should"},
		},
		{
			name:    "returns string slice",
			options: map[string]any{"connectors": []string{"Which", "And"}},
			want:    []string{"Which", "And"},
		},
		{
			name:    "converts decoded any slice",
			options: map[string]any{"connectors": []any{"Which", 3, "And"}},
			want:    []string{"Which", "And"},
		},
		{
			name:    "returns default for empty decoded slice",
			options: map[string]any{"connectors": []any{}},
			want:    []string{"Should"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rc := lint.NewRuleContext(context.Background(), nil, nil, &config.RuleConfig{Options: tt.options})
			got := rc.OptionStringSlice("connectors", []string{"Should"})

			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRuleContext_MaxLineLength(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.MaxLineLength = 120

	tests := []struct {
		name    string
		cfg     *config.Config
		options map[string]any
		want    int
	}{
		{name: "default without config", want: config.DefaultMaxLineLength},
		{name: "global setting", cfg: cfg, want: 120},
		{name: "rule option wins", cfg: cfg, options: map[string]any{"max_line_length": int64(100)}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rc := lint.NewRuleContext(context.Background(), nil, tt.cfg, &config.RuleConfig{Options: tt.options})
			if got := rc.MaxLineLength(); got != tt.want {
				t.Errorf("MaxLineLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRuleContext_Width(t *testing.T) {
	t.Parallel()

	chars := lint.NewRuleContext(context.Background(), nil, config.NewConfig(), nil)
	if chars.WidthMode() != csast.WidthChars {
		t.Errorf("WidthMode() = %v, want chars", chars.WidthMode())
	}
	if got := chars.Width("名前"); got != 2 {
		t.Errorf("chars Width = %d, want 2", got)
	}

	cfg := config.NewConfig()
	cfg.LineWidth = config.LineWidthDisplay
	display := lint.NewRuleContext(context.Background(), nil, cfg, nil)
	if got := display.Width("名前"); got != 4 {
		t.Errorf("display Width = %d, want 4", got)
	}
}

func TestRuleContext_Newline(t *testing.T) {
	t.Parallel()

	if got := lint.NewRuleContext(context.Background(), nil, nil, nil).Newline(); got != "\n" {
		t.Errorf("nil file Newline() = %q", got)
	}

	crlf := parseTest(t, "class C\r\n{\r\n}\r\n")
	if got := lint.NewRuleContext(context.Background(), crlf, nil, nil).Newline(); got != "\r\n" {
		t.Errorf("Newline() = %q, want CRLF", got)
	}
}

func TestRuleContext_IndentUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		size   int
		want   string
	}{
		{name: "spaces", source: "class C\n{\n    int x;\n}\n", want: "    "},
		{name: "configured size", source: "class C\n{\n  int x;\n}\n", size: 2, want: "  "},
		{name: "tabs", source: "class C\n{\n\tint x;\n}\n", want: "\t"},
		{name: "no indented code", source: "class C { }\n", want: "    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			if tt.size > 0 {
				cfg.IndentSize = tt.size
			}
			rc := lint.NewRuleContext(context.Background(), parseTest(t, tt.source), cfg, nil)

			if got := rc.IndentUnit(); got != tt.want {
				t.Errorf("IndentUnit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleContext_Nodes(t *testing.T) {
	t.Parallel()

	file := parseTest(t, "class C\n{\n    int Count => 1;\n\n    void Run() { }\n}\n")
	rc := lint.NewRuleContext(context.Background(), file, nil, nil)

	methods := rc.Nodes(csast.NodeMethodDecl)
	if len(methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(methods))
	}

	// A second call returns the cached slice.
	again := rc.Nodes(csast.NodeMethodDecl)
	if &methods[0] != &again[0] {
		t.Error("methods should be the same slice (cached)")
	}

	members := rc.Nodes(csast.NodeMethodDecl, csast.NodePropertyDecl)
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].Kind != csast.NodePropertyDecl {
		t.Errorf("merged nodes should be in document order, first is %v", members[0].Kind)
	}

	if rc.Nodes() != nil {
		t.Error("no kinds should return nil")
	}
	if rc.Text(methods[0]) != "void Run() { }" {
		t.Errorf("Text() = %q", rc.Text(methods[0]))
	}
}

func TestRuleContext_Nodes_NilRoot(t *testing.T) {
	t.Parallel()

	rc := lint.NewRuleContext(context.Background(), nil, nil, nil)

	if len(rc.Nodes(csast.NodeMethodDecl)) != 0 {
		t.Error("nodes should be empty for nil root")
	}
	if rc.Text(nil) != "" {
		t.Error("Text(nil) should be empty")
	}
}
