package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/atclint/pkg/lint"
)

func TestBlankLineBetweenBlocksRule_Metadata(t *testing.T) {
	t.Parallel()

	rule := NewBlankLineBetweenBlocksRule()

	assert.Equal(t, "ATC205", rule.ID())
	assert.Equal(t, "blank-line-between-blocks", rule.Name())
	assert.True(t, rule.CanFix())
}

func TestBlankLineBetweenBlocksRule(t *testing.T) {
	t.Parallel()

	runFixCases(t, func() lint.Rule { return NewBlankLineBetweenBlocksRule() }, []fixCase{
		{
			name: "one blank line",
			input: method(
				"if (a)",
				"{",
				"}",
				"",
				"while (b)",
				"{",
				"}",
			),
			wantDiags: 0,
		},
		{
			name: "missing blank line",
			input: method(
				"if (a)",
				"{",
				"}",
				"while (b)",
				"{",
				"}",
			),
			wantDiags: 1,
			want: method(
				"if (a)",
				"{",
				"}",
				"",
				"while (b)",
				"{",
				"}",
			),
		},
		{
			name: "excessive blank lines",
			input: method(
				"foreach (var x in xs)",
				"{",
				"}",
				"",
				"",
				"",
				"try",
				"{",
				"}",
				"finally",
				"{",
				"}",
			),
			wantDiags: 1,
			want: method(
				"foreach (var x in xs)",
				"{",
				"}",
				"",
				"try",
				"{",
				"}",
				"finally",
				"{",
				"}",
			),
		},
		{
			name: "statement between blocks",
			input: method(
				"if (a)",
				"{",
				"}",
				"Run();",
				"if (b)",
				"{",
				"}",
			),
			wantDiags: 0,
		},
		{
			name: "comment attached to the next block",
			input: method(
				"if (a)",
				"{",
				"}",
				"",
				"// then loop",
				"while (b)",
				"{",
				"}",
			),
			wantDiags: 0,
		},
		{
			name: "comment directly after the first block",
			input: method(
				"if (a)",
				"{",
				"}",
				"// then loop",
				"while (b)",
				"{",
				"}",
			),
			wantDiags: 1,
			want: method(
				"if (a)",
				"{",
				"}",
				"",
				"// then loop",
				"while (b)",
				"{",
				"}",
			),
		},
		{
			name:      "blocks on one line",
			input:     method("if (a) { } if (b) { }"),
			wantDiags: 0,
		},
		{
			name: "blank line before else",
			input: method(
				"if (a)",
				"{",
				"}",
				"",
				"else",
				"{",
				"}",
			),
			wantDiags: 1,
			want: method(
				"if (a)",
				"{",
				"}",
				"else",
				"{",
				"}",
			),
		},
		{
			name: "blank lines before catch and finally",
			input: method(
				"try",
				"{",
				"}",
				"",
				"catch (Exception)",
				"{",
				"}",
				"",
				"",
				"finally",
				"{",
				"}",
			),
			wantDiags: 2,
			want: method(
				"try",
				"{",
				"}",
				"catch (Exception)",
				"{",
				"}",
				"finally",
				"{",
				"}",
			),
		},
		{
			name: "switch section blocks",
			input: method(
				"switch (x)",
				"{",
				"    case 1:",
				"        if (a)",
				"        {",
				"        }",
				"        lock (b)",
				"        {",
				"        }",
				"        break;",
				"}",
			),
			wantDiags: 1,
			want: method(
				"switch (x)",
				"{",
				"    case 1:",
				"        if (a)",
				"        {",
				"        }",
				"",
				"        lock (b)",
				"        {",
				"        }",
				"        break;",
				"}",
			),
		},
	})
}

func TestBlankLineBetweenBlocksRule_SortedOutput(t *testing.T) {
	t.Parallel()

	input := method(
		"if (a)",
		"{",
		"}",
		"",
		"else",
		"{",
		"}",
		"while (b)",
		"{",
		"}",
	)
	_, diags := applyRule(t, NewBlankLineBetweenBlocksRule(), input, ruleRun{})
	require.Len(t, diags, 2)
	assert.Less(t, diags[0].StartOffset, diags[1].StartOffset)
	assert.Contains(t, diags[0].Message, "else")
	assert.Contains(t, diags[1].Message, "Missing blank line")
}
