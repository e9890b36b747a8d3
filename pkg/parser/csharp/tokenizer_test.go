package csharp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/atclint/pkg/csast"
)

type lexed struct {
	kind csast.TokenKind
	text string
}

func lexAll(t *testing.T, src string) []lexed {
	t.Helper()

	tokens, err := tokenize([]byte(src))
	require.NoError(t, err)
	require.True(t, csast.ValidateTokens(tokens, len(src)), "tokens must cover the input")

	out := make([]lexed, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, lexed{tok.Kind, string(tok.Text([]byte(src)))})
	}
	return out
}

func significant(tokens []lexed) []lexed {
	var out []lexed
	for _, tok := range tokens {
		if !tok.kind.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

func TestTokenize_Basic(t *testing.T) {
	t.Parallel()

	got := lexAll(t, "int x = 1;")
	want := []lexed{
		{csast.TokKeyword, "int"},
		{csast.TokWhitespace, " "},
		{csast.TokIdentifier, "x"},
		{csast.TokWhitespace, " "},
		{csast.TokPunct, "="},
		{csast.TokWhitespace, " "},
		{csast.TokNumber, "1"},
		{csast.TokPunct, ";"},
	}
	assert.Equal(t, want, got)
}

func TestTokenize_Significant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []lexed
	}{
		{
			name: "contextual keyword is identifier",
			src:  "var async = await x;",
			want: []lexed{
				{csast.TokIdentifier, "var"},
				{csast.TokIdentifier, "async"},
				{csast.TokPunct, "="},
				{csast.TokIdentifier, "await"},
				{csast.TokIdentifier, "x"},
				{csast.TokPunct, ";"},
			},
		},
		{
			name: "verbatim identifier",
			src:  "@class",
			want: []lexed{{csast.TokIdentifier, "@class"}},
		},
		{
			name: "null conditional and lambda arrow",
			src:  "a?.b => c",
			want: []lexed{
				{csast.TokIdentifier, "a"},
				{csast.TokPunct, "?."},
				{csast.TokIdentifier, "b"},
				{csast.TokPunct, "=>"},
				{csast.TokIdentifier, "c"},
			},
		},
		{
			name: "closing angles stay separate",
			src:  "a >> b",
			want: []lexed{
				{csast.TokIdentifier, "a"},
				{csast.TokPunct, ">"},
				{csast.TokPunct, ">"},
				{csast.TokIdentifier, "b"},
			},
		},
		{
			name: "numbers",
			src:  "0xFF 1_000 1.5e-3f 10UL .5",
			want: []lexed{
				{csast.TokNumber, "0xFF"},
				{csast.TokNumber, "1_000"},
				{csast.TokNumber, "1.5e-3f"},
				{csast.TokNumber, "10UL"},
				{csast.TokNumber, ".5"},
			},
		},
		{
			name: "range after number",
			src:  "1..2",
			want: []lexed{
				{csast.TokNumber, "1"},
				{csast.TokPunct, ".."},
				{csast.TokNumber, "2"},
			},
		},
		{
			name: "string literals",
			src:  `"a\"b" @"c""d" """raw "q" text""" "x"u8`,
			want: []lexed{
				{csast.TokString, `"a\"b"`},
				{csast.TokString, `@"c""d"`},
				{csast.TokString, `"""raw "q" text"""`},
				{csast.TokString, `"x"u8`},
			},
		},
		{
			name: "char literals",
			src:  `'a' '\'' '\u0041'`,
			want: []lexed{
				{csast.TokChar, `'a'`},
				{csast.TokChar, `'\''`},
				{csast.TokChar, `'\u0041'`},
			},
		},
		{
			name: "interpolation with hole",
			src:  `$"a{b}c"`,
			want: []lexed{
				{csast.TokInterpStart, `$"`},
				{csast.TokInterpText, "a"},
				{csast.TokInterpHoleOpen, "{"},
				{csast.TokIdentifier, "b"},
				{csast.TokInterpHoleClose, "}"},
				{csast.TokInterpText, "c"},
				{csast.TokInterpEnd, `"`},
			},
		},
		{
			name: "interpolation with format",
			src:  `$"{x,5:N2}"`,
			want: []lexed{
				{csast.TokInterpStart, `$"`},
				{csast.TokInterpHoleOpen, "{"},
				{csast.TokIdentifier, "x"},
				{csast.TokInterpHoleFormat, ",5:N2"},
				{csast.TokInterpHoleClose, "}"},
				{csast.TokInterpEnd, `"`},
			},
		},
		{
			name: "escaped braces are text",
			src:  `$"{{x}}"`,
			want: []lexed{
				{csast.TokInterpStart, `$"`},
				{csast.TokInterpText, "{{x}}"},
				{csast.TokInterpEnd, `"`},
			},
		},
		{
			name: "verbatim interpolation",
			src:  `$@"p""{q}"`,
			want: []lexed{
				{csast.TokInterpStart, `$@"`},
				{csast.TokInterpText, `p""`},
				{csast.TokInterpHoleOpen, "{"},
				{csast.TokIdentifier, "q"},
				{csast.TokInterpHoleClose, "}"},
				{csast.TokInterpEnd, `"`},
			},
		},
		{
			name: "raw interpolation with two dollars",
			src:  `$$"""{{x}}{y}"""`,
			want: []lexed{
				{csast.TokInterpStart, `$$"""`},
				{csast.TokInterpHoleOpen, "{{"},
				{csast.TokIdentifier, "x"},
				{csast.TokInterpHoleClose, "}}"},
				{csast.TokInterpText, "{y}"},
				{csast.TokInterpEnd, `"""`},
			},
		},
		{
			name: "nested interpolation and call",
			src:  `$"{F($"{a}", b)}"`,
			want: []lexed{
				{csast.TokInterpStart, `$"`},
				{csast.TokInterpHoleOpen, "{"},
				{csast.TokIdentifier, "F"},
				{csast.TokPunct, "("},
				{csast.TokInterpStart, `$"`},
				{csast.TokInterpHoleOpen, "{"},
				{csast.TokIdentifier, "a"},
				{csast.TokInterpHoleClose, "}"},
				{csast.TokInterpEnd, `"`},
				{csast.TokPunct, ","},
				{csast.TokIdentifier, "b"},
				{csast.TokPunct, ")"},
				{csast.TokInterpHoleClose, "}"},
				{csast.TokInterpEnd, `"`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, significant(lexAll(t, tt.src)))
		})
	}
}

func TestTokenize_Trivia(t *testing.T) {
	t.Parallel()

	src := "// line\n/// doc\n/* block\n spans */\n  #region R\nx; // tail\r\n"
	got := lexAll(t, src)

	var kinds []csast.TokenKind
	for _, tok := range got {
		if tok.kind != csast.TokWhitespace {
			kinds = append(kinds, tok.kind)
		}
	}

	assert.Equal(t, []csast.TokenKind{
		csast.TokLineComment, csast.TokNewline,
		csast.TokDocComment, csast.TokNewline,
		csast.TokBlockComment, csast.TokNewline,
		csast.TokPreprocessor, csast.TokNewline,
		csast.TokIdentifier, csast.TokPunct, csast.TokLineComment, csast.TokNewline,
	}, kinds)
	assert.Equal(t, "\r\n", got[len(got)-1].text)
}

func TestTokenize_HashMidLineIsPunct(t *testing.T) {
	t.Parallel()

	got := significant(lexAll(t, "a # b"))
	require.Len(t, got, 3)
	assert.Equal(t, csast.TokPunct, got[1].kind)
}

func TestTokenize_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated string", `var s = "abc;`, "unterminated string"},
		{"string broken by newline", "\"abc\n\"", "unterminated string"},
		{"unterminated verbatim", `@"abc`, "unterminated verbatim"},
		{"unterminated raw", `"""abc""`, "unterminated raw"},
		{"unterminated char", `'a`, "unterminated character"},
		{"unterminated comment", "/* abc", "unterminated block comment"},
		{"unterminated interpolation", `$"abc`, "unterminated interpolated"},
		{"unterminated hole", `$"{abc`, "unterminated interpolation hole"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tokenize([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTokenize_Lossless(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"using System;",
		"",
		"namespace Demo;",
		"",
		"/// <summary>Doc.</summary>",
		"public sealed class Greeter",
		"{",
		"    [GeneratedRegex(@\"\\d+\", RegexOptions.Compiled)]",
		"    private static partial Regex Digits();",
		"",
		"    public string Greet(string name) => $\"Hello {name.Trim().ToUpper():G}!\";",
		"}",
		"",
	}, "\r\n")

	tokens, err := tokenize([]byte(src))
	require.NoError(t, err)

	var sb strings.Builder
	for _, tok := range tokens {
		sb.Write(tok.Text([]byte(src)))
	}
	assert.Equal(t, src, sb.String())
}
