package csast_test

import (
	"reflect"
	"testing"

	"github.com/yaklabco/atclint/pkg/csast"
)

func TestBuildLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected []csast.LineInfo
	}{
		{
			name:     "empty content",
			content:  "",
			expected: []csast.LineInfo{},
		},
		{
			name:    "single line no newline",
			content: "int x;",
			expected: []csast.LineInfo{
				{StartOffset: 0, NewlineStart: 6, EndOffset: 6},
			},
		},
		{
			name:    "single line with LF",
			content: "int x;\n",
			expected: []csast.LineInfo{
				{StartOffset: 0, NewlineStart: 6, EndOffset: 7},
				{StartOffset: 7, NewlineStart: 7, EndOffset: 7},
			},
		},
		{
			name:    "CRLF lines",
			content: "a;\r\nb;\r\n",
			expected: []csast.LineInfo{
				{StartOffset: 0, NewlineStart: 2, EndOffset: 4},
				{StartOffset: 4, NewlineStart: 6, EndOffset: 8},
				{StartOffset: 8, NewlineStart: 8, EndOffset: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := csast.BuildLines([]byte(tt.content))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("BuildLines() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestFileSnapshot_LineAt(t *testing.T) {
	t.Parallel()

	snapshot := csast.NewFileSnapshot("a.cs", []byte("ab\ncd\n"))

	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{6, 3, 1},
		{-1, 0, 0},
	}

	for _, tt := range tests {
		line, col := snapshot.LineAt(tt.offset)
		if line != tt.wantLine || col != tt.wantCol {
			t.Errorf("LineAt(%d) = (%d, %d), want (%d, %d)", tt.offset, line, col, tt.wantLine, tt.wantCol)
		}
	}
}

func TestFileSnapshot_Offset(t *testing.T) {
	t.Parallel()

	snapshot := csast.NewFileSnapshot("a.cs", []byte("ab\ncd\n"))

	if off, ok := snapshot.Offset(2, 2); !ok || off != 4 {
		t.Errorf("Offset(2, 2) = (%d, %v), want (4, true)", off, ok)
	}
	if _, ok := snapshot.Offset(9, 1); ok {
		t.Error("Offset past last line should fail")
	}
	if _, ok := snapshot.Offset(1, 0); ok {
		t.Error("Offset with column 0 should fail")
	}
}

func TestFileSnapshot_LineIndent(t *testing.T) {
	t.Parallel()

	snapshot := csast.NewFileSnapshot("a.cs", []byte("class C\n{\n    int x;\n\tint y;\n}\n"))

	tests := []struct {
		line int
		want string
	}{
		{1, ""},
		{3, "    "},
		{4, "\t"},
		{99, ""},
	}
	for _, tt := range tests {
		if got := snapshot.LineIndent(tt.line); got != tt.want {
			t.Errorf("LineIndent(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if got := snapshot.IndentAt(len("class C\n{\n    i")); got != "    " {
		t.Errorf("IndentAt() = %q, want 4 spaces", got)
	}
}

func TestFileSnapshot_Newline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    string
	}{
		{"a\nb\n", "\n"},
		{"a\r\nb\r\n", "\r\n"},
		{"no terminator", "\n"},
	}
	for _, tt := range tests {
		if got := csast.NewFileSnapshot("", []byte(tt.content)).Newline(); got != tt.want {
			t.Errorf("Newline(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}
