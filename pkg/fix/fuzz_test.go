package fix_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yaklabco/atclint/pkg/fix"
)

func FuzzGenerateDiff(f *testing.F) {
	f.Add([]byte(""), []byte(""))
	f.Add([]byte("class C {}"), []byte("class C {}"))
	f.Add([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
	f.Add([]byte("using A;\nusing B;\n"), []byte("using B;\n"))
	f.Add([]byte("a\r\nb\r\n"), []byte("a\nb\n"))

	f.Fuzz(func(t *testing.T, original, modified []byte) {
		diff := fix.GenerateDiff("fuzz.cs", original, modified)
		if diff == nil {
			return
		}

		_ = diff.String()

		for idx, hunk := range diff.Hunks {
			if hunk.OriginalStart < 1 || hunk.ModifiedStart < 1 {
				t.Errorf("hunk %d: starts must be 1-based, got -%d +%d", idx, hunk.OriginalStart, hunk.ModifiedStart)
			}

			var ctx, add, rem int
			for _, line := range hunk.Lines {
				switch line.Kind {
				case fix.DiffLineContext:
					ctx++
				case fix.DiffLineAdd:
					add++
				case fix.DiffLineRemove:
					rem++
				}
			}
			if ctx+rem != hunk.OriginalCount || ctx+add != hunk.ModifiedCount {
				t.Errorf("hunk %d: line kinds do not match counts", idx)
			}
		}
	})
}

// FuzzApplyEdits checks descending application against a reference that
// applies the same edits front to back while tracking the offset shift.
func FuzzApplyEdits(f *testing.F) {
	f.Add([]byte("a.B().C()"), 3, 5, "x", 7, 7, "\n")
	f.Add([]byte("hello"), 0, 5, "world", 5, 5, "!")
	f.Add([]byte("abcdef"), 2, 2, "x", 2, 4, "")

	f.Fuzz(func(t *testing.T, content []byte, s1, e1 int, t1 string, s2, e2 int, t2 string) {
		edits := []fix.TextEdit{
			{StartOffset: s1, EndOffset: e1, NewText: t1},
			{StartOffset: s2, EndOffset: e2, NewText: t2},
		}
		prepared, err := fix.PrepareEdits(edits, len(content))
		if err != nil {
			return
		}

		got := fix.ApplyEdits(content, edits)

		var want bytes.Buffer
		cursor := 0
		for _, e := range prepared {
			want.Write(content[cursor:e.StartOffset])
			want.WriteString(e.NewText)
			cursor = e.EndOffset
		}
		want.Write(content[cursor:])

		if !bytes.Equal(got, want.Bytes()) {
			t.Errorf("ApplyEdits() = %q, want %q (edits %s)", got, want.Bytes(), strings.TrimSpace(prepared[0].String()))
		}
	})
}
