package fix

import (
	"fmt"
	"strings"
)

// Diff represents a unified diff between original and modified content.
type Diff struct {
	// Path is the file path for the diff header.
	Path string

	// Original is the original file content.
	Original []byte

	// Modified is the modified file content.
	Modified []byte

	// Hunks contains the diff hunks.
	Hunks []DiffHunk

	// Additions is the number of lines added.
	Additions int

	// Deletions is the number of lines deleted.
	Deletions int
}

// DiffHunk represents a single hunk in a unified diff.
type DiffHunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []DiffLine
}

// DiffLine represents a single line in a diff hunk.
type DiffLine struct {
	Kind    DiffLineKind
	Content string
}

// DiffLineKind indicates the type of diff line.
type DiffLineKind int

const (
	// DiffLineContext is an unchanged context line.
	DiffLineContext DiffLineKind = iota

	// DiffLineAdd is a line added in the modified version.
	DiffLineAdd

	// DiffLineRemove is a line removed from the original version.
	DiffLineRemove
)

func (k DiffLineKind) prefix() byte {
	switch k {
	case DiffLineAdd:
		return '+'
	case DiffLineRemove:
		return '-'
	default:
		return ' '
	}
}

// contextLines is the number of context lines to show around changes.
const contextLines = 3

// GenerateDiff creates a unified diff between original and modified content.
// Returns nil if there are no changes.
func GenerateDiff(path string, original, modified []byte) *Diff {
	if string(original) == string(modified) {
		return nil
	}

	script := editScript(splitLines(original), splitLines(modified))
	hunks := buildHunks(script)
	if len(hunks) == 0 {
		return nil
	}

	diff := &Diff{
		Path:     path,
		Original: original,
		Modified: modified,
		Hunks:    hunks,
	}
	for _, step := range script {
		switch step.kind {
		case DiffLineAdd:
			diff.Additions++
		case DiffLineRemove:
			diff.Deletions++
		}
	}
	return diff
}

// GitHeader returns the "diff --git" header line.
func (d *Diff) GitHeader() string {
	if d == nil {
		return ""
	}
	path := strings.TrimPrefix(d.Path, "/")
	return fmt.Sprintf("diff --git a/%s b/%s", path, path)
}

// String returns the diff in unified diff format (without the git header).
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, hunk := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			hunk.OriginalStart, hunk.OriginalCount,
			hunk.ModifiedStart, hunk.ModifiedCount)
		for _, line := range hunk.Lines {
			sb.WriteByte(line.Kind.prefix())
			sb.WriteString(line.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FullString returns the complete diff including the git header.
func (d *Diff) FullString() string {
	if !d.HasChanges() {
		return ""
	}
	return d.GitHeader() + "\n" + d.String()
}

// HasChanges returns true if the diff contains any changes.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Hunks) > 0
}

// splitLines splits content on LF. A final terminator does not produce an
// empty trailing line, and a CR before the LF is dropped from the content.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// step is one entry of a line edit script. oldLine and newLine are 0-based
// positions in the respective inputs at the moment the step is taken.
type step struct {
	kind    DiffLineKind
	text    string
	oldLine int
	newLine int
}

// editScript derives a minimal line edit script from a longest common
// subsequence table computed over the suffixes of both inputs.
func editScript(a, b []string) []step {
	rows, cols := len(a), len(b)
	table := make([][]int32, rows+1)
	for i := range table {
		table[i] = make([]int32, cols+1)
	}
	for i := rows - 1; i >= 0; i-- {
		for j := cols - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	script := make([]step, 0, rows+cols)
	i, j := 0, 0
	for i < rows || j < cols {
		switch {
		case i < rows && j < cols && a[i] == b[j]:
			script = append(script, step{DiffLineContext, a[i], i, j})
			i++
			j++
		case j < cols && (i == rows || table[i][j+1] > table[i+1][j]):
			script = append(script, step{DiffLineAdd, b[j], i, j})
			j++
		default:
			script = append(script, step{DiffLineRemove, a[i], i, j})
			i++
		}
	}
	return script
}

// buildHunks groups changed steps with up to contextLines of surrounding
// context, joining groups whose context would touch.
func buildHunks(script []step) []DiffHunk {
	var hunks []DiffHunk

	idx := 0
	for idx < len(script) {
		for idx < len(script) && script[idx].kind == DiffLineContext {
			idx++
		}
		if idx == len(script) {
			break
		}

		start := max(0, idx-contextLines)
		end := idx
		for end < len(script) {
			if script[end].kind != DiffLineContext {
				end++
				continue
			}
			run := end
			for run < len(script) && script[run].kind == DiffLineContext {
				run++
			}
			if run == len(script) || run-end > 2*contextLines {
				end = min(run, end+contextLines)
				break
			}
			end = run
		}

		hunks = append(hunks, makeHunk(script[start:end]))
		idx = end
	}

	return hunks
}

func makeHunk(steps []step) DiffHunk {
	hunk := DiffHunk{
		OriginalStart: steps[0].oldLine + 1,
		ModifiedStart: steps[0].newLine + 1,
		Lines:         make([]DiffLine, 0, len(steps)),
	}
	for _, s := range steps {
		hunk.Lines = append(hunk.Lines, DiffLine{Kind: s.kind, Content: s.text})
		if s.kind != DiffLineAdd {
			hunk.OriginalCount++
		}
		if s.kind != DiffLineRemove {
			hunk.ModifiedCount++
		}
	}
	return hunk
}
