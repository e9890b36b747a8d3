package csast

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// WidthMode selects how line length is measured.
type WidthMode string

const (
	// WidthChars counts Unicode code points. Tabs count as one.
	WidthChars WidthMode = "chars"

	// WidthDisplay counts terminal cells of the NFC-normalised text, so wide
	// East Asian characters count two and combining marks count zero.
	WidthDisplay WidthMode = "display"
)

// IsValid reports whether the mode is known.
func (m WidthMode) IsValid() bool {
	return m == WidthChars || m == WidthDisplay
}

// Width measures text in the given mode. Unknown modes measure in chars.
func Width(text string, mode WidthMode) int {
	if mode == WidthDisplay {
		return runewidth.StringWidth(norm.NFC.String(text))
	}
	return utf8.RuneCountInString(text)
}

// LineMetric holds derived facts about one line.
type LineMetric struct {
	// Length is the line length in bytes, excluding the newline.
	Length int

	// Chars and Cells are the line width in WidthChars and WidthDisplay modes.
	Chars int
	Cells int

	// Indent is the byte length of the leading whitespace.
	Indent int

	// TrailingWhitespace is the byte length of the trailing whitespace.
	TrailingWhitespace int

	// Blank is true when the line holds only whitespace outside any token
	// (a whitespace line inside a verbatim string is not blank).
	Blank bool

	// CommentOnly is true when the line holds comments or preprocessor
	// directives and no code.
	CommentOnly bool
}

// Width returns the line width in the given mode.
func (m LineMetric) Width(mode WidthMode) int {
	if mode == WidthDisplay {
		return m.Cells
	}
	return m.Chars
}

// ComputeMetrics derives LineMetric values for every line of the snapshot.
// It needs Lines and Tokens to be populated.
func ComputeMetrics(f *FileSnapshot) []LineMetric {
	metrics := make([]LineMetric, len(f.Lines))
	code := make([]bool, len(f.Lines))
	comment := make([]bool, len(f.Lines))

	for _, tok := range f.Tokens {
		if tok.Kind == TokWhitespace || tok.Kind == TokNewline || tok.Len() == 0 {
			continue
		}
		first := f.LineOf(tok.StartOffset)
		last := f.LineOf(tok.EndOffset - 1)
		for line := first; line >= 1 && line <= last; line++ {
			if tok.Kind.IsComment() {
				comment[line-1] = true
			} else {
				code[line-1] = true
			}
		}
	}

	for idx := range f.Lines {
		text := f.LineContent(idx + 1)
		metric := LineMetric{
			Length: len(text),
			Chars:  utf8.RuneCount(text),
			Cells:  runewidth.StringWidth(norm.NFC.String(string(text))),
		}

		for metric.Indent < len(text) && isSpace(text[metric.Indent]) {
			metric.Indent++
		}
		for end := len(text); end > metric.Indent && isSpace(text[end-1]); end-- {
			metric.TrailingWhitespace++
		}

		metric.Blank = metric.Indent == len(text) && !code[idx] && !comment[idx]
		metric.CommentOnly = comment[idx] && !code[idx]
		metrics[idx] = metric
	}

	return metrics
}

// Metric returns the metric of a 1-based line, or the zero value when out of range.
func (f *FileSnapshot) Metric(line int) LineMetric {
	if line < 1 || line > len(f.Metrics) {
		return LineMetric{}
	}
	return f.Metrics[line-1]
}

// IsBlankLine reports whether a 1-based line is blank.
func (f *FileSnapshot) IsBlankLine(line int) bool {
	return f.Metric(line).Blank
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
