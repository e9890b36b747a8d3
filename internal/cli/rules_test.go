package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"yes":   true,
		"":      false,
	}
	for input, want := range tests {
		var prompt bytes.Buffer
		got, err := confirm(strings.NewReader(input), &prompt, "Overwrite? ")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Overwrite? ", prompt.String())
	}
}

func TestStyleFlagLine(t *testing.T) {
	t.Parallel()

	formatter := &HelpFormatter{styles: NewHelpStyles(false)}

	line := "  -f, --force           overwrite an existing configuration file"
	assert.Equal(t, line, formatter.styleFlagLine(line), "plain styles keep the layout")

	continuation := "                        (default \"auto\")"
	assert.Equal(t, continuation, formatter.styleFlagLine(continuation))
}

func TestRpad(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lint  ", rpad("lint", 6))
	assert.Equal(t, "version", rpad("version", 4))
}
