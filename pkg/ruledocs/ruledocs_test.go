package ruledocs_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"

	"github.com/yaklabco/atclint/pkg/lint/rules"
	"github.com/yaklabco/atclint/pkg/ruledocs"
)

func TestEveryRuleIsDocumented(t *testing.T) {
	t.Parallel()

	registry := rules.NewDefaultRegistry()
	for _, id := range registry.IDs() {
		doc, err := ruledocs.Lookup(id)
		require.NoError(t, err, id)

		rule, ok := registry.GetByID(id)
		require.True(t, ok)

		assert.Equal(t, id+": "+rule.Name(), doc.Title)
		assert.NotEmpty(t, doc.Summary, id)
		assert.Contains(t, doc.Sections, "Rule details", id)
		assert.Contains(t, doc.Sections, "Examples", id)
	}

	assert.Equal(t, registry.IDs(), ruledocs.IDs())
}

func TestLookup(t *testing.T) {
	t.Parallel()

	doc, err := ruledocs.Lookup("atc401")
	require.NoError(t, err)

	assert.Equal(t, "ATC401", doc.ID)
	assert.Equal(t, "RegexOptions.Compiled is redundant on GeneratedRegex.", doc.Summary)
	assert.True(t, strings.HasPrefix(doc.Body, "RegexOptions.Compiled is redundant"), doc.Body)
	assert.NotContains(t, doc.Body, "# ATC401")
	assert.Contains(t, doc.HTML, "<h2>Rule details</h2>")
	assert.Contains(t, doc.HTML, `<code class="language-csharp">`)
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ruledocs.Lookup("ATC999")
	require.ErrorIs(t, err, ruledocs.ErrNotFound)
}

func TestParse(t *testing.T) {
	t.Parallel()

	src := []byte("# ATC900: sample\n\nFirst line\nwraps here.\n\n## Rule details\n\nMore.\n")
	doc, err := ruledocs.Parse(goldmark.New(), "ATC900", src)
	require.NoError(t, err)

	assert.Equal(t, "ATC900: sample", doc.Title)
	assert.Equal(t, "First line wraps here.", doc.Summary)
	assert.Equal(t, []string{"Rule details"}, doc.Sections)
	assert.Equal(t, "First line\nwraps here.\n\n## Rule details\n\nMore.", doc.Body)
}

func TestParse_MissingTitle(t *testing.T) {
	t.Parallel()

	_, err := ruledocs.Parse(goldmark.New(), "ATC900", []byte("Just text.\n"))
	require.Error(t, err)

	_, err = ruledocs.Parse(goldmark.New(), "ATC900", []byte("# Other\n\nText.\n"))
	require.Error(t, err)
}
