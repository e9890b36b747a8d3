// Package ruledocs serves the embedded Markdown documentation of each rule.
package ruledocs

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

//go:embed docs/*.md
var docsFS embed.FS

// ErrNotFound is returned when a rule has no documentation.
var ErrNotFound = errors.New("rule documentation not found")

// Doc is the parsed documentation of one rule.
type Doc struct {
	// ID is the rule id the document belongs to.
	ID string

	// Title is the text of the level-one heading.
	Title string

	// Summary is the first paragraph, as plain text.
	Summary string

	// Sections lists the level-two headings in order.
	Sections []string

	// Body is the Markdown after the title heading.
	Body string

	// HTML is Body rendered to HTML.
	HTML string
}

var (
	loadOnce sync.Once
	docs     map[string]*Doc
	loadErr  error
)

// Lookup returns the documentation for a rule id. Ids are matched
// case-insensitively.
func Lookup(id string) (*Doc, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}

	doc, ok := docs[strings.ToUpper(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// IDs returns the documented rule ids in sorted order.
func IDs() []string {
	loadOnce.Do(load)

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func load() {
	entries, err := fs.ReadDir(docsFS, "docs")
	if err != nil {
		loadErr = fmt.Errorf("read rule docs: %w", err)
		return
	}

	md := goldmark.New()
	docs = make(map[string]*Doc, len(entries))
	for _, entry := range entries {
		id := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		src, err := docsFS.ReadFile(path.Join("docs", entry.Name()))
		if err != nil {
			loadErr = fmt.Errorf("read rule doc %s: %w", id, err)
			return
		}

		doc, err := Parse(md, id, src)
		if err != nil {
			loadErr = err
			return
		}
		docs[id] = doc
	}
}

// Parse builds a Doc from Markdown source. The document must open with a
// level-one heading that starts with the rule id.
func Parse(md goldmark.Markdown, id string, src []byte) (*Doc, error) {
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Doc{ID: id}
	bodyStart := -1

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			switch {
			case n.Level == 1 && doc.Title == "":
				doc.Title = plainText(n, src)
				if lines := n.Lines(); lines.Len() > 0 {
					bodyStart = lines.At(lines.Len() - 1).Stop
				}
			case n.Level == 2:
				doc.Sections = append(doc.Sections, plainText(n, src))
			}
		case *ast.Paragraph:
			if doc.Summary == "" && doc.Title != "" {
				doc.Summary = plainText(n, src)
			}
		}
	}

	if doc.Title == "" || !strings.HasPrefix(doc.Title, id) {
		return nil, fmt.Errorf("rule doc %s: missing %q title heading", id, id)
	}

	doc.Body = strings.TrimSpace(string(src[bodyStart:]))

	var html bytes.Buffer
	if err := md.Convert([]byte(doc.Body), &html); err != nil {
		return nil, fmt.Errorf("render rule doc %s: %w", id, err)
	}
	doc.HTML = html.String()

	return doc, nil
}

// plainText concatenates the text leaves below node. Soft line breaks
// become spaces.
func plainText(node ast.Node, src []byte) string {
	var buf strings.Builder
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if leaf, ok := child.(*ast.Text); ok {
			buf.Write(leaf.Segment.Value(src))
			if leaf.SoftLineBreak() || leaf.HardLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
