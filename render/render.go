// Package render presents validation reports as HTML and Markdown.
//
// The HTML is built as a node tree and passed through a bluemonday policy
// before it leaves the package: report messages quote tag and attribute
// names taken from user input. Markdown is derived from that HTML.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/odfpack/odf"
)

// Renderer turns reports into HTML or Markdown. It is safe for concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// New creates a Renderer.
func New() *Renderer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("div", "h2", "h3", "p", "ul", "li", "table", "thead", "tbody", "tr", "th", "td")
	policy.AllowAttrs("class").OnElements("div", "p", "ul", "td")

	return &Renderer{
		policy: policy,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

var defaultRenderer = New()

// HTML renders rep with the default Renderer.
func HTML(name string, rep odf.Report) string { return defaultRenderer.HTML(name, rep) }

// Markdown renders rep with the default Renderer.
func Markdown(name string, rep odf.Report) (string, error) {
	return defaultRenderer.Markdown(name, rep)
}

// HTML returns a sanitized HTML fragment describing rep.
func (r *Renderer) HTML(name string, rep odf.Report) string {
	var buf bytes.Buffer
	// Render only fails on writer errors; bytes.Buffer has none.
	_ = html.Render(&buf, reportNode(name, rep))
	return r.policy.Sanitize(buf.String())
}

// Markdown returns rep as CommonMark.
func (r *Renderer) Markdown(name string, rep odf.Report) (string, error) {
	md, err := r.md.ConvertString(r.HTML(name, rep))
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

func status(rep odf.Report) string {
	switch {
	case rep.Ready():
		return "ready"
	case rep.OK():
		return "ok"
	default:
		return "invalid"
	}
}

func reportNode(name string, rep odf.Report) *html.Node {
	root := element(atom.Div, "odf-report odf-"+status(rep))

	title := "Validation report"
	if name != "" {
		title += ": " + name
	}
	root.AppendChild(textElement(atom.H2, title))

	summary := element(atom.P, "odf-summary")
	summary.AppendChild(text(fmt.Sprintf("Document type: %s. %d error(s), %d warning(s).",
		rep.DocType.Label(), len(rep.Errors), len(rep.Warnings))))
	root.AppendChild(summary)

	root.AppendChild(checksTable(rep))

	appendList(root, "Errors", "odf-errors", rep.Errors)
	appendList(root, "Warnings", "odf-warnings", rep.Warnings)
	appendList(root, "Suggestions", "odf-suggestions", rep.Suggestions)
	return root
}

func checksTable(rep odf.Report) *html.Node {
	checks := []struct {
		label string
		ok    bool
	}{
		{"Well-formed XML", rep.WellFormed},
		{"Root tag", rep.RootTagOK},
		{"Namespaces", rep.NamespacesOK},
		{"Root attributes", rep.AttributesOK},
		{"Required children", rep.ChildrenOK},
	}

	tbl := element(atom.Table, "")
	head := element(atom.Thead, "")
	hr := element(atom.Tr, "")
	hr.AppendChild(textElement(atom.Th, "Check"))
	hr.AppendChild(textElement(atom.Th, "Result"))
	head.AppendChild(hr)
	tbl.AppendChild(head)

	body := element(atom.Tbody, "")
	for _, c := range checks {
		tr := element(atom.Tr, "")
		tr.AppendChild(textElement(atom.Td, c.label))
		result := "fail"
		if c.ok {
			result = "pass"
		}
		td := element(atom.Td, "odf-"+result)
		td.AppendChild(text(result))
		tr.AppendChild(td)
		body.AppendChild(tr)
	}
	tbl.AppendChild(body)
	return tbl
}

func appendList(parent *html.Node, heading, class string, items []string) {
	if len(items) == 0 {
		return
	}
	parent.AppendChild(textElement(atom.H3, heading))
	ul := element(atom.Ul, class)
	for _, item := range items {
		ul.AppendChild(textElement(atom.Li, item))
	}
	parent.AppendChild(ul)
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func textElement(a atom.Atom, s string) *html.Node {
	n := element(a, "")
	n.AppendChild(text(s))
	return n
}
