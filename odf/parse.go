package odf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

var (
	errNoRoot          = errors.New("document has no root element")
	errMultipleRoots   = errors.New("document has more than one root element")
	errTextOutsideRoot = errors.New("text content outside the root element")
)

// Document is a parsed content fragment. Element and attribute names keep
// their namespace prefixes ("office:body", "xmlns:office") so rules can be
// expressed as qualified names.
type Document struct {
	tree *etree.Document
}

// Root returns the document element, or nil for a nil Document.
func (d *Document) Root() *etree.Element {
	if d == nil || d.tree == nil {
		return nil
	}
	return d.tree.Root()
}

// byteOrderMark may precede the XML declaration of a UTF-8 document.
const byteOrderMark = "\ufeff"

// Parse reads raw as XML. Malformed input yields a *ParseError and no Document.
// A leading UTF-8 byte-order mark is ignored.
func Parse(raw string) (*Document, error) {
	raw = strings.TrimPrefix(raw, byteOrderMark)
	if err := checkWellFormed(raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := tree.ReadFromString(raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if tree.Root() == nil {
		return nil, &ParseError{Err: errNoRoot}
	}
	return &Document{tree: tree}, nil
}

// checkWellFormed runs a strict token pass. The DOM reader works on raw
// tokens and does not match end tags against start tags, so nesting errors
// are caught here.
func checkWellFormed(raw string) error {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return errMultipleRoots
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errTextOutsideRoot
			}
		}
	}

	if roots == 0 {
		return errNoRoot
	}
	return nil
}

// hasAttr reports whether e carries an attribute with the qualified name key.
func hasAttr(e *etree.Element, key string) bool {
	return attrValue(e, key) != nil
}

func attrValue(e *etree.Element, key string) *string {
	for i := range e.Attr {
		if e.Attr[i].FullKey() == key {
			return &e.Attr[i].Value
		}
	}
	return nil
}

// hasDescendant searches the subtree below e (not e itself) for tag.
func hasDescendant(e *etree.Element, tag string) bool {
	for _, c := range e.ChildElements() {
		if c.FullTag() == tag || hasDescendant(c, tag) {
			return true
		}
	}
	return false
}
