package odf

// Marker elements that classify a fragment.
const (
	TextBodyTag        = "office:text"
	SpreadsheetBodyTag = "office:spreadsheet"
)

// Detect classifies a parsed fragment. It fails closed: a nil document, a
// missing root or a foreign root tag all give TypeUnknown.
//
// The text marker is tested first, so a fragment carrying both markers is ODT.
func Detect(doc *Document) DocumentType {
	root := doc.Root()
	if root == nil || root.FullTag() != RootTag {
		return TypeUnknown
	}
	switch {
	case hasDescendant(root, TextBodyTag):
		return TypeODT
	case hasDescendant(root, SpreadsheetBodyTag):
		return TypeODS
	}
	return TypeUnknown
}

// DetectString parses raw and classifies it, returning TypeUnknown for
// malformed input.
func DetectString(raw string) DocumentType {
	doc, err := Parse(raw)
	if err != nil {
		return TypeUnknown
	}
	return Detect(doc)
}
