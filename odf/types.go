package odf

// DocumentType identifies the OpenDocument subtype a content fragment targets.
type DocumentType string

const (
	TypeODT     DocumentType = "odt"
	TypeODS     DocumentType = "ods"
	TypeUnknown DocumentType = "unknown"
)

// Label returns the upper-case name used in user-facing messages.
func (t DocumentType) Label() string {
	switch t {
	case TypeODT:
		return "ODT"
	case TypeODS:
		return "ODS"
	default:
		return "unknown"
	}
}

// Extension returns the package file extension, or "" for unknown types.
func (t DocumentType) Extension() string {
	switch t {
	case TypeODT:
		return ".odt"
	case TypeODS:
		return ".ods"
	default:
		return ""
	}
}

// Report is the outcome of validating one content fragment.
// It is created per input and never mutated after Validate returns.
type Report struct {
	WellFormed   bool         `json:"well_formed"`
	RootTagOK    bool         `json:"root_tag_ok"`
	NamespacesOK bool         `json:"namespaces_ok"`
	AttributesOK bool         `json:"attributes_ok"`
	ChildrenOK   bool         `json:"children_ok"`
	DocType      DocumentType `json:"doc_type"`
	Errors       []string     `json:"errors"`
	Warnings     []string     `json:"warnings"`
	Suggestions  []string     `json:"suggestions"`
}

// OK reports whether the fragment may be converted. Only the error list counts.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Ready reports whether every structural check passed.
func (r Report) Ready() bool {
	return r.WellFormed && r.RootTagOK && r.NamespacesOK && r.AttributesOK && r.ChildrenOK
}

// File is a named content fragment submitted for conversion.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Output is a named archive ready for download.
type Output struct {
	Name    string       `json:"name"`
	DocType DocumentType `json:"doc_type"`
	Data    []byte       `json:"-"`
}
