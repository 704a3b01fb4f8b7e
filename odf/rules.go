package odf

import "slices"

// RootTag is the qualified name every content fragment must use as its root.
const RootTag = "office:document-content"

// VersionAttr is the root attribute carrying the ODF version.
const VersionAttr = "office:version"

// Ruleset lists the structural requirements for one document type.
// Order matters: missing names are reported in declared order.
type Ruleset struct {
	Namespaces []string `json:"namespaces"`
	Attributes []string `json:"attributes"`
	Children   []string `json:"children"`
}

var rules = map[DocumentType]Ruleset{
	TypeODT: {
		Namespaces: []string{"xmlns:office", "xmlns:text", "xmlns:style", "xmlns:table", "xmlns:draw"},
		Attributes: []string{VersionAttr},
		Children:   []string{"office:body", TextBodyTag},
	},
	TypeODS: {
		Namespaces: []string{"xmlns:office", "xmlns:style", "xmlns:table"},
		Attributes: []string{VersionAttr},
		Children:   []string{"office:body", SpreadsheetBodyTag},
	},
}

// knownVersions are the published ODF versions. Others only raise a warning.
var knownVersions = []string{"1.0", "1.1", "1.2", "1.3", "1.4"}

// RulesFor returns a copy of the ruleset for t. Unknown types get the ODT
// namespace and attribute rules, the strictest set.
func RulesFor(t DocumentType) Ruleset {
	rs, ok := rules[t]
	if !ok {
		rs = rules[TypeODT]
	}
	return Ruleset{
		Namespaces: slices.Clone(rs.Namespaces),
		Attributes: slices.Clone(rs.Attributes),
		Children:   slices.Clone(rs.Children),
	}
}
