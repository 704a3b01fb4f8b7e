package odf

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const malformedHint = "Please check for missing brackets, quotes, or invalid characters."

func newReport() Report {
	return Report{
		DocType:     TypeUnknown,
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}
}

// Validate checks raw against the structural rules of its detected type.
// It always returns a report. Malformed XML short-circuits with a single
// error; every other check runs even after an earlier one fails.
func Validate(raw string) (report Report) {
	report = newReport()
	defer func() {
		if r := recover(); r != nil {
			report = newReport()
			report.Errors = append(report.Errors, fmt.Sprintf("XML parsing error: %v", r))
		}
	}()

	doc, err := Parse(raw)
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("XML is not well-formed (%v). %s", unwrapParse(err), malformedHint))
		return report
	}
	report.WellFormed = true
	report.DocType = Detect(doc)

	root := doc.Root()
	rs := RulesFor(report.DocType)

	checkRoot(&report, doc)
	if root != nil {
		checkNamespaces(&report, doc, rs)
		checkAttributes(&report, doc, rs)
	}
	checkChildren(&report, doc, rs)
	checkWarnings(&report, doc)

	if report.Ready() {
		report.Suggestions = append(report.Suggestions,
			fmt.Sprintf("Valid %s content.xml. Ready for conversion.", report.DocType.Label()))
	}
	return report
}

func unwrapParse(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func checkRoot(report *Report, doc *Document) {
	found := "none"
	if root := doc.Root(); root != nil {
		found = root.FullTag()
	}
	if found != RootTag {
		report.Errors = append(report.Errors,
			fmt.Sprintf("Root tag must be <%s> but found <%s>.", RootTag, found))
		return
	}
	report.RootTagOK = true
}

func checkNamespaces(report *Report, doc *Document, rs Ruleset) {
	missing := missingAttrs(doc, rs.Namespaces)
	if len(missing) == 0 {
		report.NamespacesOK = true
		return
	}
	label := report.DocType.Label()
	if report.DocType == TypeUnknown {
		label = TypeODT.Label()
	}
	report.Errors = append(report.Errors,
		fmt.Sprintf("Missing required %s namespaces: %s", label, strings.Join(missing, ", ")))
	report.Suggestions = append(report.Suggestions,
		"Add these namespaces to your root tag, e.g. "+attrExamples(missing))
}

func checkAttributes(report *Report, doc *Document, rs Ruleset) {
	missing := missingAttrs(doc, rs.Attributes)
	if len(missing) == 0 {
		report.AttributesOK = true
		return
	}
	report.Errors = append(report.Errors,
		"Missing required attribute(s) on root: "+strings.Join(missing, ", "))
	report.Suggestions = append(report.Suggestions,
		"Add attribute(s) to root, e.g. "+attrExamples(missing))
}

func checkChildren(report *Report, doc *Document, rs Ruleset) {
	if report.DocType == TypeUnknown {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"Could not determine document type: the root must contain <%s> (ODT) or <%s> (ODS).",
			TextBodyTag, SpreadsheetBodyTag))
		return
	}

	root := doc.Root()
	var missing []string
	for _, tag := range rs.Children {
		if root == nil || !hasDescendant(root, tag) {
			missing = append(missing, tag)
		}
	}
	if len(missing) == 0 {
		report.ChildrenOK = true
		return
	}

	examples := make([]string, len(missing))
	for i, tag := range missing {
		examples[i] = fmt.Sprintf("<%s>...</%s>", tag, tag)
	}
	report.Errors = append(report.Errors,
		"Missing required child tag(s): "+strings.Join(missing, ", "))
	report.Suggestions = append(report.Suggestions,
		"Insert these tags inside your root, e.g. "+strings.Join(examples, " "))
}

func checkWarnings(report *Report, doc *Document) {
	root := doc.Root()
	if root == nil || !report.RootTagOK {
		return
	}
	if hasDescendant(root, TextBodyTag) && hasDescendant(root, SpreadsheetBodyTag) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Document contains both <%s> and <%s>; it is treated as ODT.",
			TextBodyTag, SpreadsheetBodyTag))
	}
	if v := attrValue(root, VersionAttr); v != nil && !slices.Contains(knownVersions, *v) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Unrecognized %s %q; expected one of %s.",
			VersionAttr, *v, strings.Join(knownVersions, ", ")))
	}
}

func missingAttrs(doc *Document, names []string) []string {
	root := doc.Root()
	var missing []string
	for _, name := range names {
		if !hasAttr(root, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func attrExamples(names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + `="..."`
	}
	return strings.Join(parts, " ")
}
