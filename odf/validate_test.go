package odf

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidate_MinimalODT(t *testing.T) {
	r := Validate(minimalODT)

	if !r.WellFormed || !r.RootTagOK || !r.NamespacesOK || !r.AttributesOK || !r.ChildrenOK {
		t.Fatalf("expected every check to pass, got %+v", r)
	}
	if r.DocType != TypeODT {
		t.Fatalf("doc type = %q, want odt", r.DocType)
	}
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if len(r.Suggestions) != 1 {
		t.Fatalf("expected exactly the ready suggestion, got %v", r.Suggestions)
	}
	last := r.Suggestions[len(r.Suggestions)-1]
	if last != "Valid ODT content.xml. Ready for conversion." {
		t.Fatalf("final suggestion = %q", last)
	}
	if !r.OK() || !r.Ready() {
		t.Fatal("report should be OK and Ready")
	}
}

func TestValidate_MinimalODS(t *testing.T) {
	// WHAT: ODS needs only the reduced namespace set.
	// WHY: Spreadsheets do not use text: or draw: in their root declarations.
	r := Validate(minimalODS)
	if r.DocType != TypeODS {
		t.Fatalf("doc type = %q, want ods", r.DocType)
	}
	if !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if got := r.Suggestions[len(r.Suggestions)-1]; !strings.Contains(got, "Valid ODS content.xml") {
		t.Fatalf("final suggestion = %q", got)
	}
}

func TestValidate_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty":         "",
		"whitespace":    "   \n ",
		"unclosed":      "<office:document-content>",
		"mismatched":    "<a><b></a></b>",
		"two roots":     "<a/><b/>",
		"text outside":  "hello <a/>",
		"unquoted attr": "<a x=1/>",
		"truncated tag": "<office:document-content",
		"bad entity":    "<a>&nope;</a>",
		"trailing text": "<a/>trailing",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			r := Validate(in)
			if r.WellFormed {
				t.Fatal("expected WellFormed=false")
			}
			if r.RootTagOK || r.NamespacesOK || r.AttributesOK || r.ChildrenOK {
				t.Fatalf("all checks must be false after a parse failure: %+v", r)
			}
			if len(r.Errors) != 1 {
				t.Fatalf("expected exactly one error, got %v", r.Errors)
			}
			if !strings.HasPrefix(r.Errors[0], "XML is not well-formed") {
				t.Fatalf("error = %q", r.Errors[0])
			}
			if len(r.Suggestions) != 0 || len(r.Warnings) != 0 {
				t.Fatalf("no suggestions or warnings expected, got %v / %v", r.Suggestions, r.Warnings)
			}
			if r.DocType != TypeUnknown {
				t.Fatalf("doc type = %q, want unknown", r.DocType)
			}
		})
	}
}

func TestValidate_WrongRootTag(t *testing.T) {
	in := strings.NewReplacer(
		"<office:document-content", "<office:document-styles",
		"</office:document-content>", "</office:document-styles>",
	).Replace(minimalODT)

	r := Validate(in)
	if r.RootTagOK {
		t.Fatal("RootTagOK should be false")
	}
	want := "Root tag must be <office:document-content> but found <office:document-styles>."
	if len(r.Errors) == 0 || r.Errors[0] != want {
		t.Fatalf("first error = %v, want %q", r.Errors, want)
	}
	// Remaining checks still run.
	if !r.NamespacesOK || !r.AttributesOK {
		t.Fatalf("namespace and attribute checks should still pass: %+v", r)
	}
	if r.DocType != TypeUnknown {
		t.Fatalf("doc type = %q, want unknown for a foreign root", r.DocType)
	}
	if len(r.Errors) != 2 || !strings.HasPrefix(r.Errors[1], "Could not determine document type") {
		t.Fatalf("expected unknown-type error after root error, got %v", r.Errors)
	}
}

func TestValidate_MissingNamespaces(t *testing.T) {
	in := strings.NewReplacer(
		`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"`, "",
		`xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"`, "",
	).Replace(minimalODT)

	r := Validate(in)
	if r.NamespacesOK {
		t.Fatal("NamespacesOK should be false")
	}
	if len(r.Errors) != 1 {
		t.Fatalf("expected only the namespace error, got %v", r.Errors)
	}
	if want := "Missing required ODT namespaces: xmlns:text, xmlns:draw"; r.Errors[0] != want {
		t.Fatalf("error = %q, want %q", r.Errors[0], want)
	}
	if len(r.Suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %v", r.Suggestions)
	}
	if want := `Add these namespaces to your root tag, e.g. xmlns:text="..." xmlns:draw="..."`; r.Suggestions[0] != want {
		t.Fatalf("suggestion = %q, want %q", r.Suggestions[0], want)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	in := strings.Replace(minimalODT, `office:version="1.2"`, "", 1)

	r := Validate(in)
	if r.AttributesOK {
		t.Fatal("AttributesOK should be false")
	}
	if want := "Missing required attribute(s) on root: office:version"; len(r.Errors) != 1 || r.Errors[0] != want {
		t.Fatalf("errors = %v, want [%q]", r.Errors, want)
	}
	if want := `Add attribute(s) to root, e.g. office:version="..."`; r.Suggestions[0] != want {
		t.Fatalf("suggestion = %q", r.Suggestions[0])
	}
	for _, s := range r.Suggestions {
		if strings.Contains(s, "Ready for conversion") {
			t.Fatal("ready suggestion must not appear when a check fails")
		}
	}
}

func TestValidate_MissingBody(t *testing.T) {
	// WHAT: office:text directly under the root, without office:body.
	// WHY: Presence is checked per tag; only the missing one is reported.
	in := `<office:document-content ` + odtNamespaces + ` office:version="1.2">
  <office:text/>
</office:document-content>`

	r := Validate(in)
	if r.ChildrenOK {
		t.Fatal("ChildrenOK should be false")
	}
	if want := "Missing required child tag(s): office:body"; len(r.Errors) != 1 || r.Errors[0] != want {
		t.Fatalf("errors = %v, want [%q]", r.Errors, want)
	}
	if want := "Insert these tags inside your root, e.g. <office:body>...</office:body>"; r.Suggestions[0] != want {
		t.Fatalf("suggestion = %q", r.Suggestions[0])
	}
}

func TestValidate_UnknownType(t *testing.T) {
	in := `<office:document-content ` + odtNamespaces + ` office:version="1.2">
  <office:body><office:presentation/></office:body>
</office:document-content>`

	r := Validate(in)
	if r.DocType != TypeUnknown {
		t.Fatalf("doc type = %q, want unknown", r.DocType)
	}
	if !r.RootTagOK || !r.NamespacesOK || !r.AttributesOK {
		t.Fatalf("root, namespace and attribute checks should pass: %+v", r)
	}
	if r.ChildrenOK {
		t.Fatal("ChildrenOK must stay false for unknown types")
	}
	if len(r.Errors) != 1 || !strings.HasPrefix(r.Errors[0], "Could not determine document type") {
		t.Fatalf("errors = %v", r.Errors)
	}
	if strings.Contains(r.Errors[0], "Missing required child tag(s)") {
		t.Fatal("unknown type must not produce the generic missing-children message")
	}
}

func TestValidate_BothMarkersWarns(t *testing.T) {
	in := `<office:document-content ` + odtNamespaces + ` office:version="1.2">
  <office:body><office:spreadsheet/><office:text/></office:body>
</office:document-content>`

	r := Validate(in)
	if r.DocType != TypeODT {
		t.Fatalf("doc type = %q, want odt", r.DocType)
	}
	if !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "treated as ODT") {
		t.Fatalf("warnings = %v", r.Warnings)
	}
}

func TestValidate_UnknownVersionWarns(t *testing.T) {
	in := strings.Replace(minimalODT, `office:version="1.2"`, `office:version="9.9"`, 1)

	r := Validate(in)
	if !r.OK() || !r.Ready() {
		t.Fatalf("an unusual version is only a warning: %+v", r)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], `"9.9"`) {
		t.Fatalf("warnings = %v", r.Warnings)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	inputs := []string{minimalODT, minimalODS, "<broken", "<root/>"}
	for _, in := range inputs {
		a, b := Validate(in), Validate(in)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("reports differ for %q:\n%+v\n%+v", in, a, b)
		}
	}
}

func TestValidate_NonUTF8Declaration(t *testing.T) {
	// WHAT: A Latin-1 declaration is decoded instead of rejected.
	// WHY: Office suites still emit ISO-8859-1 fragments.
	in := strings.Replace(minimalODT, `encoding="UTF-8"`, `encoding="ISO-8859-1"`, 1)
	if r := Validate(in); !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestRulesFor_ReturnsCopy(t *testing.T) {
	rs := RulesFor(TypeODT)
	rs.Namespaces[0] = "xmlns:changed"
	if RulesFor(TypeODT).Namespaces[0] != "xmlns:office" {
		t.Fatal("RulesFor must not expose the shared table")
	}
	if got := RulesFor(TypeUnknown).Namespaces; len(got) != 5 {
		t.Fatalf("unknown types use the ODT namespace set, got %v", got)
	}
}

func TestValidate_ByteOrderMark(t *testing.T) {
	// WHAT: A UTF-8 BOM before the declaration is accepted.
	// WHY: Editors on Windows save content.xml that way and XML allows it.
	for name, raw := range map[string]string{
		"odt":            "\ufeff" + minimalODT,
		"ods":            "\ufeff" + minimalODS,
		"no declaration": "\ufeff" + minimalODT[strings.Index(minimalODT, "<office:"):],
	} {
		t.Run(name, func(t *testing.T) {
			r := Validate(raw)
			if !r.WellFormed || !r.Ready() || !r.OK() {
				t.Fatalf("BOM input rejected: %+v", r)
			}
		})
	}
}

func TestValidate_ByteOrderMarkInsideStillMalformed(t *testing.T) {
	r := Validate(minimalODT + "\ufeff")
	if r.WellFormed {
		t.Fatal("a BOM after the root is text outside the root element")
	}
}

func TestValidate_CRLF(t *testing.T) {
	// WHAT: CRLF line endings validate like LF.
	for name, raw := range map[string]string{
		"odt": strings.ReplaceAll(minimalODT, "\n", "\r\n"),
		"ods": strings.ReplaceAll(minimalODS, "\n", "\r\n"),
		"bom": "\ufeff" + strings.ReplaceAll(minimalODT, "\n", "\r\n") + "\r\n",
	} {
		t.Run(name, func(t *testing.T) {
			r := Validate(raw)
			if !r.OK() || !r.Ready() {
				t.Fatalf("CRLF input rejected: %+v", r)
			}
		})
	}
}
