package odf

import (
	"fmt"
	"path"
	"strings"
)

// DeriveName maps an uploaded file name to its package name: a trailing
// ".xml" (any case) becomes ".odt" or ".ods". Names without that suffix, and
// unknown types, are returned unchanged.
func DeriveName(name string, t DocumentType) string {
	ext := t.Extension()
	if ext == "" {
		return name
	}
	const suffix = ".xml"
	if len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		return name[:len(name)-len(suffix)] + ext
	}
	return name
}

// uniqueNames disambiguates repeated names by inserting -2, -3, ... before
// the extension, keeping the first occurrence untouched.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for used[candidate] {
			seen[name]++
			ext := path.Ext(name)
			candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), seen[name]+1, ext)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
