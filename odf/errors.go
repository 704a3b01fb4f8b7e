package odf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when packaging is requested for a fragment that
// is neither a text document nor a spreadsheet.
var ErrUnknownType = errors.New("odf: unknown document type")

// ErrTooLarge is returned when an input exceeds Config.MaxInputBytes.
var ErrTooLarge = errors.New("odf: input too large")

// ErrEmptyBatch is returned when ConvertBatch receives no files.
var ErrEmptyBatch = errors.New("odf: empty batch")

// ParseError reports malformed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("odf: parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is returned by Convert when the fragment fails validation.
// The full report is attached so callers can show every problem at once.
type ValidationError struct {
	Name   string
	Report Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("odf: %s is not a valid content.xml: %s", e.Name, strings.Join(e.Report.Errors, "; "))
}

// AssemblyError reports a failure while writing the package archive.
// Entry is empty when the failure happened while finalizing the archive.
type AssemblyError struct {
	Entry string
	Err   error
}

func (e *AssemblyError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("odf: assemble: %v", e.Err)
	}
	return fmt.Sprintf("odf: assemble %s: %v", e.Entry, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// BatchError identifies the input that made a batch conversion fail.
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("odf: batch file %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
