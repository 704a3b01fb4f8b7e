// Package odf turns OpenDocument content fragments into complete packages.
//
// The pipeline is a chain of pure steps composed by the caller:
//
//	doc, err := odf.Parse(raw)        // well-formedness
//	t := odf.Detect(doc)              // odt, ods or unknown
//	report := odf.Validate(raw)       // structural checks, never fails
//	data, err := odf.Assemble(raw, t) // mimetype first, stored; rest deflated
//
// Converter bundles these steps with size limits, logging and batch support:
//
//	conv := odf.New(odf.Config{})
//	out, err := conv.Convert(ctx, odf.File{Name: "report.xml", Content: raw})
//	os.WriteFile(out.Name, out.Data, 0o644) // report.odt
package odf

import (
	"context"
	"log/slog"
)

// Converter validates and packages content fragments. It keeps no state
// between calls and is safe for concurrent use.
type Converter struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Converter with the given configuration.
func New(cfg Config) *Converter {
	cfg.defaults()
	return &Converter{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Config returns the effective configuration.
func (c *Converter) Config() Config { return c.cfg }

// Validate runs the structural checks on raw.
func (c *Converter) Validate(raw string) Report {
	report := Validate(raw)
	c.logger.Debug("validated fragment",
		"doc_type", report.DocType, "errors", len(report.Errors), "warnings", len(report.Warnings))
	return report
}

// Convert validates f and, when it passes, assembles its package.
// Cancellation is honored only before work starts.
func (c *Converter) Convert(ctx context.Context, f File) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(f.Content)) > c.cfg.MaxInputBytes {
		return nil, ErrTooLarge
	}

	report := c.Validate(f.Content)
	if !report.OK() {
		return nil, &ValidationError{Name: f.Name, Report: report}
	}

	data, err := Assemble(f.Content, report.DocType,
		WithClock(c.cfg.Now),
		WithCompressionLevel(c.cfg.CompressionLevel))
	if err != nil {
		c.logger.ErrorContext(ctx, "assemble failed", "name", f.Name, "doc_type", report.DocType, "error", err)
		return nil, err
	}

	out := &Output{
		Name:    DeriveName(f.Name, report.DocType),
		DocType: report.DocType,
		Data:    data,
	}
	c.logger.InfoContext(ctx, "converted fragment",
		"name", f.Name, "output", out.Name, "doc_type", out.DocType, "bytes", len(data))
	return out, nil
}
