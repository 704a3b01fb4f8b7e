package odf

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchName is the file name of a batch archive.
const DefaultBatchName = "converted_odf_files.zip"

// ConvertBatch converts every file and bundles the packages into one outer
// archive, in input order. It is all-or-nothing: the first failing file
// aborts the batch with a *BatchError and no archive is returned.
func (c *Converter) ConvertBatch(ctx context.Context, files []File) (*Output, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]*Output, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, f := range files {
		g.Go(func() error {
			out, err := c.Convert(gctx, f)
			if err != nil {
				return &BatchError{Index: i, Name: f.Name, Err: err}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.WarnContext(ctx, "batch failed", "files", len(files), "error", err)
		return nil, err
	}

	data, err := c.bundle(results)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "batch converted", "files", len(files), "bytes", len(data))
	return &Output{Name: DefaultBatchName, DocType: TypeUnknown, Data: data}, nil
}

// bundle writes packages into a plain zip container. Entry order follows the
// results slice, which is indexed by input position.
func (c *Converter) bundle(results []*Output) ([]byte, error) {
	names := make([]string, len(results))
	for i, out := range results {
		names[i] = out.Name
	}
	names = uniqueNames(names)

	now := c.cfg.Now()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, out := range results {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names[i],
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, &AssemblyError{Entry: names[i], Err: err}
		}
		if _, err := w.Write(out.Data); err != nil {
			return nil, &AssemblyError{Entry: names[i], Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &AssemblyError{Err: fmt.Errorf("close batch archive: %w", err)}
	}
	return buf.Bytes(), nil
}
