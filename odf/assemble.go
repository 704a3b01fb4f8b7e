package odf

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"hash/crc32"
	"io"
	"slices"
	"time"
)

// Package entry names.
const (
	EntryMimetype = "mimetype"
	EntryContent  = "content.xml"
	EntryStyles   = "styles.xml"
	EntryMeta     = "meta.xml"
	EntrySettings = "settings.xml"
)

// packageEntries is the write order of every package. The archive writer
// emits entries in call order, so this slice is the physical layout.
var packageEntries = []string{EntryMimetype, EntryContent, EntryStyles, EntryMeta, EntrySettings}

// PackageEntries returns the entry names in the order they are written.
func PackageEntries() []string { return slices.Clone(packageEntries) }

type assembleOptions struct {
	now   func() time.Time
	level int
}

// AssembleOption tunes Assemble.
type AssembleOption func(*assembleOptions)

// WithClock sets the clock used for the meta.xml creation date and entry
// timestamps.
func WithClock(now func() time.Time) AssembleOption {
	return func(o *assembleOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCompressionLevel sets the deflate level for compressed entries.
// Out-of-range levels fall back to flate.DefaultCompression.
func WithCompressionLevel(level int) AssembleOption {
	return func(o *assembleOptions) { o.level = level }
}

// Assemble packages a validated content fragment as an OpenDocument file.
// The mimetype entry is written first and stored uncompressed so viewers can
// sniff the container type from the first bytes. The remaining entries are
// deflated. Callers are expected to gate on a passing Report first.
func Assemble(content string, t DocumentType, opts ...AssembleOption) ([]byte, error) {
	o := assembleOptions{now: time.Now, level: flate.DefaultCompression}
	for _, fn := range opts {
		fn(&o)
	}
	if o.level < flate.HuffmanOnly || o.level > flate.BestCompression {
		o.level = flate.DefaultCompression
	}

	mime, err := MIMEType(t)
	if err != nil {
		return nil, err
	}
	now := o.now().UTC()
	bundle, err := Templates(t, now)
	if err != nil {
		return nil, err
	}

	parts := map[string][]byte{
		EntryMimetype: []byte(mime),
		EntryContent:  []byte(content),
		EntryStyles:   []byte(bundle.Styles),
		EntryMeta:     []byte(bundle.Meta),
		EntrySettings: []byte(bundle.Settings),
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	level := o.level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	for _, name := range packageEntries {
		if name == EntryMimetype {
			err = writeStored(zw, name, parts[name])
		} else {
			err = writeDeflated(zw, name, parts[name], now)
		}
		if err != nil {
			return nil, &AssemblyError{Entry: name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &AssemblyError{Err: err}
	}
	return buf.Bytes(), nil
}

// writeStored writes data uncompressed with sizes and CRC in the local
// header: no data descriptor and no extra field.
func writeStored(zw *zip.Writer, name string, data []byte) error {
	fh := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CreatorVersion:     20,
		ReaderVersion:      20,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	}
	w, err := zw.CreateRaw(fh)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeDeflated(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
