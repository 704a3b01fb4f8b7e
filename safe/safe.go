// Package safe holds the input guards shared by the CLI, the HTTP service and
// the MCP tools: cleaning client-supplied file names before they reach
// archive entries or response headers, and bounded reads.
package safe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"unicode"
)

// ErrTooLarge is returned when a read exceeds its limit.
var ErrTooLarge = errors.New("safe: input exceeds size limit")

// MaxNameLen caps cleaned file names, in bytes.
const MaxNameLen = 255

// FileName reduces a client-supplied name to its last path element, with
// both / and \ treated as separators and control characters removed. It
// returns def when nothing usable remains.
func FileName(name, def string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch name {
	case ".", "..", "/":
		return def
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if len(name) > MaxNameLen {
		name = truncateKeepExt(name)
	}
	return name
}

// truncateKeepExt shortens name to MaxNameLen bytes without splitting a rune,
// keeping the extension so the .xml suffix still maps to a package name.
func truncateKeepExt(name string) string {
	ext := path.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	limit := MaxNameLen - len(ext)
	for limit > 0 && !utf8Start(stem[limit]) {
		limit--
	}
	return stem[:limit] + ext
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }

// ReadAll reads r fully, failing with ErrTooLarge once more than max bytes
// arrive. max <= 0 disables the limit.
func ReadAll(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return data, nil
}

// ReadFile is ReadAll over the file at name.
func ReadFile(name string, max int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := ReadAll(f, max)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}
