package formdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matthewbaird/formvis/internal/htmlform"
)

// FromHTML reads every form on an HTML page.
func FromHTML(r io.Reader) ([]*Definition, error) {
	doc, err := htmlform.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	var out []*Definition
	for _, f := range doc.Forms() {
		out = append(out, FromForm(f.Form))
	}
	return out, nil
}

// Load decodes data by the extension of name: .json, .cue, or .html/.htm.
func Load(name string, data []byte) ([]*Definition, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		def, err := DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []*Definition{def}, nil
	case ".cue":
		def, err := LoadCUE(name, data)
		if err != nil {
			return nil, err
		}
		return []*Definition{def}, nil
	case ".html", ".htm":
		defs, err := FromHTML(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return defs, nil
	default:
		return nil, fmt.Errorf("%s: unsupported definition format", name)
	}
}

// LoadFile reads and decodes one definition file.
func LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(path, data)
}

// Supported reports whether name has a definition file extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".cue", ".html", ".htm":
		return true
	}
	return false
}

// LoadDir loads every definition file directly inside dir, in name order.
// Every file is attempted; failures are joined.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var defs []*Definition
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		got, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, got...)
	}
	return defs, errors.Join(errs...)
}
