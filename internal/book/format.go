// Package book decodes documents into plain text and assembles the
// pagination and chapter views over the result.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrContentEmpty marks content that is empty or whitespace-only after
// decoding. The engine still produces a single placeholder page; the
// error is what the UI surfaces as "no readable content".
var ErrContentEmpty = errors.New("no readable content")

// DecodeError wraps a decoder failure. Decoders never hand back partial
// content silently; a broken document is this error, not a shorter book.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Document is a decoded book: plain text content plus whatever metadata
// the source format carries.
type Document struct {
	Title   string
	Author  string
	Content string
}

// Format defines a file format decoder.
type Format interface {
	Name() string
	Extensions() []string
	Decode(filename string) (*Document, error)
}

var registry []Format

// Register adds a format decoder to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Decode reads a file through its registered format, or as plain text
// when no format claims the extension.
func Decode(filename string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Decode(filename)
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &DecodeError{Path: filename, Err: err}
	}
	return &Document{Title: titleFromPath(filename), Content: string(data)}, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

func titleFromPath(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
