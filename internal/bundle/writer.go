// Package bundle writes language bundles to disk, one file per language.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"resgen/internal/resource"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/afero"
)

// ErrInvalidLanguage is returned for language codes that cannot be used as
// part of a file name inside the output directory.
var ErrInvalidLanguage = errors.New("invalid language code")

const indent = "    "

// FileName returns the artifact name for a language code.
func FileName(lang string) string {
	return "resource." + lang + ".json"
}

// Writer serializes bundles into a target directory. Existing files with the
// same name are overwritten, never merged.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter creates a writer for dir on fs.
func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Report lists what a Write call produced.
type Report struct {
	// Paths are the written files in language order.
	Paths []string
	// Rejected holds language codes skipped by ValidLanguage.
	Rejected []string
}

// Write creates the output directory if needed and writes every bundle in
// groups. Bundles whose language code cannot form a file name are skipped
// and reported. Files written before a failure stay on disk.
func (w *Writer) Write(groups *resource.Groups) (*Report, error) {
	report := &Report{}
	bundles := make([]resource.Bundle, 0, groups.Len())
	for _, b := range groups.Bundles() {
		if err := ValidLanguage(b.Language); err != nil {
			report.Rejected = append(report.Rejected, b.Language)
			continue
		}
		bundles = append(bundles, b)
	}
	if len(bundles) == 0 {
		return report, nil
	}

	if err := w.fs.MkdirAll(w.dir, 0755); err != nil {
		return report, fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	for _, b := range bundles {
		data, err := Encode(b)
		if err != nil {
			return report, fmt.Errorf("failed to encode bundle %q: %w", b.Language, err)
		}
		path := filepath.Join(w.dir, FileName(b.Language))
		if err := afero.WriteFile(w.fs, path, data, 0644); err != nil {
			return report, fmt.Errorf("failed to write %s: %w", path, err)
		}
		report.Paths = append(report.Paths, path)
	}
	return report, nil
}

// Encode renders a bundle as pretty-printed JSON with 4-space indentation.
// HTML characters in values are kept as-is, including inside nested objects.
func Encode(b resource.Bundle) ([]byte, error) {
	entries := make([]resource.Entry, len(b.Resources))
	for i, e := range b.Resources {
		entries[i] = resource.Entry{ID: e.ID, Value: unescaped(e.Value)}
	}
	b.Resources = entries

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// object encodes an ordered map in key order without HTML escaping.
// orderedmap.OrderedMap.MarshalJSON escapes, so nested maps go through here.
type object struct {
	m *orderedmap.OrderedMap
}

func (o object) MarshalJSON() ([]byte, error) {
	if o.m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshal(unescaped(o.m.GetOrNil(key)))
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unescaped wraps ordered maps, at any depth, so they encode without HTML
// escaping.
func unescaped(v any) any {
	switch t := v.(type) {
	case *orderedmap.OrderedMap:
		return object{m: t}
	case orderedmap.OrderedMap:
		return object{m: &t}
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = unescaped(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = unescaped(item)
		}
		return out
	default:
		return v
	}
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ValidLanguage checks that lang can be embedded in a file name without
// escaping the output directory.
func ValidLanguage(lang string) error {
	if lang == "" || lang == "." || lang == ".." || strings.ContainsAny(lang, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return nil
}
