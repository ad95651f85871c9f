package buildhook

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DepFile is a Compilation that records dependencies in Make syntax:
//
//	src/resources: texts/resources.json
//	texts/resources.json:
//
// The empty rule per dependency keeps make working when a dependency is
// deleted.
type DepFile struct {
	target   string
	deps     []string
	seen     map[string]bool
	warnings []string
}

// NewDepFile creates a dependency file for target.
func NewDepFile(target string) *DepFile {
	return &DepFile{target: target, seen: make(map[string]bool)}
}

// AddFileDependency implements Compilation. Duplicates are ignored.
func (d *DepFile) AddFileDependency(path string) {
	if path == "" || d.seen[path] {
		return
	}
	d.seen[path] = true
	d.deps = append(d.deps, path)
}

// Warn implements Compilation.
func (d *DepFile) Warn(msg string) {
	d.warnings = append(d.warnings, msg)
}

// Dependencies returns the registered files in order.
func (d *DepFile) Dependencies() []string {
	return append([]string(nil), d.deps...)
}

// Warnings returns the recorded warnings.
func (d *DepFile) Warnings() []string {
	return append([]string(nil), d.warnings...)
}

// WriteTo writes the rules to w.
func (d *DepFile) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(escapeMake(d.target))
	buf.WriteByte(':')
	for _, dep := range d.deps {
		buf.WriteByte(' ')
		buf.WriteString(escapeMake(dep))
	}
	buf.WriteByte('\n')
	for _, dep := range d.deps {
		buf.WriteString(escapeMake(dep))
		buf.WriteString(":\n")
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Save writes the rules of every file to path, creating parent directories.
func Save(fs afero.Fs, path string, files ...*DepFile) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create depfile directory: %w", err)
	}
	var buf bytes.Buffer
	for _, d := range files {
		if _, err := d.WriteTo(&buf); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write depfile %s: %w", path, err)
	}
	return nil
}

var makeEscaper = strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")

func escapeMake(s string) string {
	return makeEscaper.Replace(filepath.ToSlash(s))
}
