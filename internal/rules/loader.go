package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxRuleFileSize is the maximum size for a single YAML rule table (1 MB).
const maxRuleFileSize = 1 << 20

// LoadFromFS loads every rule table (*.yaml, *.yml) in fsys, such as the
// embedded built-in tables. Rules that do not name a detector take it from
// the stem of the file they are defined in.
func LoadFromFS(fsys fs.FS) ([]RawRule, error) {
	return loadTables(fsys, "")
}

// LoadFromDir loads rule tables from a directory on disk with the same
// layout as the built-in tables. Unknown YAML keys and tables larger than
// 1 MB are rejected.
func LoadFromDir(dir string) ([]RawRule, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return loadTables(os.DirFS(dir), dir)
}

// loadTables walks fsys in lexical order. dir only prefixes error messages.
func loadTables(fsys fs.FS, dir string) ([]RawRule, error) {
	var all []RawRule
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		name := filepath.Join(dir, filepath.FromSlash(p))
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if info.Size() > maxRuleFileSize {
			return fmt.Errorf("%s: rule table too large (%d bytes, max %d)", name, info.Size(), maxRuleFileSize)
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		table, err := decodeTable(data, stem(p))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		all = append(all, table...)
		return nil
	})
	return all, err
}

// decodeTable reads a stream of "---" separated rule documents. Documents
// without an ID are ignored.
func decodeTable(data []byte, detector string) ([]RawRule, error) {
	var table []RawRule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		var raw RawRule
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return table, nil
			}
			return nil, err
		}
		if raw.ID == "" {
			continue
		}
		if raw.Detector == "" {
			raw.Detector = detector
		}
		table = append(table, raw)
	}
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func isYAML(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
