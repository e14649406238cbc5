package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/garagon/tatu/internal/language"
)

// File is a discovered file with its content loaded and classified.
// It is never modified after construction.
type File struct {
	Path     string // absolute path, used for I/O only
	RelPath  string // slash-separated path relative to the scan root
	Content  string
	Language language.Language
}

// NewFile builds a File from in-memory content. The language is derived
// from relPath.
func NewFile(relPath, content string) *File {
	relPath = filepath.ToSlash(relPath)
	return &File{
		Path:     relPath,
		RelPath:  relPath,
		Content:  content,
		Language: language.Classify(relPath),
	}
}

// LoadFile reads relPath under root. Content that is not valid UTF-8 is
// rejected so detectors only ever see text.
func LoadFile(root, relPath string) (*File, error) {
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: invalid UTF-8", relPath)
	}
	if a, err := filepath.Abs(abs); err == nil {
		abs = a
	}
	rel := filepath.ToSlash(relPath)
	return &File{
		Path:     abs,
		RelPath:  rel,
		Content:  string(data),
		Language: language.Classify(rel),
	}, nil
}

// Lines returns the content split into lines with line terminators removed.
// A trailing newline does not produce an empty final line.
func (f *File) Lines() []string {
	if f.Content == "" {
		return nil
	}
	lines := strings.Split(f.Content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
