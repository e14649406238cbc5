// Package language classifies files into the closed set of languages the
// detectors know how to scope rules to.
package language

import (
	"fmt"
	"path"
	"strings"
)

// Language identifies the source or configuration language of a file.
// Unknown is the zero value and means no classification applies.
type Language int

const (
	Unknown Language = iota
	JavaScript
	TypeScript
	Python
	Go
	Rust
	Java
	Ruby
	PHP
	CSharp
	Shell
	Yaml
	Json
	Toml
	Dockerfile
	Env
)

var names = map[Language]string{
	Unknown:    "unknown",
	JavaScript: "javascript",
	TypeScript: "typescript",
	Python:     "python",
	Go:         "go",
	Rust:       "rust",
	Java:       "java",
	Ruby:       "ruby",
	PHP:        "php",
	CSharp:     "csharp",
	Shell:      "shell",
	Yaml:       "yaml",
	Json:       "json",
	Toml:       "toml",
	Dockerfile: "dockerfile",
	Env:        "env",
}

var extensions = map[string]Language{
	"js":   JavaScript,
	"mjs":  JavaScript,
	"cjs":  JavaScript,
	"jsx":  JavaScript,
	"ts":   TypeScript,
	"tsx":  TypeScript,
	"mts":  TypeScript,
	"cts":  TypeScript,
	"py":   Python,
	"pyw":  Python,
	"rs":   Rust,
	"go":   Go,
	"java": Java,
	"rb":   Ruby,
	"php":  PHP,
	"cs":   CSharp,
	"sh":   Shell,
	"bash": Shell,
	"zsh":  Shell,
	"yml":  Yaml,
	"yaml": Yaml,
	"json": Json,
	"toml": Toml,
	"env":  Env,
}

func (l Language) String() string {
	if n, ok := names[l]; ok {
		return n
	}
	return "unknown"
}

// Parse converts a language name (as used in rule files) to a Language.
// Unknown is not a valid rule target and is rejected.
func Parse(s string) (Language, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	switch want {
	case "js":
		return JavaScript, nil
	case "ts":
		return TypeScript, nil
	case "c#", "cs":
		return CSharp, nil
	case "yml":
		return Yaml, nil
	}
	for l, n := range names {
		if l != Unknown && n == want {
			return l, nil
		}
	}
	return Unknown, fmt.Errorf("unknown language: %q", s)
}

func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Language) UnmarshalText(text []byte) error {
	lang, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = lang
	return nil
}

// Classify maps a file path to its Language. The extension is consulted
// first; files without a known extension fall back to a name match.
func Classify(p string) Language {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	lower := strings.ToLower(base)

	if i := strings.LastIndexByte(lower, '.'); i >= 0 && i < len(lower)-1 {
		if l, ok := extensions[lower[i+1:]]; ok {
			return l
		}
	}

	switch {
	case lower == "dockerfile", lower == "containerfile":
		return Dockerfile
	case strings.HasPrefix(lower, ".env"):
		return Env
	}
	return Unknown
}
