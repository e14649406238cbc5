package rules

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/garagon/tatu/internal/language"
	"github.com/garagon/tatu/internal/types"
)

// SecretGroup is the named capture group a rule uses to mark the part of a
// match that must be redacted from evidence.
const SecretGroup = "secret"

// FilterKind determines which files a rule applies to.
type FilterKind int

const (
	FilterAny       FilterKind = iota // every file
	FilterLanguages                   // files classified to one of Languages
	FilterConfig                      // configuration-like files
)

func (k FilterKind) String() string {
	switch k {
	case FilterLanguages:
		return "languages"
	case FilterConfig:
		return "config"
	default:
		return "any"
	}
}

// RawFilter is the YAML representation of a file-type filter.
type RawFilter struct {
	Kind      string   `yaml:"kind"`
	Languages []string `yaml:"languages"`
	Strict    bool     `yaml:"strict"`
}

// RawExamples contains test examples for rule self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawRule is the YAML representation of a detection rule.
type RawRule struct {
	ID          string      `yaml:"id"`
	Detector    string      `yaml:"detector"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Severity    string      `yaml:"severity"`
	Confidence  string      `yaml:"confidence"`
	CWE         string      `yaml:"cwe"`
	Remediation string      `yaml:"remediation"`
	Pattern     string      `yaml:"pattern"`
	Filter      RawFilter   `yaml:"filter"`
	Examples    RawExamples `yaml:"examples"`
}

// FileFilter decides whether a rule is evaluated against a file.
type FileFilter struct {
	Kind      FilterKind
	Languages []language.Language
	// Strict rejects files whose language is Unknown. Without it an
	// unclassified file is accepted by a language filter.
	Strict bool
}

var configLanguages = []language.Language{language.Yaml, language.Json, language.Toml, language.Env}

var configSuffixes = []string{".env", ".ini", ".conf", ".cfg", ".properties"}

// Accepts reports whether a file with the given path and language passes the filter.
func (f FileFilter) Accepts(relPath string, lang language.Language) bool {
	switch f.Kind {
	case FilterLanguages:
		if lang == language.Unknown {
			return !f.Strict
		}
		return slices.Contains(f.Languages, lang)
	case FilterConfig:
		return IsConfigFile(relPath, lang)
	default:
		return true
	}
}

// IsConfigFile reports whether a file looks like configuration, either by
// language or by its name.
func IsConfigFile(relPath string, lang language.Language) bool {
	if slices.Contains(configLanguages, lang) {
		return true
	}
	name := strings.ToLower(path.Base(relPath))
	if strings.Contains(name, "config") || strings.Contains(name, "settings") {
		return true
	}
	for _, suf := range configSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return name == "docker-compose.yml" || name == "docker-compose.yaml"
}

// CompiledRule is a rule compiled and ready for execution.
type CompiledRule struct {
	ID          string
	Detector    string
	Title       string
	Description string
	Severity    types.Severity
	Confidence  types.Confidence
	CWE         string
	Remediation string
	Pattern     *regexp.Regexp
	Filter      FileFilter
	Examples    RawExamples

	secretIdx int // submatch index of SecretGroup, or -1
}

// Match returns the byte span of the redactable part of the first match in
// line: the SecretGroup when the pattern declares one and it participated,
// otherwise the whole match. ok is false when the line does not match.
func (r *CompiledRule) Match(line string) (start, end int, ok bool) {
	loc := r.Pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, 0, false
	}
	if r.secretIdx > 0 && loc[2*r.secretIdx] >= 0 {
		return loc[2*r.secretIdx], loc[2*r.secretIdx+1], true
	}
	return loc[0], loc[1], true
}

// Matches reports whether line matches the rule pattern.
func (r *CompiledRule) Matches(line string) bool {
	return r.Pattern.MatchString(line)
}
