package detector

import (
	"strings"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
)

// SecretsName is the registry name of the secrets detector.
const SecretsName = "secrets"

// Dependency trees, lock files and build artifacts produce only noise.
var secretsSkipPaths = []string{
	"node_modules/",
	".git/",
	"vendor/",
	"target/",
	".next/",
	"dist/",
	"build/",
	"__pycache__/",
	".pyc",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"cargo.lock",
	"go.sum",
	"poetry.lock",
	"gemfile.lock",
	".min.js",
	".min.css",
	".map",
	".wasm",
}

// NewSecrets returns the detector for hardcoded secrets. Matched secrets are
// redacted in the evidence of every finding.
func NewSecrets(table []*rules.CompiledRule) *RuleDetector {
	return &RuleDetector{
		name:        SecretsName,
		description: "Detects hardcoded secrets, API keys, tokens, and credentials",
		rules:       table,
		policy:      SkipExampleComments,
		redact:      true,
		skipFile:    skipSecretsPath,
	}
}

func skipSecretsPath(f *scanner.File) bool {
	p := strings.ToLower(f.RelPath)
	for _, s := range secretsSkipPaths {
		if strings.Contains(p, s) {
			return true
		}
	}
	return false
}
