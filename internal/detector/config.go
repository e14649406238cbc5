package detector

import (
	"strings"

	"github.com/garagon/tatu/internal/language"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
)

// ConfigIssuesName is the registry name of the configuration detector.
const ConfigIssuesName = "config-issues"

// DockerRootRuleID anchors on FROM lines and is suppressed for Dockerfiles
// that switch to a non-root user.
const DockerRootRuleID = "CONFIG_006"

// NewConfigIssues returns the detector for risky configuration.
func NewConfigIssues(table []*rules.CompiledRule) *RuleDetector {
	return &RuleDetector{
		name:        ConfigIssuesName,
		description: "Detects dangerous configurations: CORS wildcards, debug mode, insecure cookies, TLS issues",
		rules:       table,
		policy:      SkipComments,
		suppress: map[string]func(*scanner.File) bool{
			DockerRootRuleID: runsAsNonRoot,
		},
	}
}

// runsAsNonRoot reports whether the last USER directive of a Dockerfile
// names a user other than root.
func runsAsNonRoot(f *scanner.File) bool {
	if f.Language != language.Dockerfile {
		return false
	}
	user := ""
	for _, line := range f.Lines() {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "USER") {
			continue
		}
		user, _, _ = strings.Cut(fields[1], ":")
	}
	return user != "" && user != "root" && user != "0"
}
