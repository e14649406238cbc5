package detector

import (
	"fmt"
	"strings"
	"sync"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/rules/builtin"
	"github.com/garagon/tatu/internal/scanner"
)

// constructors lists the detectors in registry order.
var constructors = []struct {
	name string
	new  func([]*rules.CompiledRule) *RuleDetector
}{
	{SecretsName, NewSecrets},
	{DangerousFunctionsName, NewDangerousFunctions},
	{ConfigIssuesName, NewConfigIssues},
}

var builtinCatalog = sync.OnceValues(func() ([]*rules.CompiledRule, error) {
	raws, err := rules.LoadFromFS(builtin.FS())
	if err != nil {
		return nil, fmt.Errorf("loading built-in rules: %w", err)
	}
	compiled, errs := rules.CompileAll(raws)
	if len(errs) > 0 {
		return nil, fmt.Errorf("compiling built-in rules: %w", errs[0])
	}
	return compiled, nil
})

// Catalog returns the compiled built-in rules. The catalog is built once;
// callers must not modify the returned rules.
func Catalog() ([]*rules.CompiledRule, error) {
	return builtinCatalog()
}

// Registry is the fixed set of detectors available to a scan.
type Registry struct {
	detectors []*RuleDetector
}

// Builtin returns a registry holding every built-in detector with its full
// rule table.
func Builtin() (*Registry, error) {
	compiled, err := Catalog()
	if err != nil {
		return nil, err
	}
	return NewRegistry(compiled)
}

// NewRegistry builds the detectors from a rule set. Each rule is routed to
// the detector it names; a rule naming an unknown detector is an error.
func NewRegistry(compiled []*rules.CompiledRule) (*Registry, error) {
	byDetector := rules.ByDetector(compiled)
	reg := &Registry{}
	for _, c := range constructors {
		reg.detectors = append(reg.detectors, c.new(byDetector[c.name]))
		delete(byDetector, c.name)
	}
	for name, rs := range byDetector {
		if len(rs) > 0 {
			return nil, fmt.Errorf("rule %s: unknown detector %q", rs[0].ID, name)
		}
	}
	return reg, nil
}

// Names returns the detector names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.detectors))
	for _, d := range r.detectors {
		names = append(names, d.Name())
	}
	return names
}

// All returns every detector in registry order.
func (r *Registry) All() []scanner.Detector {
	out := make([]scanner.Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		out = append(out, d)
	}
	return out
}

// Lookup finds a detector by exact, case-insensitive name.
func (r *Registry) Lookup(name string) (*RuleDetector, bool) {
	name = strings.TrimSpace(name)
	for _, d := range r.detectors {
		if strings.EqualFold(d.Name(), name) {
			return d, true
		}
	}
	return nil, false
}

// Select returns the detectors matching names, in registry order. Unknown
// names are ignored and duplicates collapse.
func (r *Registry) Select(names []string) []scanner.Detector {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if d, ok := r.Lookup(n); ok {
			want[d.Name()] = true
		}
	}
	var out []scanner.Detector
	for _, d := range r.detectors {
		if want[d.Name()] {
			out = append(out, d)
		}
	}
	return out
}

// Without returns the detectors not named in names, in registry order.
func (r *Registry) Without(names []string) []scanner.Detector {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if d, ok := r.Lookup(n); ok {
			drop[d.Name()] = true
		}
	}
	var out []scanner.Detector
	for _, d := range r.detectors {
		if !drop[d.Name()] {
			out = append(out, d)
		}
	}
	return out
}

// Rules returns every rule in registry order.
func (r *Registry) Rules() []*rules.CompiledRule {
	var out []*rules.CompiledRule
	for _, d := range r.detectors {
		out = append(out, d.Rules()...)
	}
	return out
}

// Rule finds a rule by case-insensitive ID.
func (r *Registry) Rule(id string) (*rules.CompiledRule, bool) {
	id = strings.TrimSpace(id)
	for _, d := range r.detectors {
		for _, rule := range d.Rules() {
			if strings.EqualFold(rule.ID, id) {
				return rule, true
			}
		}
	}
	return nil, false
}

// Load builds a registry from the built-in rules plus the rule files found in
// extraDir, which may be empty. Overrides are applied last. Rules that fail to
// compile, duplicate IDs and invalid overrides are returned as warnings and
// do not stop the load.
func Load(extraDir string, overrides map[string]rules.RuleOverride) (*Registry, []error, error) {
	compiled, err := Catalog()
	if err != nil {
		return nil, nil, err
	}
	var warnings []error
	if extraDir != "" {
		raws, err := rules.LoadFromFS(builtin.FS())
		if err != nil {
			return nil, nil, fmt.Errorf("loading built-in rules: %w", err)
		}
		custom, err := rules.LoadFromDir(extraDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading custom rules from %s: %w", extraDir, err)
		}
		compiled, warnings = rules.CompileAll(append(raws, custom...))
	}
	if len(overrides) > 0 {
		var errs []error
		compiled, errs = rules.ApplyOverrides(compiled, overrides)
		warnings = append(warnings, errs...)
	}
	reg, err := NewRegistry(compiled)
	if err != nil {
		return nil, warnings, err
	}
	return reg, warnings, nil
}

// Pick returns the detectors named in enable, or every detector when enable
// is empty, minus those named in disable.
func (r *Registry) Pick(enable, disable []string) []scanner.Detector {
	names := r.Names()
	if len(enable) > 0 {
		names = names[:0]
		for _, d := range r.Select(enable) {
			names = append(names, d.Name())
		}
	}
	drop := make(map[string]bool, len(disable))
	for _, n := range disable {
		if d, ok := r.Lookup(n); ok {
			drop[d.Name()] = true
		}
	}
	var out []scanner.Detector
	for _, n := range names {
		if !drop[n] {
			d, _ := r.Lookup(n)
			out = append(out, d)
		}
	}
	return out
}
