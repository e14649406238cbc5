package detector

import "github.com/garagon/tatu/internal/rules"

// DangerousFunctionsName is the registry name of the dangerous functions detector.
const DangerousFunctionsName = "dangerous-functions"

// NewDangerousFunctions returns the detector for dangerous calls such as
// eval, shell execution, injectable SQL, unsafe deserialization and weak hashes.
func NewDangerousFunctions(table []*rules.CompiledRule) *RuleDetector {
	return &RuleDetector{
		name:        DangerousFunctionsName,
		description: "Detects dangerous function calls: eval, exec, SQL injection patterns, unsafe deserialization, weak crypto",
		rules:       table,
		policy:      SkipComments,
	}
}
