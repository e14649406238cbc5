// Package builtin embeds the YAML rule tables via go:embed. Each file holds
// the rules of one detector, named after the file stem.
package builtin

import "embed"

//go:embed *.yaml
var builtinRules embed.FS

// FS returns the embedded filesystem containing built-in rules.
func FS() embed.FS {
	return builtinRules
}
