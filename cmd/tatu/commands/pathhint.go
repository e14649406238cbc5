package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// showPathHint prints a one-time tip when the running binary sits in a
// go/bin directory missing from PATH, which is where `go install` puts it.
// The tip is recorded under ~/.tatu so it is shown once.
func showPathHint(w io.Writer) {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	pathHint(w, filepath.Dir(exe), hintMarker(home), os.Getenv("PATH"), os.Getenv("SHELL"))
}

// pathHint is showPathHint with its environment passed in. It reports
// whether the tip was written.
func pathHint(w io.Writer, binDir, marker, pathEnv, shell string) bool {
	if !isGoBinDir(binDir) || dirInPath(binDir, pathEnv) {
		return false
	}
	if _, err := os.Stat(marker); err == nil {
		return false
	}

	rc := shellRC(shell, runtime.GOOS)
	fmt.Fprintf(w, "\nTip: add Go's bin directory to your PATH to run tatu from anywhere:\n\n")
	fmt.Fprintf(w, "  echo 'export PATH=\"%s:$PATH\"' >> %s\n", binDir, rc)
	fmt.Fprintf(w, "  source %s\n\n", rc)

	_ = os.MkdirAll(filepath.Dir(marker), 0o755)
	_ = os.WriteFile(marker, nil, 0o644)
	return true
}

func isGoBinDir(dir string) bool {
	return strings.HasSuffix(filepath.ToSlash(dir), "/go/bin")
}

func dirInPath(dir, pathEnv string) bool {
	for _, p := range filepath.SplitList(pathEnv) {
		if filepath.Clean(p) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// shellRC picks the rc file for the user's shell, falling back to the OS
// default (zsh on macOS, bash elsewhere).
func shellRC(shell, goos string) string {
	switch {
	case strings.Contains(shell, "zsh"):
		return "~/.zshrc"
	case strings.Contains(shell, "bash"):
		return "~/.bashrc"
	case goos == "darwin":
		return "~/.zshrc"
	default:
		return "~/.bashrc"
	}
}

func hintMarker(home string) string {
	return filepath.Join(home, ".tatu", ".path-hint-shown")
}
