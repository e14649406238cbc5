package scanner_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/garagon/tatu/internal/scanner"
)

// initRepo creates a repository under dir with one commit holding files.
func initRepo(t *testing.T, dir string, files map[string]string) *git.Worktree {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for rel, content := range files {
		writeFile(t, dir, rel, content)
		_, err := wt.Add(rel)
		require.NoError(t, err)
	}
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return wt
}

func TestChangedFilesModifiedStagedAndUntracked(t *testing.T) {
	dir := t.TempDir()
	wt := initRepo(t, dir, map[string]string{
		"committed.go": "package a",
		"staged.go":    "package a",
		"removed.go":   "package a",
		"clean.go":     "package a",
	})

	writeFile(t, dir, "committed.go", "package b")
	writeFile(t, dir, "staged.go", "package b")
	_, err := wt.Add("staged.go")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "removed.go")))
	writeFile(t, dir, "untracked.py", "x = 1")
	writeFile(t, dir, "image.png", "\x89PNG")

	files, err := scanner.ChangedFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"committed.go", "staged.go", "untracked.py"}, files)
}

func TestChangedFilesRelativeToSubdirectory(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"README.md": "# repo"})

	writeFile(t, dir, "README.md", "# changed")
	writeFile(t, dir, "svc/api/handler.go", "package api")

	files, err := scanner.ChangedFiles(filepath.Join(dir, "svc"))
	require.NoError(t, err)
	require.Equal(t, []string{"api/handler.go"}, files)
}

func TestChangedFilesCleanTree(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"main.go": "package main"})

	files, err := scanner.ChangedFiles(dir)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestChangedFilesOutsideRepository(t *testing.T) {
	files, err := scanner.ChangedFiles(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, files)
}
