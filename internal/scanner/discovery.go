package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
)

// IgnoreFile is the project-level ignore file, read from the scan root.
// It uses gitignore syntax.
const IgnoreFile = ".tatuignore"

// Discovery walks a directory and returns the files worth scanning.
type Discovery struct {
	// Include keeps only files whose lower-cased name contains a pattern,
	// whose extension equals a pattern, or that match a glob pattern.
	Include []string
	// Exclude drops files and prunes directories matching a glob pattern.
	Exclude []string
	// MaxFileSize skips larger files without reading them. Zero disables it.
	MaxFileSize int64
	Logger      *zap.Logger
}

// Path fragments that never contain code worth scanning.
var deniedPathParts = []string{
	"node_modules",
	".git",
	"target/debug",
	"target/release",
	"__pycache__",
	".pyc",
	"venv/",
	".venv/",
	".tox/",
	"dist/",
	"build/",
	".next/",
	".nuxt/",
	".output/",
	"coverage/",
	".nyc_output/",
	".cache/",
	".idea/",
	".vscode/",
	".vs/",
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".obj": true, ".o": true, ".a": true, ".lib": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".svg": true, ".webp": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wav": true, ".flac": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".wasm": true, ".class": true, ".pyc": true, ".pyo": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

func isBinaryExt(p string) bool {
	return binaryExts[strings.ToLower(path.Ext(p))]
}

// Discover walks root and returns slash-separated paths relative to root.
// Symlinks are never followed and unreadable directories are skipped.
// The order of the result is unspecified.
func (d *Discovery) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	f := d.newFilter(root)
	var paths []string
	err = filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			d.logger().Debug("walk error", zap.String("path", p), zap.Error(err))
			return nil
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if de.IsDir() {
			if f.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !de.Type().IsRegular() || !f.acceptFile(rel) {
			return nil
		}
		if d.MaxFileSize > 0 {
			fi, err := de.Info()
			if err != nil || fi.Size() > d.MaxFileSize {
				return nil
			}
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

// Filter applies the discovery rules to an explicit list of relative paths,
// as produced by a git change set. Paths that no longer exist are dropped.
func (d *Discovery) Filter(root string, relPaths []string) []string {
	f := d.newFilter(root)
	var out []string
	for _, rel := range relPaths {
		rel = filepath.ToSlash(filepath.Clean(rel))
		if !f.acceptParents(rel) || !f.acceptFile(rel) {
			continue
		}
		fi, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		if d.MaxFileSize > 0 && fi.Size() > d.MaxFileSize {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func (d *Discovery) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

type pathFilter struct {
	ignore gitignore.Matcher
	// prefix is the scan root's location inside the enclosing work tree.
	prefix  []string
	include []string
	exclude []string
}

func (d *Discovery) newFilter(root string) *pathFilter {
	log := d.logger()
	f := &pathFilter{}

	top, prefix := workTree(root)
	f.prefix = prefix

	var ps []gitignore.Pattern
	rootFS := osfs.New("/")
	if system, err := gitignore.LoadSystemPatterns(rootFS); err == nil {
		ps = append(ps, system...)
	}
	if global, err := gitignore.LoadGlobalPatterns(rootFS); err == nil {
		ps = append(ps, global...)
	}
	// Ignore rules above the scan root still govern it.
	if len(prefix) > 0 {
		ps = append(ps, readIgnoreFile(filepath.Join(top, ".git", "info", "exclude"), nil)...)
		for i := range prefix {
			dir := filepath.Join(top, filepath.Join(prefix[:i]...))
			ps = append(ps, readIgnoreFile(filepath.Join(dir, ".gitignore"), prefix[:i])...)
		}
	}
	local, err := gitignore.ReadPatterns(osfs.New(top), slices.Clip(prefix))
	if err != nil {
		log.Debug("reading gitignore files", zap.String("root", top), zap.Error(err))
	}
	ps = append(ps, local...)
	ps = append(ps, readIgnoreFile(filepath.Join(root, IgnoreFile), prefix)...)
	f.ignore = gitignore.NewMatcher(ps)

	for _, p := range d.Exclude {
		p = normalizePattern(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			log.Warn("ignoring invalid exclude pattern", zap.String("pattern", p))
			continue
		}
		f.exclude = append(f.exclude, p)
	}
	for _, p := range d.Include {
		p = strings.ToLower(normalizePattern(p))
		if p == "" {
			continue
		}
		if isGlob(p) && !doublestar.ValidatePattern(p) {
			log.Warn("ignoring invalid include pattern", zap.String("pattern", p))
			continue
		}
		f.include = append(f.include, p)
	}
	return f
}

// workTree returns the top of the git work tree enclosing dir and the path
// of dir inside it. Outside a repository dir is its own top.
func workTree(dir string) (string, []string) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return dir, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return dir, nil
	}
	top, err := resolvePath(wt.Filesystem.Root())
	if err != nil {
		return dir, nil
	}
	base, err := resolvePath(dir)
	if err != nil {
		return dir, nil
	}
	rel, err := filepath.Rel(top, base)
	if err != nil {
		return dir, nil
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return dir, nil
	}
	return top, strings.Split(rel, "/")
}

func readIgnoreFile(p string, domain []string) []gitignore.Pattern {
	fh, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer fh.Close()

	var ps []gitignore.Pattern
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	return ps
}

func normalizePattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDenied(lowerRel string) bool {
	for _, part := range deniedPathParts {
		if strings.Contains(lowerRel, part) {
			return true
		}
	}
	return false
}

func (f *pathFilter) excluded(rel string) bool {
	base := path.Base(rel)
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (f *pathFilter) included(rel string) bool {
	if len(f.include) == 0 {
		return true
	}
	lowerRel := strings.ToLower(rel)
	name := path.Base(lowerRel)
	ext := strings.TrimPrefix(path.Ext(name), ".")
	for _, p := range f.include {
		if strings.Contains(name, p) {
			return true
		}
		if ext != "" && ext == strings.TrimPrefix(p, ".") {
			return true
		}
		if isGlob(p) {
			if ok, _ := doublestar.Match(p, lowerRel); ok {
				return true
			}
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
	}
	return false
}

func (f *pathFilter) skipDir(rel string) bool {
	if isHidden(path.Base(rel)) {
		return true
	}
	if isDenied(strings.ToLower(rel) + "/") {
		return true
	}
	if f.excluded(rel) {
		return true
	}
	return f.ignored(rel, true)
}

// acceptParents checks every ancestor directory of rel the way a walk would.
func (f *pathFilter) acceptParents(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if f.skipDir(strings.Join(parts[:i], "/")) {
			return false
		}
	}
	return true
}

func (f *pathFilter) ignored(rel string, isDir bool) bool {
	parts := append(slices.Clip(f.prefix), strings.Split(rel, "/")...)
	return f.ignore.Match(parts, isDir)
}

func (f *pathFilter) acceptFile(rel string) bool {
	if isHidden(path.Base(rel)) {
		return false
	}
	if isDenied(strings.ToLower(rel)) || isBinaryExt(rel) {
		return false
	}
	if f.excluded(rel) {
		return false
	}
	if f.ignored(rel, false) {
		return false
	}
	return f.included(rel)
}
