package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garagon/tatu/internal/meta"
	"github.com/garagon/tatu/internal/types"
)

// Scanner orchestrates the scanning process.
type Scanner struct {
	detectors []Detector
	workers   int
	discovery Discovery
	logger    *zap.Logger
}

// New creates a new Scanner with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func New(workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		workers: workers,
		logger:  zap.NewNop(),
	}
}

// RegisterDetector adds a detector to the scanner pipeline.
func (s *Scanner) RegisterDetector(d Detector) {
	s.detectors = append(s.detectors, d)
}

// Detectors returns the names of the registered detectors in registration order.
func (s *Scanner) Detectors() []string {
	names := make([]string, 0, len(s.detectors))
	for _, d := range s.detectors {
		names = append(names, d.Name())
	}
	return names
}

// SetDiscovery configures include/exclude patterns and the size limit.
func (s *Scanner) SetDiscovery(d Discovery) {
	s.discovery = d
}

// SetLogger sets the logger used for skipped files and detector failures.
func (s *Scanner) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
	s.discovery.Logger = l
}

// Scan performs a full scan of root. The root can be a directory (walked
// recursively) or a single file, which goes through the same discovery rules.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanReport, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		paths := s.discovery.Filter(filepath.Dir(root), []string{filepath.Base(root)})
		return s.scanPaths(ctx, filepath.Dir(root), root, paths, start)
	}

	paths, err := s.discovery.Discover(root)
	if err != nil {
		return nil, err
	}
	return s.scanPaths(ctx, root, root, paths, start)
}

// ScanPaths scans an explicit list of paths relative to root, such as a git
// change set. The discovery rules still apply to every path.
func (s *Scanner) ScanPaths(ctx context.Context, root string, relPaths []string) (*ScanReport, error) {
	start := time.Now()
	paths := s.discovery.Filter(root, relPaths)
	return s.scanPaths(ctx, root, root, paths, start)
}

func (s *Scanner) scanPaths(ctx context.Context, base, display string, paths []string, start time.Time) (*ScanReport, error) {
	s.logger.Debug("discovered files", zap.String("root", display), zap.Int("count", len(paths)))

	files, err := s.readFiles(ctx, base, paths)
	if err != nil {
		return nil, err
	}

	findings, err := s.ScanFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	return s.newReport(display, start, len(files), len(paths)-len(files), findings), nil
}

// ScanMemory scans files that were never written to disk, such as editor
// buffers, and wraps the findings in a report.
func (s *Scanner) ScanMemory(ctx context.Context, files []*File) (*ScanReport, error) {
	start := time.Now()
	findings, err := s.ScanFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	return s.newReport("", start, len(files), 0, findings), nil
}

func (s *Scanner) newReport(root string, start time.Time, scanned, skipped int, findings []Finding) *ScanReport {
	return &ScanReport{
		ScanID:       uuid.NewString(),
		Timestamp:    start.UTC().Format(time.RFC3339),
		Root:         root,
		FilesScanned: scanned,
		FilesSkipped: skipped,
		Detectors:    s.Detectors(),
		Findings:     findings,
		Summary:      types.NewSummary(findings),
		Duration:     time.Since(start),
	}
}

// readFiles loads and classifies every path in parallel. Files that cannot
// be read or are not valid UTF-8 are dropped from the result.
func (s *Scanner) readFiles(ctx context.Context, root string, paths []string) ([]*File, error) {
	slots := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := LoadFile(root, rel)
			if err != nil {
				s.logger.Debug("skipping file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			slots[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			files = append(files, f)
		}
	}
	return files, nil
}

// ScanFiles runs every registered detector over every file and returns the
// merged findings.
func (s *Scanner) ScanFiles(ctx context.Context, files []*File) ([]Finding, error) {
	results := make([][]Finding, len(files))

	fileCh := make(chan int, len(files))
	for i := range files {
		fileCh <- i
	}
	close(fileCh)

	var wg sync.WaitGroup
	for range s.workers {
		wg.Go(func() {
			for i := range fileCh {
				if ctx.Err() != nil {
					return
				}
				for _, d := range s.detectors {
					results[i] = append(results[i], s.runDetector(d, files[i])...)
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []Finding
	for _, r := range results {
		raw = append(raw, r...)
	}
	return meta.Merge(raw), nil
}

// runDetector isolates a detector failure to the file it happened on.
func (s *Scanner) runDetector(d Detector, f *File) (findings []Finding) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("detector failed",
				zap.String("detector", d.Name()),
				zap.String("path", f.RelPath),
				zap.String("panic", fmt.Sprint(r)))
			findings = nil
		}
	}()
	return d.Scan(f)
}
