// Package scanner orchestrates file discovery, classification and
// parallel detector execution for a scan.
package scanner

// Detector is the interface that all detectors must implement. Scan must be
// safe to call from multiple goroutines and must not retain the file.
type Detector interface {
	Name() string
	Description() string
	Scan(file *File) []Finding
}
