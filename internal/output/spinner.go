package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 80 * time.Millisecond

// Spinner shows an animated progress line on a writer, typically stderr
// while terminal output is being produced. A nil *Spinner is a no-op, so
// callers can skip it for machine-readable formats without branching.
// Update may be called from any goroutine.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	width   int
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start begins the animation with the given message. Starting a running
// spinner only replaces its message.
func (s *Spinner) Start(message string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.done)
}

// Update changes the displayed message.
func (s *Spinner) Update(message string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears its line. It waits for the last
// frame to be written and is idempotent.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.mu.Unlock()
}

func (s *Spinner) loop(done <-chan struct{}) {
	defer s.wg.Done()
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		s.draw(spinnerFrames[i%len(spinnerFrames)])
		select {
		case <-done:
			return
		case <-tick.C:
		}
	}
}

func (s *Spinner) draw(frame rune) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("%c %s", frame, s.message)
	n := len([]rune(line))
	// Pad to overwrite leftovers from a longer previous message.
	pad := max(s.width-n, 0)
	s.width = max(s.width, n)
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", pad))
}
