package logging

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is a log destination that can be closed and reopened at a fixed path.
//
// While no file is open, writes go to the console fallback, or are dropped
// when there is none. A line written between Close and Open is therefore lost
// after daemonization; callers tolerate that.
type Sink struct {
	mu        sync.Mutex
	console   io.Writer
	file      *lumberjack.Logger
	path      string
	maxSizeMB int
}

// NewSink returns a closed sink. maxSizeMB caps the file size before it is
// rotated aside; zero disables size-based rotation.
func NewSink(console io.Writer, maxSizeMB int) *Sink {
	return &Sink{console: console, maxSizeMB: maxSizeMB}
}

// Open starts writing to the file at path, creating it when needed.
func (s *Sink) Open(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("open log: path is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return fmt.Errorf("open log %s: sink already open at %s", path, s.path)
	}

	maxSize := s.maxSizeMB
	if maxSize <= 0 {
		maxSize = math.MaxInt32
	}
	file := &lumberjack.Logger{Filename: path, MaxSize: maxSize}
	// lumberjack opens lazily; an empty write surfaces open errors here.
	if _, err := file.Write(nil); err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	s.file = file
	s.path = path
	return nil
}

// Close releases the file. Closing a closed sink is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("close log %s: %w", s.path, err)
	}
	return nil
}

// IsOpen reports whether writes currently reach a file.
func (s *Sink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file != nil
}

// Path returns the path most recently passed to Open.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.file != nil:
		return s.file.Write(p)
	case s.console != nil:
		return s.console.Write(p)
	default:
		return len(p), nil
	}
}

// SetMaxSize changes the rotation threshold. It applies to the open file
// immediately and to every later Open.
func (s *Sink) SetMaxSize(maxSizeMB int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSizeMB = maxSizeMB
	if s.file != nil {
		if maxSizeMB <= 0 {
			maxSizeMB = math.MaxInt32
		}
		s.file.MaxSize = maxSizeMB
	}
}
