// SPDX-License-Identifier: MPL-2.0

// Package logsink writes service output to date-stamped log files.
//
// Each service gets one append-mode file per day, named
// "<service>-YYYYMMDD.log" after the `date +%Y%m%d` convention of the
// original launch scripts. A Sink rolls over to a new file when the local
// date changes between writes, so long-running foreground sessions keep the
// name/date correspondence.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stackup-cli/pkg/stackfile"
)

// dateLayout matches the `date +%Y%m%d` stamp used in the log file names.
const dateLayout = "20060102"

type (
	// Sink is an io.WriteCloser appending to the current day's log file.
	// Safe for concurrent use.
	Sink struct {
		dir     string
		service stackfile.ServiceName
		now     func() time.Time

		mu   sync.Mutex
		file *os.File
		day  string
	}

	// Option configures a Sink.
	Option func(*Sink)
)

// WithClock overrides the time source. Tests use this to force rollovers.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// FilePath returns the log file path for a service on the given day.
func FilePath(dir string, service stackfile.ServiceName, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", service, t.Format(dateLayout)))
}

// New creates the log directory if needed and opens today's file for append.
func New(dir string, service stackfile.ServiceName, opts ...Option) (*Sink, error) {
	s := &Sink{
		dir:     dir,
		service: service,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	if err := s.open(s.now()); err != nil {
		return nil, err
	}
	return s, nil
}

// open replaces the current file with the one for day t. Caller holds no
// lock during New; Write holds s.mu.
func (s *Sink) open(t time.Time) error {
	path := FilePath(s.dir, s.service, t)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = f
	s.day = t.Format(dateLayout)
	return nil
}

// Write appends to the current day's file, rolling over first when the
// local date has changed since the last write.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if day := now.Format(dateLayout); day != s.day {
		if err := s.open(now); err != nil {
			return 0, err
		}
	}
	return s.file.Write(p)
}

// Path returns the path of the file currently being written.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Name()
}

// Close closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Tee duplicates writes to the terminal and the sink, the foreground
// equivalent of `... 2>&1 | tee -a <logfile>`.
func Tee(terminal io.Writer, sink *Sink) io.Writer {
	return io.MultiWriter(terminal, sink)
}
