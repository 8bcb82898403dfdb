// SPDX-License-Identifier: MPL-2.0

// Package watch monitors a service's source tree and requests restarts.
//
// Filesystem events under the watched directory are filtered through
// doublestar glob patterns, coalesced over a debounce window, and surfaced
// as restart requests on a channel the supervisor consumes. Requests are
// level-triggered: while a restart is pending, further events fold into it
// instead of queueing.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period after the last filesystem event
// before a restart request fires. Editors that write-then-rename produce
// several events per save; the window folds them into one restart.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded, on top of user-supplied ignores.
// They cover VCS metadata, interpreter caches, virtualenvs, and editor
// artifacts that generate high-frequency noise.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/.venv/**",
	"**/logs/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs (e.g. "**/*.py") selecting which
		// files trigger a restart. An empty slice matches all
		// non-ignored files.
		Patterns []string

		// Ignore are additional globs that never trigger a restart,
		// merged with the built-in defaults.
		Ignore []string

		// Debounce is the quiet period before a restart request fires.
		// Zero or negative falls back to defaultDebounce.
		Debounce time.Duration

		// BaseDir is the root directory to watch. Patterns are matched
		// against paths relative to it. Empty means the current
		// working directory.
		BaseDir string

		// Logger reports watch activity. Nil disables logging.
		Logger *log.Logger
	}

	// Watcher turns filesystem changes into restart requests. Run must be
	// called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		baseDir  string
		restarts chan struct{}
	}
)

// New creates a Watcher, validates its patterns, and registers every
// non-ignored directory under BaseDir with fsnotify.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  ignores,
		debounce: debounce,
		baseDir:  absBase,
		// Capacity 1 makes requests level-triggered: a pending restart
		// absorbs further fires until the consumer takes it.
		restarts: make(chan struct{}, 1),
	}

	if err := w.addDirectories(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Restarts returns the channel restart requests arrive on.
func (w *Watcher) Restarts() <-chan struct{} {
	return w.restarts
}

// Run blocks until ctx is cancelled, translating filesystem events into
// debounced restart requests. It returns nil on clean cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if err := w.fsw.Close(); err != nil {
			w.logError("closing fsnotify", err)
		}
	}()

	fire := func() {
		select {
		case w.restarts <- struct{}{}:
			w.logInfo("change detected, requesting restart")
		default:
			// A restart is already pending; this change folds into it.
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}

			// New directories extend the recursive watch even when they
			// do not match the file patterns themselves.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if !w.matchesPatterns(rel) {
				continue
			}

			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			w.logError("fsnotify", err)
		}
	}
}

// addDirectories walks BaseDir and registers every non-ignored directory.
// Directories are registered regardless of watch patterns; pattern
// filtering happens per event.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Inaccessible subtrees are skipped, not fatal. Permission
			// errors on individual directories are common.
			w.logError("skipping inaccessible path "+path, walkDirErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil
		}
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir registers path if it is a non-ignored directory, extending
// the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return
	}
	if w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		w.logError("adding new directory "+path, addErr)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// matchesPatterns reports whether rel matches any configured pattern.
// No configured patterns means everything matches.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.cfg.Patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// validatePatterns rejects invalid doublestar globs at construction time,
// so they fail loudly instead of silently never matching.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}

func (w *Watcher) logInfo(msg string) {
	if w.cfg.Logger != nil {
		w.cfg.Logger.Info(msg)
	}
}

func (w *Watcher) logError(msg string, err error) {
	if w.cfg.Logger != nil {
		w.cfg.Logger.Error(msg, "error", err)
	}
}
