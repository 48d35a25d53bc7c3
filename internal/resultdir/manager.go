// Package resultdir creates and prunes timestamped result directories
// named <prefix>-<YYYY-MM-DD_HH-MM-SS> under a base directory.
package resultdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults used by the CLI when nothing is configured
const (
	DefaultBaseDir   = "results"
	DefaultPrefix    = "workflow"
	DefaultListLimit = 10
	DefaultKeep      = 5
)

// TimestampLayout is the directory name suffix format
const TimestampLayout = "2006-01-02_15-04-05"

// Entry is one matching directory
type Entry struct {
	Name    string    `json:"name" yaml:"name"`
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Manager operates on the timestamped directories under one base directory.
// It holds no state between calls; everything is read from the filesystem.
type Manager struct {
	baseDir string
	out     io.Writer
	logger  *zap.Logger

	// Now is the clock used to name new directories
	Now func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithOutput redirects the progress lines normally printed to stdout
func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.Now = now }
}

// New creates a Manager, creating baseDir (with parents) if needed
func New(baseDir string, opts ...Option) (*Manager, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	m := &Manager{
		baseDir: baseDir,
		out:     os.Stdout,
		logger:  zap.NewNop(),
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return m, nil
}

// BaseDir returns the directory the manager operates on
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Create makes <base>/<prefix>-<timestamp>. A directory created earlier in
// the same second is reused rather than reported as an error.
func (m *Manager) Create(prefix string) (string, error) {
	if err := validatePrefix(prefix); err != nil {
		return "", err
	}
	name := prefix + "-" + m.Now().Format(TimestampLayout)
	path := filepath.Join(m.baseDir, name)

	if err := os.Mkdir(path, 0755); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return "", fmt.Errorf("creating %s: %w", path, statErr)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("creating %s: exists and is not a directory", path)
		}
		m.logger.Debug("reusing existing directory", zap.String("path", path))
	}

	fmt.Fprintf(m.out, "Created directory: %s\n", path)
	return path, nil
}

// Latest returns the matching directory with the newest modification time.
// The bool is false when nothing matches.
func (m *Manager) Latest(prefix string) (Entry, bool, error) {
	entries, err := m.List(prefix, 1)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// List returns matching directories, newest first. limit <= 0 returns all.
func (m *Manager) List(prefix string, limit int) ([]Entry, error) {
	entries, err := m.scan(prefix)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Cleanup keeps the keep newest matching directories and removes the rest
// recursively. It returns the number of directories removed.
func (m *Manager) Cleanup(prefix string, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	entries, err := m.scan(prefix)
	if err != nil {
		return 0, err
	}

	if len(entries) <= keep {
		fmt.Fprintf(m.out, "Only %d directories found, no cleanup needed\n", len(entries))
		return 0, nil
	}

	removed := 0
	for _, e := range entries[keep:] {
		fmt.Fprintf(m.out, "Removing old directory: %s\n", e.Path)
		if err := os.RemoveAll(e.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", e.Path, err)
		}
		removed++
		m.logger.Debug("removed directory", zap.String("path", e.Path), zap.Time("mod_time", e.ModTime))
	}

	fmt.Fprintf(m.out, "Cleaned up %d old directories\n", removed)
	m.logger.Info("cleanup finished", zap.String("prefix", prefix), zap.Int("removed", removed), zap.Int("kept", keep))
	return removed, nil
}

// scan reads the base directory and returns matching entries, newest first
func (m *Manager) scan(prefix string) ([]Entry, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.baseDir, err)
	}

	var entries []Entry
	for _, d := range dirEntries {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), prefix+"-") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    filepath.Join(m.baseDir, d.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return errors.New("prefix must not be empty")
	}
	if strings.ContainsRune(prefix, filepath.Separator) || strings.Contains(prefix, "/") || prefix == "." || prefix == ".." {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	return nil
}
