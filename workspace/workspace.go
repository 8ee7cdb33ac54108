// Package workspace implements the provider interfaces over Swift sources
// on the local file system.
//
// Analysis is heuristic: declarations are found with regular expressions,
// not a Swift parser, so results are approximate for unusual formatting.
// Every scan walks the tree again; nothing is cached between calls.
package workspace

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
)

var (
	_ provider.SymbolSearch      = (*Workspace)(nil)
	_ provider.ProjectAnalyzer   = (*Workspace)(nil)
	_ provider.Documentation     = (*Workspace)(nil)
	_ provider.FrameworkAnalyzer = (*Workspace)(nil)
	_ provider.Templates         = (*Workspace)(nil)
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".build":       true,
	".swiftpm":     true,
	"Pods":         true,
	"Carthage":     true,
	"DerivedData":  true,
	"node_modules": true,
}

// Workspace analyses the Swift project rooted at a directory.
type Workspace struct {
	root   string
	logger middleware.Logger
	now    func() time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger for scan events.
func WithLogger(l middleware.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// WithClock sets the clock used for memory snapshots.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		w.now = now
	}
}

// New creates a workspace rooted at root.
func New(root string, opts ...Option) *Workspace {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	w := &Workspace{
		root:   root,
		logger: middleware.NopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// path resolves p against the root.
func (w *Workspace) path(p string) string {
	if p == "" {
		return w.root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.root, p)
}

// sourceFile is a Swift file split into lines.
type sourceFile struct {
	path  string
	lines []string
}

// tree is everything a scan learned about a directory.
type tree struct {
	dir     string
	sources []sourceFile
	// dirs holds every directory relative to dir, slash separated.
	dirs []string
	// other holds non-Swift files relative to dir.
	other []string
}

func (t *tree) lineCount() int {
	n := 0
	for _, f := range t.sources {
		n += len(f.lines)
	}
	return n
}

// manifestFile is the package manifest. It is Swift but not project source.
const manifestFile = "Package.swift"

func (t *tree) hasFile(rel string) bool {
	for _, f := range t.other {
		if f == rel {
			return true
		}
	}
	return false
}

// scan walks dir and loads every Swift file. A missing dir is reported as
// ResourceNotFound.
func (w *Workspace) scan(ctx context.Context, dir string) (*tree, error) {
	dir = w.path(dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, protocol.NewResourceNotFound(dir)
	}

	t := &tree{dir: dir}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("skip unreadable entry", middleware.F("path", path), middleware.F("error", err.Error()))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(dir, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			t.dirs = append(t.dirs, rel)
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".swift") || rel == manifestFile {
			t.other = append(t.other, rel)
			return nil
		}
		lines, err := readLines(path)
		if err != nil {
			w.logger.Debug("skip unreadable source", middleware.F("path", path), middleware.F("error", err.Error()))
			return nil
		}
		t.sources = append(t.sources, sourceFile{path: path, lines: lines})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(t.sources, func(i, j int) bool { return t.sources[i].path < t.sources[j].path })
	w.logger.Debug("scanned workspace", middleware.F("dir", dir), middleware.F("swift_files", len(t.sources)))
	return t, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// writeFile creates path with data, refusing to replace an existing file.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// isExist reports whether err means a file was already there.
func isExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}
