// Package filemap tracks the source files of the last full build and turns
// an edited file into hot-reloaded templates.
package filemap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/livefir/rsxhot"
	"github.com/livefir/rsxhot/internal/logging"
	"github.com/livefir/rsxhot/internal/store"
	"github.com/livefir/rsxhot/rsx"
)

var (
	// ErrNotReloadable means the change needs a full rebuild.
	ErrNotReloadable = errors.New("template is not hot-reloadable")
	// ErrParse means the edited file could not be parsed. The build system
	// should report the syntax error.
	ErrParse = errors.New("failed to parse file")
)

// FailureError wraps an I/O error hit while reading tracked files.
type FailureError struct {
	Path string
	Err  error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Call is one template invocation found in a file.
type Call struct {
	Line   int
	Column int
	Body   *rsx.CallBody
}

// ParsedFile is a parsed source file: the text outside template calls and
// the calls in source order.
type ParsedFile struct {
	Code  string
	Calls []Call
}

// Parser parses a tracked file.
type Parser interface {
	Parse(path string, src []byte) (*ParsedFile, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(path string, src []byte) (*ParsedFile, error)

// Parse calls f.
func (f ParserFunc) Parse(path string, src []byte) (*ParsedFile, error) { return f(path, src) }

// TemplateWithLocation is a template ready to send to a running app.
type TemplateWithLocation struct {
	Location string                      `json:"location"`
	Template *rsxhot.HotReloadedTemplate `json:"template"`
}

// Option configures a FileMap.
type Option func(*FileMap)

// WithStore sets where sent templates are remembered. Defaults to memory.
func WithStore(s store.Store) Option {
	return func(m *FileMap) { m.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *FileMap) { m.logger = l }
}

// WithContext sets the element and attribute mapping used to render
// templates.
func WithContext(ctx rsx.Context) Option {
	return func(m *FileMap) { m.mapping = ctx }
}

// WithExtensions sets the tracked file extensions.
func WithExtensions(exts ...string) Option {
	return func(m *FileMap) { m.extensions = exts }
}

// FileMap caches the raw contents of every tracked file as of the last full
// build.
type FileMap struct {
	root       string
	parser     Parser
	store      store.Store
	logger     *slog.Logger
	mapping    rsx.Context
	extensions []string

	mu    sync.Mutex
	files map[string]string
}

// New scans root and primes the template cache.
func New(ctx context.Context, root string, parser Parser, opts ...Option) (*FileMap, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	m := &FileMap{
		root:       abs,
		parser:     parser,
		extensions: []string{".yaml", ".yml"},
		files:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	if m.store == nil {
		m.store = store.NewMemory()
	}
	if m.mapping == nil {
		m.mapping = rsx.DefaultContext{}
	}

	files, errs := m.scan()
	m.files = files
	for _, err := range errs {
		m.logger.Warn("skipping unreadable file", "error", err)
	}

	m.LoadAssets(ctx)
	return m, nil
}

// Root returns the absolute scanned directory.
func (m *FileMap) Root() string { return m.root }

// Files returns the tracked paths, sorted.
func (m *FileMap) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Discover lists the files under the root that would be tracked.
func (m *FileMap) Discover() ([]string, error) {
	var out []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != m.root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.tracks(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// LoadAssets diffs every tracked file against itself so that templates are
// only sent once they change.
func (m *FileMap) LoadAssets(ctx context.Context) {
	for _, path := range m.Files() {
		if _, err := m.Update(ctx, path); err != nil {
			m.logger.Debug("initial diff failed", "path", path, "error", err)
		}
	}
}

// Update re-reads path and returns the templates that changed since they
// were last sent. It returns ErrNotReloadable when the change needs a full
// rebuild and ErrParse when the file does not parse.
func (m *FileMap) Update(ctx context.Context, path string) ([]TemplateWithLocation, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, &FailureError{Path: path, Err: err}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &FailureError{Path: path, Err: err}
	}

	next, err := m.parser.Parse(path, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.files[path]
	if !ok {
		// a new file: track everything that appeared and rebuild
		files, errs := m.scan()
		if len(errs) > 0 {
			return nil, errs[len(errs)-1]
		}
		for p, contents := range files {
			if _, tracked := m.files[p]; !tracked {
				m.files[p] = contents
			}
		}
		return nil, ErrNotReloadable
	}

	old, err := m.parser.Parse(path, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if old.Code != next.Code || len(old.Calls) != len(next.Calls) {
		return nil, m.fullRebuild(ctx, path, src)
	}

	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return nil, &FailureError{Path: path, Err: err}
	}

	var out []TemplateWithLocation
	for i, oldCall := range old.Calls {
		name := TemplateLocation(rel, oldCall.Line, oldCall.Column)

		templates, ok := rsxhot.Compute(m.mapping, oldCall.Body, next.Calls[i].Body, name)
		if !ok {
			return nil, m.fullRebuild(ctx, path, src)
		}

		indexes := make([]int, 0, len(templates))
		for idx := range templates {
			indexes = append(indexes, idx)
		}
		slices.Sort(indexes)

		for _, idx := range indexes {
			tmpl := templates[idx]
			if len(tmpl.Roots) == 0 {
				continue
			}
			location := FormatTemplateName(name, idx)

			prev, err := m.store.Get(ctx, location)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("load template %s: %w", location, err)
			}
			if prev.Equal(tmpl) {
				continue
			}
			if err := m.store.Put(ctx, location, tmpl); err != nil {
				return nil, fmt.Errorf("save template %s: %w", location, err)
			}
			out = append(out, TemplateWithLocation{Location: location, Template: tmpl})
		}
	}

	m.logger.Debug("hot reloaded", "path", rel, "templates", len(out))
	return out, nil
}

// fullRebuild records src as the contents of the next build and forgets
// the templates sent for path.
func (m *FileMap) fullRebuild(ctx context.Context, path string, src []byte) error {
	m.files[path] = string(src)
	if rel, err := filepath.Rel(m.root, path); err == nil {
		if err := m.store.DeletePrefix(ctx, filepath.ToSlash(rel)+":"); err != nil {
			m.logger.Warn("failed to clear templates", "path", rel, "error", err)
		}
	}
	return ErrNotReloadable
}

func (m *FileMap) scan() (map[string]string, []error) {
	files := make(map[string]string)
	var errs []error

	paths, err := m.Discover()
	if err != nil {
		errs = append(errs, &FailureError{Path: m.root, Err: err})
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &FailureError{Path: path, Err: err})
			continue
		}
		files[path] = string(src)
	}
	return files, errs
}

func (m *FileMap) tracks(path string) bool {
	for _, ext := range m.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func skipDir(name string) bool {
	return name == "target" || name == "node_modules" || strings.HasPrefix(name, ".")
}

// TemplateLocation names a call: the slash-separated path relative to the
// root, the line and the one-based column.
func TemplateLocation(rel string, line, column int) string {
	return filepath.ToSlash(rel) + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(column+1)
}

// FormatTemplateName appends a template index to a call location.
func FormatTemplateName(location string, idx int) string {
	return location + ":" + strconv.Itoa(idx)
}
