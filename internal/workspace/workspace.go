package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const stagingDir = ".staging"

var ErrInvalidName = errors.New("invalid project name")

// Manager owns the output directory: one published tree per project name
// plus the project archives next to them.
type Manager struct {
	root string

	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(root string) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("output root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	return &Manager{root: abs, locks: make(map[string]*nameLock)}, nil
}

// Root is the absolute output directory.
func (m *Manager) Root() string { return m.root }

// ProjectDir is where the published tree of name lives.
func (m *Manager) ProjectDir(name string) string { return filepath.Join(m.root, name) }

// ArchivePath is the sibling archive of a project tree.
func (m *Manager) ArchivePath(name, ext string) string {
	return filepath.Join(m.root, name+ext)
}

// Lock serializes work on one project name. The returned func releases it.
func (m *Manager) Lock(name string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &nameLock{}
		m.locks[name] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, name)
		}
		m.mu.Unlock()
	}
}

// Begin opens a private staging tree for one generation of name.
func (m *Manager) Begin(name string) (*Session, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	id := uuid.NewString()
	dir := filepath.Join(m.root, stagingDir, name+"-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Session{m: m, name: name, id: id, dir: dir}, nil
}

// Session is one request's OutputTree while it is being materialized.
type Session struct {
	m    *Manager
	name string
	id   string
	dir  string

	mu    sync.Mutex
	files []string
	done  bool
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Name() string { return s.name }

// Dir is the staging root; paths passed to Write must live under it.
func (s *Session) Dir() string { return s.dir }

// Write stores content at path, trimming surrounding whitespace the way
// generated files are normalized. Writes are safe for concurrent use.
func (s *Session) Write(path, content string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return fmt.Errorf("path %s is outside the project tree", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)), 0o644); err != nil {
		return err
	}
	s.mu.Lock()
	s.files = append(s.files, filepath.ToSlash(rel))
	s.mu.Unlock()
	return nil
}

// Files lists the written files relative to the project root, sorted.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.files...)
	sort.Strings(out)
	return out
}

// Publish replaces the project's tree with the staged one and returns the
// published directory. A previous tree is only removed after the swap.
func (s *Session) Publish() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return "", errors.New("session already closed")
	}
	dest := s.m.ProjectDir(s.name)
	old := filepath.Join(s.m.root, stagingDir, s.name+"-"+s.id+".old")

	hadOld := false
	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, old); err != nil {
			return "", fmt.Errorf("retire previous tree: %w", err)
		}
		hadOld = true
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.Rename(s.dir, dest); err != nil {
		if hadOld {
			_ = os.Rename(old, dest)
		}
		return "", fmt.Errorf("publish tree: %w", err)
	}
	s.done = true
	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			return dest, fmt.Errorf("remove previous tree: %w", err)
		}
	}
	return dest, nil
}

// Discard drops the staging tree. It is a no-op after Publish.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return os.RemoveAll(s.dir)
}
