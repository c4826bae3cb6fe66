package templatestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"springforge/internal/safeio"
)

const (
	Ext              = ".ftl"
	DefaultCacheSize = 256
)

var ErrNotFound = errors.New("template not found")

// Store keeps fallback templates on disk, one file per identifier named
// <identifier>.ftl under the root. Writes never overwrite an existing file.
type Store struct {
	fs    *safeio.SafeFS
	cache *lru.Cache[string, *template.Template]
}

func New(root string, cacheSize int) (*Store, error) {
	sfs, err := safeio.NewSafeFS(root)
	if err != nil {
		return nil, fmt.Errorf("template root: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *template.Template](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{fs: sfs, cache: cache}, nil
}

// Root is the absolute template directory.
func (s *Store) Root() string { return s.fs.Root() }

// Key is the file name a template for identifier is stored under.
func Key(identifier string) string { return identifier + Ext }

// Exists reports whether a template for identifier is on disk.
func (s *Store) Exists(identifier string) (bool, error) {
	info, err := s.fs.SafeStat(Key(identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Read returns the raw template source.
func (s *Store) Read(identifier string) ([]byte, error) {
	raw, err := s.fs.SafeReadFile(Key(identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, Key(identifier))
		}
		return nil, err
	}
	return raw, nil
}

// WriteIfAbsent stores content for identifier unless a template already
// exists. The file becomes visible in one step, so readers never observe a
// partial template. It reports whether this call wrote the file.
func (s *Store) WriteIfAbsent(identifier string, content []byte) (bool, error) {
	dest, err := s.fs.Join(Key(identifier))
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tpl-*")
	if err != nil {
		return false, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Link(tmpPath, dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	s.cache.Remove(identifier)
	return true, nil
}

// Load parses the template for identifier, serving repeated loads from the
// cache.
func (s *Store) Load(identifier string) (*template.Template, error) {
	if t, ok := s.cache.Get(identifier); ok {
		return t, nil
	}
	raw, err := s.Read(identifier)
	if err != nil {
		return nil, err
	}
	t, err := template.New(Key(identifier)).
		Funcs(funcs).
		Option("missingkey=zero").
		Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", Key(identifier), err)
	}
	s.cache.Add(identifier, t)
	return t, nil
}

// Render executes the template for identifier against data.
func (s *Store) Render(identifier string, data map[string]any) (string, error) {
	t, err := s.Load(identifier)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", Key(identifier), err)
	}
	return buf.String(), nil
}

// Invalidate drops the cached parse of identifier.
func (s *Store) Invalidate(identifier string) {
	s.cache.Remove(identifier)
}

// Watch evicts cached templates whose files change on disk until ctx is
// done. Edits made by operators take effect without a restart.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(s.Root()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, Ext) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				s.Invalidate(strings.TrimSuffix(name, Ext))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("template watcher: %v", err)
		}
	}
}

var funcs = template.FuncMap{
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"replace": strings.ReplaceAll,
	// has reports presence, matching how feature flags are read.
	"has": func(data map[string]any, key string) bool {
		_, ok := data[key]
		return ok
	},
	"default": func(def, v any) any {
		if v == nil {
			return def
		}
		if s, ok := v.(string); ok && s == "" {
			return def
		}
		return v
	},
}
