package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeFSReadsUnderRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.ftl"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sfs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	raw, err := sfs.SafeReadFile("a.ftl")
	if err != nil {
		t.Fatalf("SafeReadFile: %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestSafeFSCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "templates", "nested")
	if _, err := NewSafeFS(root); err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Fatalf("expected root dir to exist: %v", err)
	}
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	sfs, err := NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	for _, name := range []string{"../x", "..", "/etc/passwd", "a/../../b"} {
		if _, err := sfs.Join(name); !errors.Is(err, ErrTraversal) {
			t.Fatalf("Join(%q): expected traversal error, got %v", name, err)
		}
	}
}

func TestSafeFSRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link.ftl")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	sfs, err := NewSafeFS(root)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := sfs.SafeReadFile("link.ftl"); err == nil {
		t.Fatalf("expected symlink escape to be rejected")
	}
}

func TestSafeStatMissing(t *testing.T) {
	sfs, err := NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := sfs.SafeStat("nope.ftl"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
