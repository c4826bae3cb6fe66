package layout

import (
	"path"
	"path/filepath"
	"strings"

	"springforge/internal/catalog"
)

// Resolver maps logical file identifiers to destinations inside a project
// tree. It performs no I/O and holds no mutable state.
type Resolver struct {
	cat         *catalog.Catalog
	projectRoot string
	mainRoot    string
	testRoot    string
}

// New returns a resolver rooted at projectRoot using Maven's
// src/main/java and src/test/java source roots.
func New(cat *catalog.Catalog, projectRoot string) Resolver {
	return NewWithRoots(cat, projectRoot,
		filepath.Join(projectRoot, "src", "main", "java"),
		filepath.Join(projectRoot, "src", "test", "java"),
	)
}

func NewWithRoots(cat *catalog.Catalog, projectRoot, mainRoot, testRoot string) Resolver {
	return Resolver{cat: cat, projectRoot: projectRoot, mainRoot: mainRoot, testRoot: testRoot}
}

// Placement describes where an identifier lands.
type Placement struct {
	Test       bool
	Subpackage string // empty for root-level files
	Path       string
}

// Place classifies identifier and computes its destination.
func (r Resolver) Place(identifier string, segments []string) Placement {
	if !strings.HasSuffix(identifier, r.cat.SourceExt) {
		return Placement{Path: filepath.Join(r.projectRoot, identifier)}
	}
	base := strings.TrimSuffix(identifier, r.cat.SourceExt)
	test := strings.Contains(base, r.cat.TestMarker)
	canonical := strings.ReplaceAll(base, r.cat.TestMarker, "") + r.cat.SourceExt
	sub, ok := r.cat.Packages[canonical]
	if !ok {
		sub = r.cat.FallbackPackage
	}
	root := r.mainRoot
	if test {
		root = r.testRoot
	}
	parts := make([]string, 0, len(segments)+3)
	parts = append(parts, root)
	parts = append(parts, segments...)
	parts = append(parts, sub, identifier)
	return Placement{Test: test, Subpackage: sub, Path: filepath.Join(parts...)}
}

// Resolve returns the absolute destination of identifier.
func (r Resolver) Resolve(identifier string, segments []string) string {
	return r.Place(identifier, segments).Path
}

// Rel returns the destination relative to the project root using forward
// slashes, the form used inside archives and API responses.
func (r Resolver) Rel(identifier string, segments []string) string {
	abs := r.Resolve(identifier, segments)
	rel, err := filepath.Rel(r.projectRoot, abs)
	if err != nil {
		return path.Clean(filepath.ToSlash(abs))
	}
	return filepath.ToSlash(rel)
}

// ProjectRoot is the directory the resolver places files under.
func (r Resolver) ProjectRoot() string { return r.projectRoot }
