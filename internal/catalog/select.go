package catalog

import (
	"sort"

	"springforge/internal/projectspec"
)

// Selection is the file set for one project. Static holds the core main files
// and the build file in catalog order; Dynamic holds feature files and core
// test files, de-duplicated and sorted.
type Selection struct {
	Static  []string
	Dynamic []string
}

// All returns Static followed by Dynamic.
func (s Selection) All() []string {
	out := make([]string, 0, len(s.Static)+len(s.Dynamic))
	out = append(out, s.Static...)
	return append(out, s.Dynamic...)
}

// Len is the number of files to produce.
func (s Selection) Len() int { return len(s.Static) + len(s.Dynamic) }

// Select expands spec into the files to generate.
func (c *Catalog) Select(spec projectspec.Spec) Selection {
	seen := make(map[string]struct{})
	static := make([]string, 0, len(c.Core)+1)
	add := func(dst *[]string, id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		*dst = append(*dst, id)
	}
	for _, comp := range c.Core {
		add(&static, c.MainFile(comp))
	}
	add(&static, c.BuildFile)

	var dynamic []string
	for _, name := range c.EnabledFeatures(spec) {
		for _, f := range c.Features[name] {
			add(&dynamic, f)
		}
	}
	for _, comp := range c.Core {
		add(&dynamic, c.TestFile(comp))
	}
	sort.Strings(dynamic)
	return Selection{Static: static, Dynamic: dynamic}
}
