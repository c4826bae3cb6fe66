package projectspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	KeyGroupID     = "groupId"
	KeyProjectName = "projectName"

	DefaultProjectName = "demo"

	// ArchiveSuffix is the extension of project archives, which share the
	// output directory with project trees.
	ArchiveSuffix = ".zip"
)

var (
	ErrMissingGroupID   = errors.New("missing required field: groupId")
	ErrMalformedGroupID = errors.New("malformed field: groupId")
	ErrEmptySpec        = errors.New("empty request body")
)

// Spec is the caller-supplied project description. Keys other than groupId and
// projectName are feature flags; their presence enables the feature regardless
// of value. A Spec is treated as read-only once validated.
type Spec map[string]any

// Parse decodes a JSON object into a Spec.
func Parse(raw []byte) (Spec, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrEmptySpec
	}
	var s Spec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	if len(s) == 0 {
		return nil, ErrEmptySpec
	}
	return s, nil
}

// Validate checks the required fields before any file I/O happens.
func (s Spec) Validate() error {
	if len(s) == 0 {
		return ErrEmptySpec
	}
	raw, ok := s[KeyGroupID]
	if !ok {
		return ErrMissingGroupID
	}
	gid, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: must be a string", ErrMalformedGroupID)
	}
	if strings.TrimSpace(gid) == "" {
		return fmt.Errorf("%w: must not be empty", ErrMalformedGroupID)
	}
	for _, seg := range strings.Split(gid, ".") {
		if seg == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrMalformedGroupID, gid)
		}
		if strings.ContainsAny(seg, `/\`) || seg == ".." {
			return fmt.Errorf("%w: invalid segment %q", ErrMalformedGroupID, seg)
		}
	}
	if name, ok := s[KeyProjectName]; ok {
		str, isStr := name.(string)
		if !isStr {
			return fmt.Errorf("malformed field: %s must be a string", KeyProjectName)
		}
		if n := normalizeName(str); n != "" {
			if err := CheckName(n); err != nil {
				return fmt.Errorf("malformed field: %s: %w", KeyProjectName, err)
			}
		}
	}
	return nil
}

// GroupID returns the raw package identifier.
func (s Spec) GroupID() string {
	gid, _ := s[KeyGroupID].(string)
	return gid
}

// Segments splits the package identifier into directory names.
func (s Spec) Segments() []string {
	gid := s.GroupID()
	if gid == "" {
		return nil
	}
	return strings.Split(gid, ".")
}

// ProjectName returns the display name with spaces replaced by dashes.
func (s Spec) ProjectName() string {
	name, _ := s[KeyProjectName].(string)
	name = normalizeName(name)
	if name == "" {
		return DefaultProjectName
	}
	return name
}

// Has reports whether key is present, which is all a feature flag needs.
func (s Spec) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys in lexical order.
func (s Spec) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy so renderers can never write back into the
// caller's map.
func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CheckName reports whether a normalized project name can own a directory
// and an archive in the output root. Hidden names are reserved for internal
// state, and a name ending in ArchiveSuffix would collide with the archive of
// another project.
func CheckName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty project name")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("project name %q contains a path separator", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("project name %q must not start with a dot", name)
	case strings.HasSuffix(strings.ToLower(name), ArchiveSuffix):
		return fmt.Errorf("project name %q must not end in %s", name, ArchiveSuffix)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}
