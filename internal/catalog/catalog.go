package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"springforge/internal/projectspec"
)

const (
	SourceExt      = ".java"
	TestMarker     = "Test"
	BuildFile      = "pom.xml"
	DefaultPackage = "config"
)

// Catalog holds the static tables that drive file selection and placement.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	Features   map[string][]string `yaml:"features"`
	Core       []string            `yaml:"core"`
	Packages   map[string]string   `yaml:"packages"`
	BuildFile  string              `yaml:"build_file"`
	SourceExt  string              `yaml:"source_ext"`
	TestMarker string              `yaml:"test_marker"`
	// FallbackPackage receives source files that have no PackageMap entry.
	FallbackPackage string `yaml:"fallback_package"`
}

// Default returns the Spring Boot catalog.
func Default() *Catalog {
	return &Catalog{
		Features: map[string][]string{
			"database":         {"DatabaseConfig.java"},
			"messaging":        {"MessageListener.java"},
			"streaming":        {"KafkaConfig.java", "KafkaConsumer.java"},
			"containerization": {"Dockerfile", "docker-compose.yml"},
			"repository":       {"GitConfig.java", "CiPipeline.yml"},
			"security":         {"SecurityConfig.java", "JwtUtils.java"},
			"logging":          {"LoggingConfig.java"},
			"aws":              {"S3Config.java"},
			"scanning":         {"CodeQualityReport.md"},
			"monitoring":       {"ActuatorConfig.java", "PrometheusConfig.java"},
		},
		Core: []string{"Entity", "Model", "Repository", "Service", "Controller"},
		Packages: map[string]string{
			"Entity.java":           "entity",
			"Model.java":            "model",
			"Repository.java":       "repository",
			"Service.java":          "service",
			"Controller.java":       "controller",
			"DatabaseConfig.java":   "config",
			"KafkaConfig.java":      "config",
			"KafkaConsumer.java":    "config",
			"SecurityConfig.java":   "config",
			"JwtUtils.java":         "config",
			"S3Config.java":         "config",
			"LoggingConfig.java":    "config",
			"ActuatorConfig.java":   "config",
			"PrometheusConfig.java": "config",
			"GitConfig.java":        "config",
		},
		BuildFile:       BuildFile,
		SourceExt:       SourceExt,
		TestMarker:      TestMarker,
		FallbackPackage: DefaultPackage,
	}
}

// Load reads a YAML override on top of the default catalog. Sections that are
// absent from the file keep their defaults; feature and package entries are
// merged key by key.
func Load(path string) (*Catalog, error) {
	cat := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cat, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var over Catalog
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for name, files := range over.Features {
		cat.Features[name] = append([]string(nil), files...)
	}
	for file, pkg := range over.Packages {
		cat.Packages[file] = pkg
	}
	if len(over.Core) > 0 {
		cat.Core = append([]string(nil), over.Core...)
	}
	if s := strings.TrimSpace(over.BuildFile); s != "" {
		cat.BuildFile = s
	}
	if s := strings.TrimSpace(over.SourceExt); s != "" {
		cat.SourceExt = s
	}
	if s := strings.TrimSpace(over.TestMarker); s != "" {
		cat.TestMarker = s
	}
	if s := strings.TrimSpace(over.FallbackPackage); s != "" {
		cat.FallbackPackage = s
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

func (c *Catalog) validate() error {
	if len(c.Core) == 0 {
		return fmt.Errorf("core component set is empty")
	}
	for _, comp := range c.Core {
		if strings.TrimSpace(comp) == "" {
			return fmt.Errorf("core component name is empty")
		}
	}
	for name, files := range c.Features {
		for _, f := range files {
			if strings.TrimSpace(f) == "" || strings.ContainsAny(f, `/\`) {
				return fmt.Errorf("feature %s: invalid file identifier %q", name, f)
			}
		}
	}
	return nil
}

// FeatureNames lists the catalog's features in lexical order.
func (c *Catalog) FeatureNames() []string {
	out := make([]string, 0, len(c.Features))
	for name := range c.Features {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MainFile is the main source identifier of a core component.
func (c *Catalog) MainFile(component string) string {
	return component + c.SourceExt
}

// TestFile is the test source identifier of a core component.
func (c *Catalog) TestFile(component string) string {
	return component + c.TestMarker + c.SourceExt
}

// EnabledFeatures returns the catalog features switched on by spec, sorted.
func (c *Catalog) EnabledFeatures(spec projectspec.Spec) []string {
	var out []string
	for _, name := range c.FeatureNames() {
		if spec.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
