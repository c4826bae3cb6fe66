package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"springforge/internal/catalog"
)

var comExample = []string{"com", "example"}

func TestResolveMainAndTestFiles(t *testing.T) {
	r := New(catalog.Default(), "/out/demo")
	cases := map[string]string{
		"Entity.java":         "src/main/java/com/example/entity/Entity.java",
		"Controller.java":     "src/main/java/com/example/controller/Controller.java",
		"ServiceTest.java":    "src/test/java/com/example/service/ServiceTest.java",
		"RepositoryTest.java": "src/test/java/com/example/repository/RepositoryTest.java",
		"KafkaConfig.java":    "src/main/java/com/example/config/KafkaConfig.java",
		"KafkaConsumer.java":  "src/main/java/com/example/config/KafkaConsumer.java",
	}
	for id, want := range cases {
		assert.Equal(t, filepath.Join("/out/demo", filepath.FromSlash(want)), r.Resolve(id, comExample), id)
		assert.Equal(t, want, r.Rel(id, comExample), id)
	}
}

func TestResolveUnmappedDefaultsToConfig(t *testing.T) {
	r := New(catalog.Default(), "/out/demo")
	assert.Equal(t, "src/main/java/com/example/config/MessageListener.java", r.Rel("MessageListener.java", comExample))
	assert.Equal(t, "src/test/java/com/example/config/WidgetTest.java", r.Rel("WidgetTest.java", comExample))
}

func TestResolveNonSourceFilesAtRoot(t *testing.T) {
	r := New(catalog.Default(), "/out/demo")
	for _, id := range []string{"pom.xml", "Dockerfile", "docker-compose.yml", "CiPipeline.yml", "CodeQualityReport.md"} {
		assert.Equal(t, id, r.Rel(id, comExample))
		p := r.Place(id, comExample)
		assert.False(t, p.Test)
		assert.Empty(t, p.Subpackage)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New(catalog.Default(), "/out/demo")
	segs := []string{"org", "acme", "shop"}
	first := r.Resolve("JwtUtils.java", segs)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, r.Resolve("JwtUtils.java", segs))
	}
	again := New(catalog.Default(), "/out/demo")
	assert.Equal(t, first, again.Resolve("JwtUtils.java", segs))
}

func TestResolveCustomRoots(t *testing.T) {
	r := NewWithRoots(catalog.Default(), "/p", "/p/app", "/p/spec")
	assert.Equal(t, filepath.FromSlash("/p/spec/a/model/ModelTest.java"), r.Resolve("ModelTest.java", []string{"a"}))
	assert.Equal(t, filepath.FromSlash("/p/app/a/model/Model.java"), r.Resolve("Model.java", []string{"a"}))
}
