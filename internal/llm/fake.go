package llm

import (
	"context"
	"fmt"
	"strings"
)

// FakeClient returns deterministic placeholder code for offline runs. File
// kinds ending in " template" get a text/template that echoes the project groupId.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	kind := KindFrom(ctx)
	if strings.HasSuffix(kind, " template") {
		file := strings.TrimSuffix(kind, " template")
		return fmt.Sprintf("// %s for {{ .groupId }}\n", file), nil
	}
	groupID := ""
	if m, ok := input.(map[string]any); ok {
		if spec, ok := m["spec"].(map[string]any); ok {
			groupID, _ = spec["groupId"].(string)
		}
	}
	return fmt.Sprintf("// %s generated offline for %s\n", kind, groupID), nil
}
