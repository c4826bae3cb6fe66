package generator

import (
	"context"
	"fmt"
	"strings"

	"springforge/internal/llm"
	"springforge/internal/projectspec"
)

// TemplateSuffix marks a primary request for a fallback template rather
// than for the file itself.
const TemplateSuffix = " template"

// Primary is the first-choice content producer. Implementations report every
// failure through Result and never return partial content.
type Primary interface {
	Generate(ctx context.Context, kind string, spec projectspec.Spec) Result
}

// LLMPrimary produces files with a generative backend.
type LLMPrimary struct {
	client llm.Client
}

func NewLLMPrimary(client llm.Client) *LLMPrimary {
	return &LLMPrimary{client: client}
}

func (p *LLMPrimary) Generate(ctx context.Context, kind string, spec projectspec.Spec) Result {
	if p == nil || p.client == nil {
		return Failed(fmt.Errorf("no generative backend configured"))
	}
	prompt := codePrompt(kind)
	if file, ok := strings.CutSuffix(kind, TemplateSuffix); ok {
		prompt = templatePrompt(file)
	}
	ctx = llm.WithKind(ctx, kind)
	out, err := p.client.GenerateText(ctx, prompt, map[string]any{
		"file": kind,
		"spec": map[string]any(spec),
	})
	if err != nil {
		return Failed(err)
	}
	out = StripFences(out)
	if strings.TrimSpace(out) == "" {
		return Failed(ErrEmptyContent)
	}
	return Generated(out)
}

func codePrompt(file string) string {
	return fmt.Sprintf(`You are an expert Spring Boot code generator.
Create the full %s for the project described in the input JSON.
ONLY RETURN THE RAW CODE.`, file)
}

func templatePrompt(file string) string {
	return fmt.Sprintf(`Generate a Go text/template for a %s in a Spring Boot application
based on the project described in the input JSON. Refer to project fields as
{{ .groupId }}, {{ .projectName }} and so on.
Only return template code.`, file)
}

// StripFences removes a surrounding markdown code fence, which chat models
// add even when asked for raw code.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return ""
	}
	body := t[nl+1:]
	body = strings.TrimRight(body, " \t\r\n")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimRight(body, " \t\r\n") + "\n"
}
