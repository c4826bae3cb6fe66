package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springforge/internal/llm"
)

type cannedLLM struct {
	reply      string
	err        error
	lastPrompt string
	lastKind   string
	lastInput  any
}

func (c *cannedLLM) Name() string { return "canned" }
func (c *cannedLLM) Close() error { return nil }
func (c *cannedLLM) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	c.lastPrompt = prompt
	c.lastKind = llm.KindFrom(ctx)
	c.lastInput = input
	return c.reply, c.err
}

func TestLLMPrimaryWrapsBackendErrors(t *testing.T) {
	p := NewLLMPrimary(&cannedLLM{err: errors.New("429")})
	res := p.Generate(context.Background(), "Entity.java", spec)
	require.False(t, res.OK())
	assert.EqualError(t, res.Reason(), "429")
}

func TestLLMPrimaryRejectsEmptyReplies(t *testing.T) {
	p := NewLLMPrimary(&cannedLLM{reply: "```java\n```"})
	res := p.Generate(context.Background(), "Entity.java", spec)
	require.ErrorIs(t, res.Reason(), ErrEmptyContent)
}

func TestLLMPrimaryStripsFencesAndTagsKind(t *testing.T) {
	c := &cannedLLM{reply: "```java\nclass Entity {}\n```"}
	res := NewLLMPrimary(c).Generate(context.Background(), "Entity.java", spec)
	require.True(t, res.OK())
	assert.Equal(t, "class Entity {}\n", res.Content())
	assert.Equal(t, "Entity.java", c.lastKind)
	assert.Contains(t, c.lastPrompt, "Create the full Entity.java")

	in, ok := c.lastInput.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "com.example", in["spec"].(map[string]any)["groupId"])
}

func TestLLMPrimaryTemplatePrompt(t *testing.T) {
	c := &cannedLLM{reply: "{{ .groupId }}"}
	res := NewLLMPrimary(c).Generate(context.Background(), "Dockerfile"+TemplateSuffix, spec)
	require.True(t, res.OK())
	assert.Contains(t, c.lastPrompt, "text/template for a Dockerfile")
}

func TestLLMPrimaryWithoutClient(t *testing.T) {
	assert.False(t, NewLLMPrimary(nil).Generate(context.Background(), "x", spec).OK())
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "plain", StripFences("plain"))
	assert.Equal(t, "a\nb\n", StripFences("```\na\nb\n```"))
	assert.Equal(t, "x\n", StripFences("  ```xml\nx\n```  \n"))
	assert.Equal(t, "", StripFences("```"))
}
