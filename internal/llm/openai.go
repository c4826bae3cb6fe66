package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	groqBaseURL     = "https://api.groq.com/openai/v1/chat/completions"
	azureAPIVersion = "2023-12-01-preview"
)

// ChatClient calls an OpenAI-compatible Chat Completions endpoint. It serves
// Groq (bearer auth, model in body) and Azure OpenAI (api-key header,
// deployment in the URL).
type ChatClient struct {
	http    *http.Client
	apiKey  string
	model   string
	url     string
	azure   bool
	temp    float32
	display string
}

// NewGroqClient creates a client for Groq's OpenAI-compatible API.
func NewGroqClient(apiKey, model string) *ChatClient {
	return &ChatClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		url:     groqBaseURL,
		temp:    0.3,
		display: "Groq:" + model,
	}
}

// NewAzureOpenAIClient targets a deployment on an Azure OpenAI resource.
func NewAzureOpenAIClient(endpoint, apiKey, deployment string) (*ChatClient, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("azure openai endpoint is required")
	}
	if strings.TrimSpace(deployment) == "" {
		return nil, fmt.Errorf("azure openai deployment is required")
	}
	u := endpoint + "/openai/deployments/" + url.PathEscape(deployment) + "/chat/completions?api-version=" + azureAPIVersion
	return &ChatClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   deployment,
		url:     u,
		azure:   true,
		temp:    0.3,
		display: "AzureOpenAI:" + deployment,
	}, nil
}

// WithBaseURL points the client at a different endpoint, e.g. a local proxy.
func (c *ChatClient) WithBaseURL(u string) *ChatClient {
	c.url = u
	return c
}

func (c *ChatClient) Name() string { return c.display }
func (c *ChatClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateText sends prompt + input as a single user message.
func (c *ChatClient) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	body := chatReq{
		Messages:    []chatMessage{{Role: "user", Content: composePrompt(prompt, input)}},
		Temperature: c.temp,
	}
	if !c.azure {
		body.Model = c.model
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		if c.azure {
			req.Header.Set("api-key", c.apiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: unexpected status %s: %s", c.display, resp.Status, strings.TrimSpace(string(snippet)))
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.display, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
