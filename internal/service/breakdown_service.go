package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-3-flash-preview"

// Breakdowner splits a task title into suggested subtask titles. Implementations
// return an empty slice instead of failing.
type Breakdowner interface {
	Breakdown(ctx context.Context, title string) []string
}

// GeminiBreakdown asks Gemini for subtasks through the genai SDK. The client is
// created on first use.
type GeminiBreakdown struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func NewGeminiBreakdown(apiKey, model string) *GeminiBreakdown {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBreakdown{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		timeout: 20 * time.Second,
	}
}

// Available reports whether an API key is configured.
func (g *GeminiBreakdown) Available() bool {
	return g != nil && g.apiKey != ""
}

var breakdownSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subtasks": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "List of logical subtasks for the parent task.",
		},
	},
	Required: []string{"subtasks"},
}

func (g *GeminiBreakdown) Breakdown(ctx context.Context, title string) []string {
	if !g.Available() {
		return []string{}
	}
	subtasks, err := g.request(ctx, title)
	if err != nil {
		log.Printf("[warn] gemini breakdown: %v", err)
		return []string{}
	}
	return subtasks
}

func (g *GeminiBreakdown) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: g.timeout},
		}
		if g.baseURL != "" {
			cfg.HTTPOptions.BaseURL = g.baseURL
		}
		g.client, g.clientErr = genai.NewClient(ctx, cfg)
	})
	return g.client, g.clientErr
}

func (g *GeminiBreakdown) request(ctx context.Context, title string) ([]string, error) {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	prompt := fmt.Sprintf("Break down the following task into a concise list of 3-5 sub-tasks: %q", title)
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   breakdownSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.New("empty response")
	}
	var payload struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode subtasks: %w", err)
	}

	out := make([]string, 0, len(payload.Subtasks))
	for _, s := range payload.Subtasks {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
