package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API host; empty uses the public endpoint.
	BaseURL string
}

// GeminiClient sends requests through the Gemini generateContent API.
// System messages become the system instruction.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func (c *GeminiClient) Provider() string { return ProviderGemini }

func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
		TopP:        genai.Ptr(float32(req.TopP)),
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &Response{}
	for _, cand := range result.Candidates {
		var text strings.Builder
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part != nil {
					text.WriteString(part.Text)
				}
			}
		}
		out.Choices = append(out.Choices, Choice{
			Content:      text.String(),
			FinishReason: string(cand.FinishReason),
		})
	}
	return out, nil
}
