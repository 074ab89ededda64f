package extract

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"
)

// LLM is the model call the extractor depends on. Implementations return
// the model's JSON response; cross-cutting concerns (caching, parsing)
// live in the extractor.
type LLM interface {
	Name() string
	Close() error
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
}

// GeminiLLM is a thin wrapper around the official genai client.
type GeminiLLM struct {
	cli   *genai.Client
	model string
}

func NewGeminiLLM(ctx context.Context, model string) (*GeminiLLM, error) {
	// The genai client reads GEMINI_API_KEY from the environment.
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiLLM{cli: cli, model: model}, nil
}

func (g *GeminiLLM) Name() string { return "Gemini:" + g.model }
func (g *GeminiLLM) Close() error { return nil }

// GenerateJSON concatenates prompt and input, asks for application/json,
// and returns the model's JSON as json.RawMessage.
func (g *GeminiLLM) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	full := prompt + "\n\n[INPUT]\n" + string(in)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}
