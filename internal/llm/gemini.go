package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/joelkehle/circuit-architect/internal/llmjson"
)

// GeminiModels is the subset of *genai.Models used here.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCaller asks the model for application/json output, so responses
// skip extraction and repair and are decoded strictly.
type GeminiCaller struct {
	models GeminiModels
	model  string
}

func NewGeminiCaller(models GeminiModels, model string) *GeminiCaller {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiCaller{models: models, model: model}
}

func NewGeminiCallerFromEnv(ctx context.Context) (*GeminiCaller, error) {
	if EnvEnabled("CIRCUIT_NO_LLM") {
		return nil, ErrDisabled
	}
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewGeminiCaller(client.Models, os.Getenv("CIRCUIT_LLM_MODEL")), nil
}

func (g *GeminiCaller) ModelName() string { return g.model }

func (g *GeminiCaller) GenerateStructured(ctx context.Context, prompt string) (any, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.4),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &llmjson.ParseError{Message: "empty response", Err: llmjson.ErrUnparseable}
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &llmjson.ParseError{Message: err.Error(), Err: err}
	}
	return v, nil
}
