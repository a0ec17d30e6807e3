// Package llm holds the model provider clients used to generate design
// solutions and the transport error handling shared by their callers.
package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_20250514)
	DefaultGeminiModel    = "gemini-2.5-flash"
)

const systemPrompt = "You are a senior hardware systems architect. You design embedded circuit systems from catalog modules, state assumptions explicitly and never invent part numbers. Respond with strict JSON only."

var ErrDisabled = errors.New("llm calls disabled by CIRCUIT_NO_LLM")

// Caller returns raw model text that still needs extraction and repair.
type Caller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// StructuredCaller returns an already decoded JSON value.
type StructuredCaller interface {
	GenerateStructured(ctx context.Context, prompt string) (any, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCaller(messages AnthropicMessager, model string) *AnthropicCaller {
	if strings.TrimSpace(model) == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicCaller{messages: messages, model: model}
}

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	if EnvEnabled("CIRCUIT_NO_LLM") {
		return nil, ErrDisabled
	}
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return NewAnthropicCaller(newAnthropicClient(apiKey), os.Getenv("CIRCUIT_LLM_MODEL")), nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   8192,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.4),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
