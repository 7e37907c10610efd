package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when neither config nor TRIAGEBOT_MODEL names one
const DefaultModel = "claude-3-5-haiku-20241022"

// AnthropicConfig configures the Messages API backend
type AnthropicConfig struct {
	APIKey          string // falls back to ANTHROPIC_API_KEY
	Model           string // falls back to TRIAGEBOT_MODEL, then DefaultModel
	MaxTokens       int64  // verdict purposes
	AnswerMaxTokens int64  // free-text purposes
	System          string
}

// Anthropic calls the Anthropic Messages API
type Anthropic struct {
	client          anthropic.Client
	model           string
	maxTokens       int64
	answerMaxTokens int64
	system          string
}

// NewAnthropic creates the API backend. It fails when no API key is available.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if env := os.Getenv("TRIAGEBOT_MODEL"); env != "" {
		model = env
	}
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	answerMaxTokens := cfg.AnswerMaxTokens
	if answerMaxTokens <= 0 {
		answerMaxTokens = 1024
	}

	return &Anthropic{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:           model,
		maxTokens:       maxTokens,
		answerMaxTokens: answerMaxTokens,
		system:          cfg.System,
	}, nil
}

// Model returns the model name in use
func (o *Anthropic) Model() string {
	return o.model
}

// Classify sends prompt as a single user message
func (o *Anthropic) Classify(ctx context.Context, prompt, purpose string) Result {
	maxTokens := o.maxTokens
	if IsAnswer(purpose) {
		maxTokens = o.answerMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if o.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: o.system}}
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return Fail(FailureTransport, purpose, fmt.Errorf("Claude API error: %w", err))
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Fail(FailureMalformed, purpose, fmt.Errorf("empty response from model %s", o.model))
	}
	return Success(text)
}
