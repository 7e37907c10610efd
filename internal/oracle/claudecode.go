package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	claudecode "github.com/severity1/claude-agent-sdk-go"
)

// ClaudeCode answers prompts through a local Claude Code CLI
type ClaudeCode struct {
	model string
	cwd   string
}

// NewClaudeCode creates the CLI backend. cwd, when set, lets the agent read
// repository files while answering.
func NewClaudeCode(model, cwd string) *ClaudeCode {
	if model == "" {
		model = "sonnet"
	}
	return &ClaudeCode{model: model, cwd: cwd}
}

// Classify runs a single-turn query and concatenates the assistant text
func (o *ClaudeCode) Classify(ctx context.Context, prompt, purpose string) Result {
	opts := []claudecode.Option{
		claudecode.WithModel(o.model),
		claudecode.WithMaxTurns(1),
	}
	if o.cwd != "" {
		opts = append(opts, claudecode.WithCwd(o.cwd), claudecode.WithAllowedTools("Read"))
	}

	iterator, err := claudecode.Query(ctx, prompt, opts...)
	if err != nil {
		if claudecode.IsCLINotFoundError(err) {
			return Fail(FailureUnavailable, purpose, fmt.Errorf("claude code CLI not found: %w", err))
		}
		return Fail(FailureTransport, purpose, fmt.Errorf("claude code error: %w", err))
	}
	defer iterator.Close()

	var sb strings.Builder
	for {
		message, err := iterator.Next(ctx)
		if err != nil {
			if errors.Is(err, claudecode.ErrNoMoreMessages) {
				break
			}
			return Fail(FailureTransport, purpose, fmt.Errorf("error reading claude response: %w", err))
		}

		if assistantMsg, ok := message.(*claudecode.AssistantMessage); ok {
			for _, block := range assistantMsg.Content {
				if textBlock, ok := block.(*claudecode.TextBlock); ok {
					sb.WriteString(textBlock.Text)
				}
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Fail(FailureMalformed, purpose, fmt.Errorf("empty response from claude code"))
	}
	return Success(text)
}
