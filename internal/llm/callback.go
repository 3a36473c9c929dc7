package llm

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

var _ callbacks.Handler = LogCallbackHandler{}

// LogCallbackHandler logs generation errors and completion sizes.
type LogCallbackHandler struct {
	callbacks.SimpleHandler
}

func (LogCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	slog.DebugContext(ctx, "LLM request", "messages", len(ms))
}

func (LogCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil || len(res.Choices) == 0 {
		return
	}
	slog.DebugContext(ctx, "LLM response",
		"choices", len(res.Choices),
		"stop_reason", res.Choices[0].StopReason,
		"length", len(res.Choices[0].Content))
}

func (LogCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "LLM error", "error", err)
}
