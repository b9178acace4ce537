// Package llm adapts hosted chat-completion APIs to the assistant's Model
// boundary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/assistant"
	"github.com/worldofchami/paychat/pkg/observability"
)

const finishToolCalls = "tool_calls"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI asks a chat-completions model for one decision per turn. Tools are
// declared with tool_choice "auto" and never executed here.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpenAI(cfg Config, logger *zap.Logger, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4o
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAI{
		client:  openai.NewClient(reqOpts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  observability.OrNop(logger),
	}, nil
}

// Complete implements assistant.Model.
func (o *OpenAI) Complete(ctx context.Context, req assistant.ModelRequest) (assistant.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:      o.model,
		Messages:   toMessages(req.Messages),
		Tools:      toTools(req.Tools),
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")},
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return assistant.Decision{}, fmt.Errorf("llm: chat completion: %w", err)
	}
	o.logger.Debug("chat completion",
		zap.String("model", resp.Model),
		zap.Int("choices", len(resp.Choices)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(resp.Choices) == 0 {
		return assistant.Decision{}, nil
	}
	return toDecision(resp.Choices[0]), nil
}

func toDecision(choice openai.ChatCompletionChoice) assistant.Decision {
	calls := choice.Message.ToolCalls
	if choice.FinishReason != finishToolCalls && len(calls) == 0 {
		return assistant.Decision{Text: choice.Message.Content}
	}
	if len(calls) == 0 {
		return assistant.Decision{ToolCall: &assistant.RawToolCall{}}
	}
	return assistant.Decision{ToolCall: &assistant.RawToolCall{
		Name:      calls[0].Function.Name,
		Arguments: calls[0].Function.Arguments,
	}}
}

func toMessages(msgs []assistant.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case assistant.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case assistant.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toTools(schemas []assistant.ToolSchema) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        s.Name,
			Description: openai.String(s.Description),
			Parameters:  openai.FunctionParameters(s.Parameters),
		}))
	}
	return out
}
