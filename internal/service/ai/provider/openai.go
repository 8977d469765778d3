package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature *float32        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// OpenAI talks to an OpenAI-style chat completions endpoint.
type OpenAI struct {
	*httpModel
}

// NewOpenAI creates the model; cfg.APIKey is sent as a bearer token.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	base, err := newHTTPModel("openai", cfg, DefaultOpenAIBaseURL, func(h http.Header) {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	})
	if err != nil {
		return nil, err
	}
	return &OpenAI{httpModel: base}, nil
}

// Generate posts the messages and returns choices[0].message.content.
func (o *OpenAI) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := o.options(opts)

	req := openaiRequest{
		Model:       *options.Model,
		Messages:    make([]openaiMessage, 0, len(input)),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	for _, msg := range input {
		req.Messages = append(req.Messages, openaiMessage{Role: string(msg.Role), Content: msg.Content})
	}

	var resp openaiResponse
	if err := o.post(ctx, o.cfg.BaseURL+"/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	out := schema.AssistantMessage(choice.Message.Content, nil)
	out.ResponseMeta = &schema.ResponseMeta{FinishReason: choice.FinishReason}
	if resp.Usage != nil {
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// Stream returns the full reply as a single chunk.
func (o *OpenAI) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return streamOnce(o.Generate(ctx, input, opts...))
}

// BindTools only accepts an empty tool list.
func (o *OpenAI) BindTools(tools []*schema.ToolInfo) error {
	return bindTools(tools)
}
