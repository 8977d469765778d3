package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
}

// Gemini talks to a Gemini-style generateContent endpoint.
type Gemini struct {
	*httpModel
}

// NewGemini creates the model; cfg.APIKey is sent as x-goog-api-key.
func NewGemini(cfg Config) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	base, err := newHTTPModel("gemini", cfg, DefaultGeminiBaseURL, func(h http.Header) {
		h.Set("x-goog-api-key", cfg.APIKey)
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{httpModel: base}, nil
}

// Generate posts the messages and returns candidates[0].content.parts[0].text.
func (g *Gemini) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := g.options(opts)

	req := geminiRequest{Contents: make([]geminiContent, 0, len(input))}
	for _, msg := range input {
		part := geminiPart{Text: msg.Content}
		switch msg.Role {
		case schema.System:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part)
		case schema.Assistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{part}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{part}})
		}
	}
	if options.Temperature != nil || options.MaxTokens != nil {
		req.GenerationConfig = &geminiGenerationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, *options.Model)

	var resp geminiResponse
	if err := g.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	text := candidate.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	out := schema.AssistantMessage(text, nil)
	out.ResponseMeta = &schema.ResponseMeta{FinishReason: candidate.FinishReason}
	if resp.UsageMetadata != nil {
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

// Stream returns the full reply as a single chunk.
func (g *Gemini) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return streamOnce(g.Generate(ctx, input, opts...))
}

// BindTools only accepts an empty tool list.
func (g *Gemini) BindTools(tools []*schema.ToolInfo) error {
	return bindTools(tools)
}
