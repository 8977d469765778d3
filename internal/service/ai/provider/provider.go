// Package provider implements eino chat models over the raw HTTP APIs of
// the supported completion services. Each model issues exactly one request
// per Generate call and never retries.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	ErrEmptyResponse = errors.New("response carried no candidate text")
	ErrMissingAPIKey = errors.New("api key is required")
	ErrToolsDisabled = errors.New("tool calling is not supported")
)

// Config is shared by all HTTP-backed models. A zero Timeout leaves the
// transport default in place.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// StatusError reports a non-2xx reply from a provider.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, e.Message)
}

// apiErrorBody matches the error envelope both OpenAI and Gemini return.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpModel struct {
	name    string
	cfg     Config
	client  *http.Client
	headers func(h http.Header)
}

func newHTTPModel(name string, cfg Config, defaultBase string, headers func(http.Header)) (*httpModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &httpModel{
		name:    name,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		headers: headers,
	}, nil
}

// post sends body as JSON to url and decodes a 2xx reply into out.
func (m *httpModel) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", m.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", m.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	m.headers(req.Header)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", m.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", m.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Provider: m.name, Code: resp.StatusCode}
		var envelope apiErrorBody
		if json.Unmarshal(raw, &envelope) == nil {
			statusErr.Message = envelope.Error.Message
		}
		return statusErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", m.name, err)
	}
	return nil
}

func (m *httpModel) options(opts []model.Option) *model.Options {
	modelName := m.cfg.Model
	return model.GetCommonOptions(&model.Options{Model: &modelName}, opts...)
}

// streamOnce adapts a single Generate result to the streaming interface.
func streamOnce(msg *schema.Message, err error) (*schema.StreamReader[*schema.Message], error) {
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func bindTools(tools []*schema.ToolInfo) error {
	if len(tools) == 0 {
		return nil
	}
	return ErrToolsDisabled
}
