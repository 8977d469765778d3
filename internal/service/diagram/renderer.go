package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidSyntax     = errors.New("invalid diagram syntax")
	ErrRenderUnavailable = errors.New("diagram renderer unavailable")
	ErrUnsupportedFormat = errors.New("unsupported diagram format")
)

// Format is an output image format of the renderer.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat maps a file extension to a Format.
func ParseFormat(ext string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(ext, "."))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Renderer turns diagram source into an image. key identifies the message
// the diagram belongs to and is used for caching.
type Renderer interface {
	Render(ctx context.Context, key, language, source string, format Format) ([]byte, error)
}

// Config configures the Kroki renderer.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type cacheKey struct {
	key      string
	language string
	format   Format
}

type cacheEntry struct {
	data []byte
	err  error
}

// KrokiRenderer renders diagrams through a Kroki server
// (POST {base}/{language}/{format} with the source as plain text).
type KrokiRenderer struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

// NewKrokiRenderer creates a renderer for the given Kroki endpoint.
func NewKrokiRenderer(cfg Config) *KrokiRenderer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &KrokiRenderer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cache:   make(map[cacheKey]cacheEntry),
	}
}

// Render returns the rendered image. Successful renders and syntax errors
// are cached per key; transport errors are not, so a later call may retry.
func (r *KrokiRenderer) Render(ctx context.Context, key, language, source string, format Format) ([]byte, error) {
	ck := cacheKey{key: key, language: strings.ToLower(language), format: format}

	r.mu.RLock()
	entry, ok := r.cache[ck]
	r.mu.RUnlock()
	if ok {
		return entry.data, entry.err
	}

	data, err := r.fetch(ctx, ck.language, source, format)
	if err == nil || errors.Is(err, ErrInvalidSyntax) {
		r.mu.Lock()
		r.cache[ck] = cacheEntry{data: data, err: err}
		r.mu.Unlock()
	}
	return data, err
}

func (r *KrokiRenderer) fetch(ctx context.Context, language, source string, format Format) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", r.baseURL, language, format)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(source))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRenderUnavailable, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRenderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusBadRequest:
		log.Printf("[diagram] %s source rejected: %s", language, firstLine(body))
		return nil, fmt.Errorf("%w: %s", ErrInvalidSyntax, firstLine(body))
	default:
		return nil, fmt.Errorf("%w: status %s", ErrRenderUnavailable, resp.Status)
	}
}

func firstLine(body []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	if len(line) > 200 {
		line = line[:200]
	}
	return line
}
