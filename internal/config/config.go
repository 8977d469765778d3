package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/ai/provider"
	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Chat    ChatConfig
	Diagram DiagramConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	diagram, err := loadDiagramConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Chat: chat, Diagram: diagram}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ProviderConfig 描述单个 HTTP 大模型提供方。
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled 表示是否提供了密钥。
func (c ProviderConfig) Enabled() bool {
	return c.APIKey != ""
}

// ArkConfig 描述火山方舟模型配置。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	OpenAI      ProviderConfig
	Gemini      ProviderConfig
	Ark         ArkConfig
	Temperature *float64
	MaxTokens   *int
	// Timeout of zero keeps the HTTP transport default.
	Timeout time.Duration
}

// Enabled 表示至少配置了一个模型提供方。
func (c AIConfig) Enabled() bool {
	return c.OpenAI.Enabled() || c.Gemini.Enabled() || c.Ark.Enabled()
}

// NewChatModels 为每个已配置的提供方创建模型实例。
func (c AIConfig) NewChatModels(ctx context.Context) (map[profile.Provider]model.ChatModel, error) {
	models := make(map[profile.Provider]model.ChatModel)

	if c.OpenAI.Enabled() {
		m, err := provider.NewOpenAI(c.providerConfig(c.OpenAI))
		if err != nil {
			return nil, err
		}
		models[profile.ProviderOpenAI] = m
	}

	if c.Gemini.Enabled() {
		m, err := provider.NewGemini(c.providerConfig(c.Gemini))
		if err != nil {
			return nil, err
		}
		models[profile.ProviderGemini] = m
	}

	if c.Ark.Enabled() {
		m, err := c.newArkChatModel(ctx)
		if err != nil {
			return nil, err
		}
		models[profile.ProviderArk] = m
	}

	return models, nil
}

func (c AIConfig) providerConfig(p ProviderConfig) provider.Config {
	return provider.Config{
		APIKey:  p.APIKey,
		Model:   p.Model,
		BaseURL: p.BaseURL,
		Timeout: c.Timeout,
	}
}

// newArkChatModel 使用配置创建一个方舟模型实例。
func (c AIConfig) newArkChatModel(ctx context.Context) (model.ChatModel, error) {
	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.Ark.BaseURL,
		Region:      c.Ark.Region,
		APIKey:      c.Ark.APIKey,
		AccessKey:   c.Ark.AccessKey,
		SecretKey:   c.Ark.SecretKey,
		Model:       c.Ark.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseOptionalIntEnv("AI_HTTP_TIMEOUT")
	if err != nil {
		return AIConfig{}, err
	}
	var timeoutDuration time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return AIConfig{}, fmt.Errorf("invalid AI_HTTP_TIMEOUT value %d: must not be negative", *timeout)
		}
		timeoutDuration = time.Duration(*timeout) * time.Second
	}

	return AIConfig{
		OpenAI: ProviderConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: getEnvOrDefault("OPENAI_BASE_URL", provider.DefaultOpenAIBaseURL),
		},
		Gemini: ProviderConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnvOrDefault("GEMINI_BASE_URL", provider.DefaultGeminiBaseURL),
		},
		Ark: ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeoutDuration,
	}, nil
}

// ChatConfig 描述会话发送策略。
type ChatConfig struct {
	SendPolicy chatService.SendPolicy
}

func loadChatConfig() (ChatConfig, error) {
	policy, err := chatService.ParseSendPolicy(os.Getenv("CHAT_SEND_POLICY"))
	if err != nil {
		return ChatConfig{}, fmt.Errorf("invalid CHAT_SEND_POLICY value: %w", err)
	}
	return ChatConfig{SendPolicy: policy}, nil
}

// DiagramConfig 描述图表渲染与导出配置。
type DiagramConfig struct {
	KrokiURL    string
	Timeout     time.Duration
	ExportScale float64
}

func loadDiagramConfig() (DiagramConfig, error) {
	timeout, err := parseOptionalIntEnv("DIAGRAM_TIMEOUT")
	if err != nil {
		return DiagramConfig{}, err
	}
	timeoutSeconds := 15
	if timeout != nil {
		timeoutSeconds = *timeout
	}
	if timeoutSeconds <= 0 {
		return DiagramConfig{}, fmt.Errorf("invalid DIAGRAM_TIMEOUT value %d: must be positive", timeoutSeconds)
	}

	scale, err := parseOptionalFloatEnv("DIAGRAM_EXPORT_SCALE")
	if err != nil {
		return DiagramConfig{}, err
	}
	exportScale := 2.0
	if scale != nil {
		exportScale = *scale
	}
	if exportScale <= 0 {
		return DiagramConfig{}, fmt.Errorf("invalid DIAGRAM_EXPORT_SCALE value %v: must be positive", exportScale)
	}

	return DiagramConfig{
		KrokiURL:    getEnvOrDefault("KROKI_URL", "https://kroki.io"),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		ExportScale: exportScale,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
