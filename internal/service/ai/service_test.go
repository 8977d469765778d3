package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
)

type recordingModel struct {
	inputs [][]*schema.Message
	reply  string
	err    error
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *recordingModel) BindTools([]*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, models map[profile.Provider]model.ChatModel) (*Service, profile.Store) {
	t.Helper()
	store := profile.NewMemoryStore(profile.Seed(false))
	svc, err := NewService(context.Background(), store, models)
	require.NoError(t, err)
	return svc, store
}

func TestCompleteReplaysHistory(t *testing.T) {
	openai := &recordingModel{reply: "sure"}
	svc, store := newTestService(t, map[profile.Provider]model.ChatModel{profile.ProviderOpenAI: openai})
	p, _ := store.FindByID("chat")

	history := []chat.Turn{
		{Sender: chat.SenderUser, Text: "hi"},
		{Sender: chat.SenderAssistant, Text: "hello"},
	}
	out, err := svc.Complete(context.Background(), p, history, "next")
	require.NoError(t, err)
	assert.Equal(t, "sure", out)

	require.Len(t, openai.inputs, 1)
	msgs := openai.inputs[0]
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, schema.User, msgs[2].Role)
	assert.Equal(t, "next", msgs[2].Content)
}

func TestCompleteUsesFixedTemplate(t *testing.T) {
	gemini := &recordingModel{reply: "```mermaid\nA-->B\n```"}
	svc, store := newTestService(t, map[profile.Provider]model.ChatModel{profile.ProviderGemini: gemini})
	p, _ := store.FindByID("diagram")

	history := []chat.Turn{{Sender: chat.SenderUser, Text: "ignored"}}
	_, err := svc.Complete(context.Background(), p, history, "a {braced} login flow")
	require.NoError(t, err)

	require.Len(t, gemini.inputs, 1)
	msgs := gemini.inputs[0]
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Request: a {braced} login flow")
	assert.Contains(t, msgs[0].Content, "mermaid")
}

func TestCompleteUnavailableProfile(t *testing.T) {
	svc, store := newTestService(t, map[profile.Provider]model.ChatModel{})
	p, _ := store.FindByID("chat")

	assert.False(t, svc.Available("chat"))
	_, err := svc.Complete(context.Background(), p, nil, "hi")
	assert.ErrorIs(t, err, ErrProfileUnavailable)
}

func TestCompleteModelError(t *testing.T) {
	boom := errors.New("upstream down")
	svc, store := newTestService(t, map[profile.Provider]model.ChatModel{profile.ProviderGemini: &recordingModel{err: boom}})
	p, _ := store.FindByID("diagram")

	assert.True(t, svc.Available("diagram"))
	_, err := svc.Complete(context.Background(), p, nil, "hi")
	assert.ErrorContains(t, err, boom.Error())
}
