package view

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
)

type fakeDiagrams struct {
	err  error
	keys []string
}

func (f *fakeDiagrams) Render(_ context.Context, key, _, _ string, _ diagram.Format) ([]byte, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<svg/>"), nil
}

var testSession = chat.Session{ID: "s1", ProfileID: "diagram"}
var testProfile = profile.Profile{ID: "diagram", Name: "Diagram"}

func TestResolveValidDiagram(t *testing.T) {
	fake := &fakeDiagrams{}
	r := NewRenderer(fake)

	out := r.Resolve(context.Background(), "s1", Build([]chat.Turn{
		{ID: "a1", Sender: chat.SenderAssistant, Text: "```mermaid\nA-->B\n```"},
	}))

	require.Len(t, out, 1)
	assert.Equal(t, "/api/sessions/s1/turns/a1/diagram.svg", out[0].ImageURL)
	assert.Equal(t, "/api/sessions/s1/turns/a1/diagram.pdf", out[0].PDFURL)
	assert.False(t, out[0].ShowRaw)
	assert.Equal(t, []string{"a1"}, fake.keys)
}

func TestSessionPageInvalidSyntaxFallsBack(t *testing.T) {
	r := NewRenderer(&fakeDiagrams{err: diagram.ErrInvalidSyntax})
	text := "```mermaid\nthis is -> not mermaid\n```"

	var buf bytes.Buffer
	err := r.SessionPage(context.Background(), &buf, testSession, testProfile, []chat.Turn{
		{ID: "a1", Sender: chat.SenderAssistant, Text: text},
	}, "")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "this is -&gt; not mermaid")
	assert.Contains(t, html, NoticeInvalidSyntax)
	assert.NotContains(t, html, "diagram.svg")
}

func TestSessionPageRendererDownFallsBack(t *testing.T) {
	r := NewRenderer(&fakeDiagrams{err: errors.New("dial tcp: refused")})

	var buf bytes.Buffer
	err := r.SessionPage(context.Background(), &buf, testSession, testProfile, []chat.Turn{
		{ID: "a1", Sender: chat.SenderAssistant, Text: "```mermaid\nA-->B\n```"},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), NoticeUnavailable)
}

func TestSessionPageShowsDiagramAndText(t *testing.T) {
	r := NewRenderer(&fakeDiagrams{})

	var buf bytes.Buffer
	err := r.SessionPage(context.Background(), &buf, testSession, testProfile, []chat.Turn{
		{ID: "u1", Sender: chat.SenderUser, Text: "draw <b>it</b>"},
		{ID: "a1", Sender: chat.SenderAssistant, Text: "Here:\n```mermaid\nA-->B\n```\nDone."},
	}, "a reply is still pending")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "draw &lt;b&gt;it&lt;/b&gt;")
	assert.Contains(t, html, `src="/api/sessions/s1/turns/a1/diagram.svg"`)
	assert.Contains(t, html, `href="/api/sessions/s1/turns/a1/diagram.pdf"`)
	assert.Contains(t, html, "Done.")
	assert.Contains(t, html, "a reply is still pending")
	assert.Contains(t, html, `action="/sessions/s1/send"`)
}

func TestIndexPageListsProfiles(t *testing.T) {
	r := NewRenderer(&fakeDiagrams{})

	var buf bytes.Buffer
	require.NoError(t, r.IndexPage(&buf, profile.Seed(false)))
	assert.Contains(t, buf.String(), `value="chat"`)
	assert.Contains(t, buf.String(), `value="diagram"`)
}
