package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
)

type replyCompleter struct {
	reply string
	calls int
}

func (c *replyCompleter) Complete(_ context.Context, _ profile.Profile, _ []chat.Turn, _ string) (string, error) {
	c.calls++
	return c.reply, nil
}

type badSyntaxRenderer struct{}

func (badSyntaxRenderer) Render(_ context.Context, _, _, _ string, _ diagram.Format) ([]byte, error) {
	return nil, diagram.ErrInvalidSyntax
}

func setup(completer chatService.Completer) (*chi.Mux, *chatService.Service) {
	chatSvc := chatService.NewService()
	store := profile.NewMemoryStore(profile.Seed(false))
	dispatcher := chatService.NewDispatcher(chatSvc, store, completer, chatService.PolicyReject)

	r := chi.NewRouter()
	New(chatSvc, dispatcher, store, view.NewRenderer(badSyntaxRenderer{})).RegisterRoutes(r)
	return r, chatSvc
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIndexListsProfiles(t *testing.T) {
	r, _ := setup(&replyCompleter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="diagram"`) {
		t.Fatalf("expected diagram profile in page: %s", rec.Body.String())
	}
}

func TestCreateSessionRedirects(t *testing.T) {
	r, _ := setup(&replyCompleter{})

	rec := postForm(r, "/sessions", url.Values{"profileId": {"chat"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "/sessions/") {
		t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
	}
}

func TestSendThenRenderInvalidDiagram(t *testing.T) {
	completer := &replyCompleter{reply: "```mermaid\nnot valid\n```"}
	r, chatSvc := setup(completer)
	session, _ := chatSvc.CreateSession(context.Background(), "diagram")

	rec := postForm(r, "/sessions/"+session.ID+"/send", url.Values{"text": {"draw it"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid diagram syntax") {
		t.Fatalf("expected syntax notice: %s", body)
	}
	if !strings.Contains(body, "not valid") {
		t.Fatalf("expected raw text fallback: %s", body)
	}
}

func TestSendEmptyTextSkipsCompletion(t *testing.T) {
	completer := &replyCompleter{reply: "x"}
	r, chatSvc := setup(completer)
	session, _ := chatSvc.CreateSession(context.Background(), "chat")

	rec := postForm(r, "/sessions/"+session.ID+"/send", url.Values{"text": {""}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if completer.calls != 0 {
		t.Fatalf("expected no completion, got %d", completer.calls)
	}
}

func TestSessionPageUnknown(t *testing.T) {
	r, _ := setup(&replyCompleter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
