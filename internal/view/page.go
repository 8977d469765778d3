package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/url"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
)

const (
	NoticeInvalidSyntax = "Invalid diagram syntax"
	NoticeUnavailable   = "Diagram could not be rendered"
)

// Rendered is a TurnView after its diagram, if any, went through the
// renderer. When ShowRaw is set the diagram is displayed as the raw turn
// text together with Notice.
type Rendered struct {
	TurnView
	ImageURL string `json:"imageUrl,omitempty"`
	PDFURL   string `json:"pdfUrl,omitempty"`
	Notice   string `json:"notice,omitempty"`
	ShowRaw  bool   `json:"showRaw,omitempty"`
}

// Renderer resolves diagrams and writes HTML pages.
type Renderer struct {
	diagrams diagram.Renderer
	index    *template.Template
	session  *template.Template
}

// NewRenderer parses the page templates.
func NewRenderer(diagrams diagram.Renderer) *Renderer {
	return &Renderer{
		diagrams: diagrams,
		index:    template.Must(template.New("index").Parse(layout + indexBody)),
		session:  template.Must(template.New("session").Parse(layout + sessionBody)),
	}
}

// Resolve renders each diagram once through the diagram renderer. Renderer
// failures never propagate; they become a notice on the turn.
func (r *Renderer) Resolve(ctx context.Context, sessionID string, views []TurnView) []Rendered {
	out := make([]Rendered, 0, len(views))
	for _, v := range views {
		item := Rendered{TurnView: v}
		if v.Diagram != nil {
			r.resolveDiagram(ctx, sessionID, &item)
		}
		out = append(out, item)
	}
	return out
}

func (r *Renderer) resolveDiagram(ctx context.Context, sessionID string, item *Rendered) {
	d := item.Diagram
	_, err := r.diagrams.Render(ctx, d.Key, d.Language, d.Source, diagram.FormatSVG)
	switch {
	case err == nil:
		base := DiagramPath(sessionID, d.Key)
		item.ImageURL = base + ".svg"
		item.PDFURL = base + ".pdf"
	case errors.Is(err, diagram.ErrInvalidSyntax):
		item.Notice = NoticeInvalidSyntax
		item.ShowRaw = true
	default:
		log.Printf("[view] diagram render failed session=%s turn=%s: %v", sessionID, d.Key, err)
		item.Notice = NoticeUnavailable
		item.ShowRaw = true
	}
}

// DiagramPath is the API path of a turn's diagram without extension.
func DiagramPath(sessionID, turnID string) string {
	return fmt.Sprintf("/api/sessions/%s/turns/%s/diagram", url.PathEscape(sessionID), url.PathEscape(turnID))
}

// IndexPage lists the profiles a session can be started with.
func (r *Renderer) IndexPage(w io.Writer, profiles []profile.Profile) error {
	return r.index.Execute(w, map[string]any{
		"Title":    "Chat",
		"Profiles": profiles,
	})
}

// SessionPage writes the transcript and the input form of one session.
func (r *Renderer) SessionPage(ctx context.Context, w io.Writer, session chat.Session, p profile.Profile, turns []chat.Turn, flash string) error {
	return r.session.Execute(w, map[string]any{
		"Title":   p.Name,
		"Session": session,
		"Profile": p,
		"Turns":   r.Resolve(ctx, session.ID, Build(turns)),
		"Flash":   flash,
	})
}
