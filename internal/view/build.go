// Package view turns a conversation into what the browser shows. Build is
// pure and recomputed from turn text on every render.
package view

import (
	"github.com/zhouzirui/my-chatbot/backend/internal/analysis/fence"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
)

// DiagramLanguage is the fence tag treated as a diagram.
const DiagramLanguage = "mermaid"

// Diagram is the diagram part of an assistant turn. Key identifies the turn
// it was extracted from and names its rendered region.
type Diagram struct {
	Key      string `json:"key"`
	Language string `json:"language"`
	Source   string `json:"source"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
}

// TurnView is one transcript entry ready for display.
type TurnView struct {
	ID      string      `json:"id"`
	Sender  chat.Sender `json:"sender"`
	Text    string      `json:"text"`
	Failed  bool        `json:"failed,omitempty"`
	Diagram *Diagram    `json:"diagram,omitempty"`
}

// Build maps turns to views in transcript order. Only assistant turns are
// scanned for a diagram, and only their first mermaid block counts.
func Build(turns []chat.Turn) []TurnView {
	views := make([]TurnView, 0, len(turns))
	for _, turn := range turns {
		views = append(views, BuildTurn(turn))
	}
	return views
}

// BuildTurn maps a single turn.
func BuildTurn(turn chat.Turn) TurnView {
	v := TurnView{
		ID:     turn.ID,
		Sender: turn.Sender,
		Text:   turn.Text,
		Failed: turn.Failed,
	}
	if turn.Sender != chat.SenderAssistant || turn.Failed {
		return v
	}

	block := fence.Extract(turn.Text, DiagramLanguage)
	if block.Kind != fence.FencedBlock {
		return v
	}
	v.Diagram = &Diagram{
		Key:      turn.ID,
		Language: DiagramLanguage,
		Source:   block.Source,
		Before:   block.Before,
		After:    block.After,
	}
	return v
}
