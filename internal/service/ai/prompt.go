package ai

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
)

// newTemplate returns the chat template for a profile. Replaying profiles
// send the transcript followed by the new text; the others send only the
// profile's fixed prompt with the text substituted for {query}.
func newTemplate(p profile.Profile) prompt.ChatTemplate {
	if p.ReplayHistory || p.PromptTemplate == "" {
		return prompt.FromMessages(
			schema.FString,
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		)
	}
	return prompt.FromMessages(schema.FString, schema.UserMessage(p.PromptTemplate))
}

func buildChainInput(p profile.Profile, history []chat.Turn, text string) map[string]any {
	input := map[string]any{"query": text}
	if p.ReplayHistory {
		input["history"] = buildHistoryMessages(history)
	}
	return input
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(turn.Text))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return history
}
