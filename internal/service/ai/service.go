package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
)

var ErrProfileUnavailable = errors.New("no chat model configured for profile")

// Service runs completions for every profile whose provider has a model.
type Service struct {
	chains map[string]compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles one template+model chain per usable profile. Profiles
// whose provider has no model are skipped and fail at Complete time.
func NewService(ctx context.Context, profiles profile.Store, models map[profile.Provider]model.ChatModel) (*Service, error) {
	svc := &Service{
		chains: make(map[string]compose.Runnable[map[string]any, *schema.Message]),
	}

	for _, p := range profiles.List() {
		chatModel, ok := models[p.Provider]
		if !ok || chatModel == nil {
			log.Printf("[ai] profile %s disabled: no %s model configured", p.ID, p.Provider)
			continue
		}

		chain := compose.NewChain[map[string]any, *schema.Message]()
		chain.AppendChatTemplate(newTemplate(p))
		chain.AppendChatModel(chatModel)

		runnable, err := chain.Compile(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compile chain for profile %s: %w", p.ID, err)
		}
		svc.chains[p.ID] = runnable
	}

	return svc, nil
}

// Available reports whether completions can run for the profile.
func (s *Service) Available(profileID string) bool {
	_, ok := s.chains[profileID]
	return ok
}

// Complete issues one completion request and returns the reply text.
func (s *Service) Complete(ctx context.Context, p profile.Profile, history []chat.Turn, text string) (string, error) {
	chain, ok := s.chains[p.ID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProfileUnavailable, p.ID)
	}

	response, err := chain.Invoke(ctx, buildChainInput(p, history, text))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response profile=%s provider=%s length=%d", p.ID, p.Provider, len(response.Content))
	return response.Content, nil
}
