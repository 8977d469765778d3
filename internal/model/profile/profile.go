package profile

// Provider names the upstream completion API a profile talks to.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderArk    Provider = "ark"
)

// Profile describes how a conversation is turned into completion requests.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Provider    Provider `json:"provider"`
	// ReplayHistory sends the whole transcript as context with every request.
	ReplayHistory bool `json:"replayHistory"`
	// PromptTemplate wraps the user text when history is not replayed.
	// It is an FString template and must reference {query}.
	PromptTemplate string `json:"-"`
	// ErrorText becomes the assistant turn when a completion fails.
	ErrorText string `json:"-"`
}

const diagramPrompt = "You are a diagram assistant. Describe the requested system as a Mermaid diagram.\n" +
	"Answer with one fenced code block tagged mermaid, followed by at most two sentences of explanation.\n\n" +
	"Request: {query}"

// Seed returns the built-in profiles. The ark profile is only included when
// withArk is set, since it needs its own credentials.
func Seed(withArk bool) []Profile {
	items := []Profile{
		{
			ID:            "chat",
			Name:          "Chat",
			Description:   "General conversation, the full transcript is sent as context.",
			Provider:      ProviderOpenAI,
			ReplayHistory: true,
			ErrorText:     "Error: Could not fetch response from OpenAI API.",
		},
		{
			ID:             "diagram",
			Name:           "Diagram",
			Description:    "Turns a description into a Mermaid diagram.",
			Provider:       ProviderGemini,
			PromptTemplate: diagramPrompt,
			ErrorText:      "Error: Could not fetch response from Gemini API.",
		},
	}
	if withArk {
		items = append(items, Profile{
			ID:            "ark",
			Name:          "Ark",
			Description:   "Conversation backed by a Volcengine Ark model.",
			Provider:      ProviderArk,
			ReplayHistory: true,
			ErrorText:     "Error: Could not fetch response from Ark API.",
		})
	}
	return items
}
