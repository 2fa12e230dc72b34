// Package entities contains core business entities.
// These are plain domain objects with no knowledge of storage, transport or models.
package entities

// Chunk is a unit of knowledge-base text with a precomputed embedding.
// Chunks are immutable once loaded into the knowledge store.
type Chunk struct {
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// ScoredChunk is a Chunk ranked against a single query.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"` // Cosine similarity to the query
}

// Role identifies the author of a chat message sent to a generator.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in a generation request or response.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is what the responder hands to the external model.
type GenerationRequest struct {
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Choice is one candidate completion.
type Choice struct {
	Message ChatMessage `json:"message"`
}

// GenerationResponse mirrors the chat-completion response shape.
type GenerationResponse struct {
	Choices []Choice `json:"choices"`
}

// Answer returns the content of the first choice.
func (r *GenerationResponse) Answer() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", ErrNoChoices
	}
	return r.Choices[0].Message.Content, nil
}

// ChatResult is the outcome of one chat submission.
type ChatResult struct {
	Query   string
	Answer  string
	Sources []ScoredChunk
}
