package usecases

import (
	"context"
	"strings"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/ports"
)

// DefaultFraming opens every prompt.
const DefaultFraming = "You are a local, offline assistant for the project described in the CONTEXT. " +
	"Use ONLY the information in the CONTEXT to answer. " +
	"If something is not in the context, say you are not sure."

// Responder builds prompts from retrieved chunks and asks the generator for an answer.
type Responder struct {
	generator ports.Generator
	framing   string
}

// NewResponder creates a Responder. An empty framing falls back to DefaultFraming.
func NewResponder(generator ports.Generator, framing string) *Responder {
	if strings.TrimSpace(framing) == "" {
		framing = DefaultFraming
	}
	return &Responder{
		generator: generator,
		framing:   framing,
	}
}

// BuildPrompt assembles framing, context and question. The prompt ends with
// the literal query.
func (r *Responder) BuildPrompt(query string, top []entities.ScoredChunk) string {
	return BuildPrompt(r.framing, query, top)
}

// BuildPrompt renders each chunk as "SOURCE: <source>\n<text>", separated by
// a blank line, in ranked order.
func BuildPrompt(framing, query string, top []entities.ScoredChunk) string {
	blocks := make([]string, len(top))
	for i, c := range top {
		blocks[i] = "SOURCE: " + c.Source + "\n" + c.Text
	}

	var sb strings.Builder
	sb.WriteString(framing)
	sb.WriteString("\n\nCONTEXT:\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\nUSER QUESTION:\n")
	sb.WriteString(query)
	return sb.String()
}

// Respond sends a single non-streaming user message and returns the answer.
// Any failure is returned as *entities.GenerationError.
func (r *Responder) Respond(ctx context.Context, query string, top []entities.ScoredChunk) (string, error) {
	req := entities.GenerationRequest{
		Messages: []entities.ChatMessage{
			{Role: entities.RoleUser, Content: r.BuildPrompt(query, top)},
		},
		Stream: false,
	}

	resp, err := r.generator.Generate(ctx, req)
	if err != nil {
		return "", &entities.GenerationError{Query: query, Err: err}
	}

	answer, err := resp.Answer()
	if err != nil {
		return "", &entities.GenerationError{Query: query, Err: err}
	}
	return answer, nil
}
