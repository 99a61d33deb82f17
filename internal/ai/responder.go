// Package ai defines the help-desk responder capability and its two
// implementations: a live OpenAI-backed adapter and a canned adapter for
// development and tests. The variant is selected once at process wiring
// time, never per call.
package ai

import "context"

// Turn roles in the conversation history handed to the responder.
const (
	HistoryRoleUser  = "user"
	HistoryRoleModel = "model"
)

// promptForInput is returned without touching the backend whenever the
// query is empty or whitespace-only.
const promptForInput = "Please ask a question."

// HistoryTurn is one prior exchange in the conversation.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input to a response generation call. ContextDocuments,
// when present, are concatenated ahead of the query in the underlying
// prompt.
type ChatRequest struct {
	Query            string        `json:"query"`
	History          []HistoryTurn `json:"history,omitempty"`
	ContextDocuments []string      `json:"contextDocuments,omitempty"`
}

// ChatResponse is the generated reply.
type ChatResponse struct {
	Text             string   `json:"text"`
	SourceReferences []string `json:"sourceReferences,omitempty"`
}

// Responder generates help-desk replies and embeddings. Implementations
// must never surface backend errors raw: failures are logged internally and
// collapse to models.ErrServiceUnavailable.
type Responder interface {
	GenerateResponse(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// BuildPrompt produces the wire-exact prompt for a request: context
// documents joined by newlines, prefixed ahead of the user query. Callers
// validating prompts against other consumers of the same backend depend on
// this exact shape.
func BuildPrompt(req ChatRequest) string {
	if len(req.ContextDocuments) == 0 {
		return req.Query
	}

	joined := ""
	for i, doc := range req.ContextDocuments {
		if i > 0 {
			joined += "\n"
		}
		joined += doc
	}
	return "Context: " + joined + "\n\nUser: " + req.Query
}
