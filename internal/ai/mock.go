package ai

import (
	"context"
	"strings"
)

// MockResponder returns canned replies without any external calls. Used in
// development and automated tests.
type MockResponder struct{}

func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

func (r *MockResponder) GenerateResponse(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return &ChatResponse{Text: promptForInput}, nil
	}

	sourceReferences := []string{}
	if len(req.ContextDocuments) > 0 {
		sourceReferences = []string{"internal_knowledge"}
	}

	return &ChatResponse{
		Text:             "Mock AI response to: " + req.Query,
		SourceReferences: sourceReferences,
	}, nil
}

func (r *MockResponder) EmbedText(_ context.Context, text string) ([]float32, error) {
	// Fixed-dimension pseudo embedding, deterministic for a given input.
	embedding := make([]float32, 768)
	for i, b := range []byte(text) {
		embedding[i%768] += float32(b) / 255
	}
	return embedding, nil
}
