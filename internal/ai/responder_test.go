package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_NoContext(t *testing.T) {
	prompt := BuildPrompt(ChatRequest{Query: "How do I reset my password?"})
	assert.Equal(t, "How do I reset my password?", prompt)
}

func TestBuildPrompt_WithContextDocuments(t *testing.T) {
	prompt := BuildPrompt(ChatRequest{
		Query:            "What is the refund policy?",
		ContextDocuments: []string{"doc one", "doc two"},
	})

	// Wire-exact shape: other consumers of the same backend validate
	// prompts against this format.
	assert.Equal(t, "Context: doc one\ndoc two\n\nUser: What is the refund policy?", prompt)
}

func TestMockResponder_EmptyQueryShortCircuits(t *testing.T) {
	responder := NewMockResponder()

	for _, query := range []string{"", "   ", "\n\t "} {
		resp, err := responder.GenerateResponse(context.Background(), ChatRequest{Query: query})
		require.NoError(t, err)
		assert.Equal(t, "Please ask a question.", resp.Text)
	}
}

func TestMockResponder_EchoesQuery(t *testing.T) {
	responder := NewMockResponder()

	resp, err := responder.GenerateResponse(context.Background(), ChatRequest{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Mock AI response to: hello", resp.Text)
	assert.Empty(t, resp.SourceReferences)
}

func TestMockResponder_EmbedTextDeterministic(t *testing.T) {
	responder := NewMockResponder()

	first, err := responder.EmbedText(context.Background(), "same input")
	require.NoError(t, err)
	second, err := responder.EmbedText(context.Background(), "same input")
	require.NoError(t, err)

	assert.Len(t, first, 768)
	assert.Equal(t, first, second)
}
