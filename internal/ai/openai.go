package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/sashabaranov/go-openai"
)

// OpenAIResponder generates replies through the OpenAI chat-completion API.
type OpenAIResponder struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewOpenAIResponder creates a live responder. The timeout bounds each
// upstream call; there is no other cancellation mechanism for an in-flight
// generation.
func NewOpenAIResponder(apiKey, model string, maxTokens int, timeout time.Duration, logger *slog.Logger) *OpenAIResponder {
	return &OpenAIResponder{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

func (r *OpenAIResponder) GenerateResponse(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return &ChatResponse{Text: promptForInput}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == HistoryRoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: BuildPrompt(req),
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		Messages:  messages,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		// Log the real cause internally; callers only ever see the
		// generic unavailable condition.
		r.logger.Error("chat completion failed", slog.Any("error", err))
		return nil, models.ErrServiceUnavailable
	}

	if len(resp.Choices) == 0 {
		r.logger.Error("chat completion returned no choices")
		return nil, models.ErrServiceUnavailable
	}

	sourceReferences := []string{}
	if len(req.ContextDocuments) > 0 {
		sourceReferences = []string{"internal_knowledge"}
	}

	return &ChatResponse{
		Text:             resp.Choices[0].Message.Content,
		SourceReferences: sourceReferences,
	}, nil
}

func (r *OpenAIResponder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.SmallEmbedding3,
		Input: []string{text},
	})
	if err != nil {
		r.logger.Error("embedding request failed", slog.Any("error", err))
		return nil, models.ErrServiceUnavailable
	}

	if len(resp.Data) == 0 {
		r.logger.Error("embedding request returned no data")
		return nil, models.ErrServiceUnavailable
	}

	return resp.Data[0].Embedding, nil
}
