package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey            string
	Model             string
	SystemInstruction string
}

// GeminiService implements TourService on the Gemini API. Tour turns run on
// a chat session so the model keeps the visited stops in context; bridge
// sentences are single-shot generations.
type GeminiService struct {
	model  string
	system string
	client *genai.Client
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig) (*GeminiService, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		model:  cfg.Model,
		system: cfg.SystemInstruction,
		client: client,
	}, nil
}

func (s *GeminiService) StartTour(ctx context.Context) (TourConversation, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.7),
		SystemInstruction: genai.NewContentFromText(s.system, genai.RoleUser),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	chat, err := s.client.Chats.Create(ctx, s.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour chat: %w", err)
	}

	return &geminiConversation{chat: chat}, nil
}

func (s *GeminiService) GenerateBridge(ctx context.Context, userText, bridgeContext string) (string, error) {
	prompt := fmt.Sprintf(`A student on a Spanish campus tour answered an open question in English with: %q

The next grammar exercise uses this situational context: %q

Rewrite the situational context as ONE short bridging sentence in simple English that weaves in the student's answer. Keep the grammatical situation intact. Return only the sentence, no quotes, no markdown.`,
		userText, bridgeContext)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", fmt.Errorf("bridge generation error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("bridge generation returned empty response")
	}

	return text, nil
}

type geminiConversation struct {
	chat *genai.Chat
}

func (c *geminiConversation) Send(ctx context.Context, message string) (*TurnResponse, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return nil, fmt.Errorf("gemini turn error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	return &TurnResponse{
		Text:    text,
		Sources: extractSources(resp),
	}, nil
}

func extractSources(resp *genai.GenerateContentResponse) []Source {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	md := resp.Candidates[0].GroundingMetadata
	if md == nil {
		return nil
	}

	var sources []Source
	for _, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}
