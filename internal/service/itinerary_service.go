package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"travel-planner/internal/domain"
	"travel-planner/internal/llm"
)

const (
	itineraryHistoryWindow = 6
	// FallbackReply se devuelve cuando el proveedor falla o responde vacío.
	FallbackReply = "Sorry, I could not generate a response."
)

const itinerarySystemPrompt = `You are a friendly travel itinerary planner.
Given a user's prompt, suggest a practical plan with times for travel, meals, and activities.
Use concise bullet points and include a short summary. Keep responses under ~300 words unless asked for more.`

var itineraryOptions = llm.Options{Temperature: 0.7, TopP: 0.9, MaxTokens: 400}

// ItineraryService reenvía prompts de viaje al LLM junto con un historial corto.
type ItineraryService struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewItineraryService(llmClient llm.LLMClient, logger *zap.Logger) *ItineraryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItineraryService{llmClient: llmClient, logger: logger}
}

type PlanInput struct {
	Prompt  string            `json:"prompt" validate:"required"`
	History []domain.ChatTurn `json:"history"`
}

// Plan nunca propaga errores del proveedor: en ese caso responde FallbackReply.
func (s *ItineraryService) Plan(ctx context.Context, input PlanInput) (string, error) {
	input.Prompt = strings.TrimSpace(input.Prompt)
	if err := validateStruct(input); err != nil {
		return "", err
	}
	if s.llmClient == nil {
		s.logger.Warn("itinerary requested without llm client")
		return FallbackReply, nil
	}

	reply, err := s.llmClient.Chat(ctx, buildItineraryMessages(input.Prompt, input.History), itineraryOptions)
	if err != nil {
		s.logger.Warn("itinerary generation failed", zap.Error(err))
		return FallbackReply, nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FallbackReply, nil
	}
	return reply, nil
}

func buildItineraryMessages(prompt string, history []domain.ChatTurn) []llm.Message {
	// La ventana se toma sobre el historial recibido; los turnos vacios se descartan despues.
	if len(history) > itineraryHistoryWindow {
		history = history[len(history)-itineraryHistoryWindow:]
	}
	turns := make([]domain.ChatTurn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		turns = append(turns, t)
	}

	messages := make([]llm.Message, 0, len(turns)+2)
	messages = append(messages, llm.Message{Role: domain.RoleSystem, Content: itinerarySystemPrompt})
	for _, t := range turns {
		role := domain.RoleAssistant
		if strings.EqualFold(t.Role, domain.RoleUser) {
			role = domain.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}
	return append(messages, llm.Message{Role: domain.RoleUser, Content: prompt})
}
