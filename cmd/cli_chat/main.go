package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"travel-planner/internal/domain"
	"travel-planner/internal/llm"
	"travel-planner/internal/service"
)

// cli_chat permite probar el planificador de itinerarios desde la terminal,
// sin levantar el servidor HTTP. Solo necesita LLM_API_KEY y LLM_MODEL.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	apiKey := os.Getenv("LLM_API_KEY")
	model := os.Getenv("LLM_MODEL")
	if apiKey == "" || model == "" {
		log.Fatal("LLM_API_KEY and LLM_MODEL are required")
	}

	logger := zap.NewExample()
	defer logger.Sync()

	llmClient := llm.NewHTTPClient(os.Getenv("LLM_BASE_URL"), apiKey, model, logger)
	itinerarySvc := service.NewItineraryService(llmClient, logger)

	history := []domain.ChatTurn{{
		Role:    domain.RoleAssistant,
		Content: `Hi! Ask me to plan your trip. Example: "2 days in Mysuru, vegetarian food, budget 5k/day".`,
	}}
	fmt.Println(history[0].Content)
	fmt.Println("---- escribe 'salir' para terminar ----")

	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") {
			return
		}

		reply, err := itinerarySvc.Plan(ctx, service.PlanInput{Prompt: text, History: history})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Planner > %s\n\n", reply)

		history = append(history,
			domain.ChatTurn{Role: domain.RoleUser, Content: text},
			domain.ChatTurn{Role: domain.RoleAssistant, Content: reply},
		)
	}
}
