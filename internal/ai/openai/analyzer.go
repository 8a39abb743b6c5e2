package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/signalflux/internal/ai"
	"github.com/songzhibin97/signalflux/internal/models"
)

// OpenAIAnalyzer implements the Analyzer interface using OpenAI
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer creates a new OpenAI analyzer instance
func NewOpenAIAnalyzer(apiKey string, model string) *OpenAIAnalyzer {
	client := openai.NewClient(apiKey)
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAIAnalyzer{
		client: client,
		model:  model,
	}
}

// SummarizeReport implements the Analyzer interface
func (a *OpenAIAnalyzer) SummarizeReport(ctx context.Context, snapshot *models.PortfolioSnapshot, stats *ai.ReportStats) (string, error) {
	accounts, err := json.Marshal(snapshot.Accounts)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	prompt := fmt.Sprintf(`You are the reporting assistant of an automated trading signal bridge.
Write one short paragraph (3 sentences max, plain text, no markdown) summarizing today's state for the operator.

Active accounts: %d
Account statuses: %s
Signals processed today: %d (%d succeeded)

Mention anything that needs attention, e.g. accounts in error state or a low success rate.`,
		snapshot.ActiveAccounts, accounts, stats.TotalSignals, stats.SucceededSignals)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
