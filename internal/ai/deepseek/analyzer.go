package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/songzhibin97/signalflux/internal/ai"
	"github.com/songzhibin97/signalflux/internal/models"
)

const (
	defaultAPIEndpoint = "https://api.deepseek.com/v1"
	defaultModel       = "deepseek-chat"
)

// DeepSeekAnalyzer implements the Analyzer interface using DeepSeek
type DeepSeekAnalyzer struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewDeepSeekAnalyzer creates a new DeepSeek analyzer instance
func NewDeepSeekAnalyzer(apiKey string, model string) *DeepSeekAnalyzer {
	if model == "" {
		model = defaultModel
	}

	return &DeepSeekAnalyzer{
		apiKey:   apiKey,
		endpoint: defaultAPIEndpoint,
		model:    model,
		client:   &http.Client{},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SummarizeReport implements the Analyzer interface
func (a *DeepSeekAnalyzer) SummarizeReport(ctx context.Context, snapshot *models.PortfolioSnapshot, stats *ai.ReportStats) (string, error) {
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

	content, err := a.createChatCompletion(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}

	return strings.TrimSpace(content), nil
}

func (a *DeepSeekAnalyzer) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("api error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return result.Choices[0].Message.Content, nil
}
