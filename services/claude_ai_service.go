package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ============================================================================
// CLAUDE AI SERVICE
// Backs the dealer simulator and the market valuation search. Optional: an
// empty ANTHROPIC_API_KEY degrades to canned behavior upstream, never an
// outage.
// ============================================================================

type ClaudeAIService struct {
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type ClaudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []ClaudeMessage `json:"messages"`
}

type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ClaudeResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func NewClaudeAIService() *ClaudeAIService {
	return &ClaudeAIService{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		model:      "claude-3-5-sonnet-latest",
		maxTokens:  2000,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Available reports whether the service is configured at all.
func (s *ClaudeAIService) Available() bool {
	return s.apiKey != ""
}

// CallClaude sends a single user prompt and returns the text response.
// Used by the market valuation search, which owns the prompt contract.
func (s *ClaudeAIService) CallClaude(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	requestBody := ClaudeRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []ClaudeMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	return s.executeRequest(ctx, requestBody)
}

// dealerSystemPrompt pins the simulator to the persona and the strict JSON
// reply contract. The counter_offer field is what the price tracker picks
// up downstream.
const dealerSystemPrompt = `You are simulating a used-car dealer in a price negotiation training session.
Stay in character: professional but firm, motivated to close but protective of margin.

Rules:
1. Never agree to a price below 90%% of your asking price in the first two rounds.
2. Concede in small decrements, and justify each counter (reconditioning costs, market demand, certification).
3. Keep replies to 2-3 sentences, conversational tone.

Respond ONLY with valid JSON (no markdown, no backticks), format EXACT:
{
  "reply": "your in-character response",
  "counter_offer": 24500
}

Omit counter_offer when you are not proposing a number this round.`

// DealerReply generates the simulated dealer's next turn given the
// conversation so far. history must be in arrival order with roles already
// mapped to the Claude user/assistant convention by the caller.
func (s *ClaudeAIService) DealerReply(ctx context.Context, askingPrice float64, history []ClaudeMessage) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	system := fmt.Sprintf("%s\n\nYour asking price for this vehicle is $%.0f.", dealerSystemPrompt, askingPrice)

	requestBody := ClaudeRequest{
		Model:     s.model,
		MaxTokens: 500,
		System:    system,
		Messages:  history,
	}

	return s.executeRequest(ctx, requestBody)
}

func (s *ClaudeAIService) executeRequest(ctx context.Context, requestBody ClaudeRequest) (string, error) {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		"https://api.anthropic.com/v1/messages",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var claudeResp ClaudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}

	fmt.Printf("[Claude AI] Model: %s | Tokens: In %d / Out %d | Cost: $%.5f\n",
		claudeResp.Model,
		claudeResp.Usage.InputTokens,
		claudeResp.Usage.OutputTokens,
		s.EstimateCost(claudeResp.Usage.InputTokens, claudeResp.Usage.OutputTokens),
	)

	return claudeResp.Content[0].Text, nil
}

// StripCodeFences removes the markdown fences models sometimes add despite
// the JSON-only contract.
func StripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	return strings.Trim(content, "`")
}

// Pricing (approximate for Claude 3.5 Sonnet)
const (
	InputTokenPrice  = 0.000003 // $3 per million
	OutputTokenPrice = 0.000015 // $15 per million
)

func (s *ClaudeAIService) EstimateCost(inputTokens int, outputTokens int) float64 {
	inputCost := float64(inputTokens) * InputTokenPrice
	outputCost := float64(outputTokens) * OutputTokenPrice
	return inputCost + outputCost
}
