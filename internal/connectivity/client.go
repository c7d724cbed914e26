package connectivity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backend/internal/models"
)

// TestResult is the outcome of one provider connection test.
type TestResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ErrorDetails string   `json:"error_details,omitempty"`
	ResponseTime float64  `json:"response_time"` // milliseconds
	ModelList    []string `json:"model_list,omitempty"`
}

// Tester probes provider endpoints with a minimal real request. Only the
// administrative tooling calls it; the resolution path never does network
// I/O.
type Tester struct {
	httpClient *http.Client
}

func NewTester() *Tester {
	return &Tester{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Test issues a type-appropriate probe against the provider endpoint using
// the decrypted API key.
func (t *Tester) Test(ctx context.Context, provider *models.APIProvider, apiKey string) TestResult {
	start := time.Now()

	var result TestResult
	switch provider.ProviderType {
	case models.ProviderTypeAI:
		result = t.testChatCompletion(ctx, provider, apiKey)
	default:
		result = t.testGeneric(ctx, provider, apiKey)
	}

	result.ResponseTime = float64(time.Since(start).Microseconds()) / 1000.0
	return result
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// testChatCompletion sends a one-token chat request to an OpenAI-compatible
// endpoint.
func (t *Tester) testChatCompletion(ctx context.Context, provider *models.APIProvider, apiKey string) TestResult {
	payload := chatCompletionRequest{
		Model:     testModelName(provider),
		Messages:  []chatMessage{{Role: "user", Content: "Hello"}},
		MaxTokens: 10,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return TestResult{Success: false, Message: "Failed to build request", ErrorDetails: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.APIURL, bytes.NewReader(body))
	if err != nil {
		return TestResult{Success: false, Message: "Failed to build request", ErrorDetails: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return TestResult{Success: false, Message: "Connection failed", ErrorDetails: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode != http.StatusOK {
		details := string(raw)
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if len(details) > 200 {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, details[:200])
		} else if details != "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, details)
		}
		return TestResult{Success: false, Message: msg, ErrorDetails: details}
	}

	var parsed struct {
		Model string `json:"model"`
		Data  []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// 200 with a non-JSON body still counts as reachable
		return TestResult{Success: true, Message: "Connection successful (non-JSON response)"}
	}

	var modelList []string
	for _, m := range parsed.Data {
		modelList = append(modelList, m.ID)
	}
	if len(modelList) == 0 && parsed.Model != "" {
		modelList = []string{parsed.Model}
	}
	if len(modelList) > 10 {
		modelList = modelList[:10]
	}

	return TestResult{Success: true, Message: "Connection successful", ModelList: modelList}
}

// testGeneric performs an authorized GET against the provider URL and treats
// any non-error status as reachable.
func (t *Tester) testGeneric(ctx context.Context, provider *models.APIProvider, apiKey string) TestResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.APIURL, nil)
	if err != nil {
		return TestResult{Success: false, Message: "Failed to build request", ErrorDetails: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return TestResult{Success: false, Message: "Connection failed", ErrorDetails: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return TestResult{
			Success:      false,
			Message:      fmt.Sprintf("HTTP %d", resp.StatusCode),
			ErrorDetails: string(raw),
		}
	}

	return TestResult{Success: true, Message: "Connection successful"}
}

// testModelName guesses a model identifier the endpoint will accept, from
// the provider's display name when it embeds one in parentheses.
func testModelName(provider *models.APIProvider) string {
	name := provider.DisplayName
	if open := strings.LastIndex(name, "("); open >= 0 {
		if close := strings.Index(name[open:], ")"); close > 1 {
			return name[open+1 : open+close]
		}
	}
	return "gpt-3.5-turbo"
}
