// Package llm provides Gemini integration for the assistant.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
)

// Client handles generative-language API calls
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config for the LLM client
type Config struct {
	APIKey  string // Gemini API key
	BaseURL string // API base URL
	Model   string // Model to use
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com",
		Model:   "gemini-2.5-flash-lite",
		Timeout: 60 * time.Second,
	}
}

// NewClient creates a new LLM client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// Request is a generation request
type Request struct {
	Model           string
	System          string
	Prompt          string
	History         []Message // prior turns, oldest first
	Temperature     float64
	MaxOutputTokens int
	JSONOutput      bool // ask for application/json responses
}

// wire types for the generateContent endpoint

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type wireRequest struct {
	Contents          []wireContent         `json:"contents"`
	SystemInstruction *wireContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *wireGenerationConfig `json:"generationConfig,omitempty"`
}

type wireResponse struct {
	Candidates []struct {
		Content struct {
			Parts []wirePart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends a generation request and returns the model text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	wr := wireRequest{}
	for _, m := range req.History {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		wr.Contents = append(wr.Contents, wireContent{Role: role, Parts: []wirePart{{Text: m.Content}}})
	}
	wr.Contents = append(wr.Contents, wireContent{Role: "user", Parts: []wirePart{{Text: req.Prompt}}})

	if req.System != "" {
		wr.SystemInstruction = &wireContent{Parts: []wirePart{{Text: req.System}}}
	}

	genCfg := &wireGenerationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.JSONOutput {
		genCfg.ResponseMIMEType = "application/json"
	}
	wr.GenerationConfig = genCfg

	body, err := json.Marshal(wr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var llmResp wireResponse
	if err := json.Unmarshal(respBody, &llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if llmResp.Error != nil {
		return "", fmt.Errorf("API error %d: %s", llmResp.Error.Code, llmResp.Error.Message)
	}
	if len(llmResp.Candidates) == 0 || len(llmResp.Candidates[0].Content.Parts) == 0 {
		return "", core.ErrEmptyReply
	}

	var text string
	for _, p := range llmResp.Candidates[0].Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", core.ErrEmptyReply
	}
	return text, nil
}

// IsConfigured checks if an API key is set
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
