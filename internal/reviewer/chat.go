package reviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/reviewdesk/internal/config"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

// ErrMissingAPIKey is returned by NewChat when no key is configured.
var ErrMissingAPIKey = errors.New("chat reviewer: api key not set")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat reviews code with an OpenAI-compatible chat completions endpoint.
type Chat struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// ChatOption configures a Chat reviewer.
type ChatOption func(*Chat)

// WithChatHTTPClient replaces the HTTP client.
func WithChatHTTPClient(c *http.Client) ChatOption {
	return func(r *Chat) { r.httpClient = c }
}

// WithChatLogger sets the logger.
func WithChatLogger(l zerolog.Logger) ChatOption {
	return func(r *Chat) { r.log = l }
}

// NewChat builds a Chat reviewer from config. The API key is read from the
// configured environment variable.
func NewChat(cfg config.ChatConfig, opts ...ChatOption) (*Chat, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w (expected in $%s)", ErrMissingAPIKey, cfg.APIKeyEnv)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	r := &Chat{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     key,
		httpClient: &http.Client{Timeout: timeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Review implements Reviewer.
func (r *Chat) Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, chatStatusError(resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("chat response has no choices")
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.New("chat response is empty")
	}

	r.log.Debug().
		Str("model", chatResp.Model).
		Str("language", string(req.Language)).
		Dur("elapsed", time.Since(start)).
		Msg("chat review completed")

	return FromText(text), nil
}

func chatStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var ce chatError
	if err := json.Unmarshal(body, &ce); err == nil && ce.Error.Message != "" {
		return fmt.Errorf("chat request failed with status %d: %s", resp.StatusCode, ce.Error.Message)
	}
	return fmt.Errorf("chat request failed with status %d", resp.StatusCode)
}
