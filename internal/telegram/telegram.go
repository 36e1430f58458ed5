package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org/bot"
	timeout        = 10 * time.Second

	// MaxMessageLength is the Bot API limit for message text
	MaxMessageLength = 4096

	// maxErrorBody caps how much of a failed response ends up in an error
	maxErrorBody = 1024
)

// ErrInvalidMessage is returned for text the Bot API would reject outright
var ErrInvalidMessage = errors.New("invalid message")

// Client posts messages to one chat through the Bot API
type Client struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

// APIError is a failed Bot API call
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("telegram API error (status %d): %s", e.StatusCode, e.Description)
}

// Retryable reports whether the same request may succeed later
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// NewClient creates a client for botToken posting to chatID
func NewClient(botToken, chatID string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &Client{
		baseURL:    DefaultBaseURL,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SendMessage sends an HTML text message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("%w: message text is required", ErrInvalidMessage)
	}
	if n := len([]rune(text)); n > MaxMessageLength {
		return fmt.Errorf("%w: message text exceeds %d characters (got %d)", ErrInvalidMessage, MaxMessageLength, n)
	}

	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
}

func (c *Client) post(ctx context.Context, method string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	var result apiResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.ErrorCode = result.ErrorCode
			apiErr.Description = result.Description
			apiErr.RetryAfter = time.Duration(result.Parameters.RetryAfter) * time.Second
		}
		if apiErr.Description == "" {
			apiErr.Description = truncateBody(raw)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parsing %s response: %w", method, decodeErr)
	}
	if !result.OK {
		return &APIError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
		}
	}
	return nil
}

func truncateBody(raw []byte) string {
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return string(bytes.TrimSpace(raw))
}
