package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/pfrederiksen/kickoff-watch/internal/logger"
)

const (
	embedTitle = "Upcoming matches"
	embedColor = 0x0099ff

	// maxEmbedFields is Discord's per-embed field limit
	maxEmbedFields = 25

	discordAttempts = 3
	discordDelay    = 2 * time.Second
)

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title  string  `json:"title"`
	Color  int     `json:"color"`
	Fields []Field `json:"fields"`
}

// DiscordNotifier posts to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// NewDiscordNotifier creates a notifier for the given webhook URL
func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   discordAttempts,
		delay:      discordDelay,
	}, nil
}

// Name returns "discord"
func (d *DiscordNotifier) Name() string {
	return "discord"
}

// Notify posts the headline and one embed listing the schedule.
// Server errors and rate limits are retried; other failures are returned at once.
func (d *DiscordNotifier) Notify(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(buildDiscordPayload(n))
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	return retry.Do(
		func() error { return d.post(ctx, body) },
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("Retrying Discord webhook", logger.Fields{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
		}),
	)
}

func (d *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = fmt.Errorf("discord webhook error (status %d): %s", resp.StatusCode, string(msg))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return err
	}
	return retry.Unrecoverable(err)
}

func buildDiscordPayload(n *Notification) discordPayload {
	fields := n.Fields()
	if len(fields) > maxEmbedFields {
		fields = fields[:maxEmbedFields]
	}
	return discordPayload{
		Content: n.Message(),
		Embeds: []discordEmbed{{
			Title:  embedTitle,
			Color:  embedColor,
			Fields: fields,
		}},
	}
}
