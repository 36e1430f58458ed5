package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/telegram"
)

const (
	telegramAttempts = 3
	telegramDelay    = 2 * time.Second
)

type messageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramNotifier sends the alert to a Telegram chat
type TelegramNotifier struct {
	client   messageSender
	attempts uint
	delay    time.Duration
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	client, err := telegram.NewClient(botToken, chatID)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	return &TelegramNotifier{
		client:   client,
		attempts: telegramAttempts,
		delay:    telegramDelay,
	}, nil
}

// Name returns "telegram"
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// Notify sends a single HTML message with the next match and the schedule.
// Rate limits, server errors and network failures are retried.
func (t *TelegramNotifier) Notify(ctx context.Context, n *Notification) error {
	text := telegram.FormatNextMatch(n.Next, n.All, n.Names, n.Zone)

	attempts := t.attempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error { return t.send(ctx, text) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(t.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("Retrying Telegram message", logger.Fields{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	err := t.client.SendMessage(ctx, text)
	if err == nil {
		return nil
	}

	var apiErr *telegram.APIError
	switch {
	case errors.As(err, &apiErr) && !apiErr.Retryable():
		return retry.Unrecoverable(err)
	case errors.Is(err, telegram.ErrInvalidMessage):
		return retry.Unrecoverable(err)
	}
	return err
}
