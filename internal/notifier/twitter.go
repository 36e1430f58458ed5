package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/kickoff-watch/internal/config"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

const maxTweetLength = 280

// TwitterNotifier posts one tweet per imminent match
type TwitterNotifier struct {
	client *twitter.Client
	delay  time.Duration
}

// NewTwitterNotifier creates a Twitter notifier from OAuth1 credentials
func NewTwitterNotifier(cfg config.TwitterConfig) (*TwitterNotifier, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	httpClient := oauthConfig.Client(oauth1.NoContext, token)

	return newTwitterNotifier(httpClient, 2*time.Second), nil
}

func newTwitterNotifier(httpClient *http.Client, delay time.Duration) *TwitterNotifier {
	return &TwitterNotifier{
		client: twitter.NewClient(httpClient),
		delay:  delay,
	}
}

// Name returns "twitter"
func (n *TwitterNotifier) Name() string {
	return "twitter"
}

// Notify posts tweets for each imminent match
func (n *TwitterNotifier) Notify(ctx context.Context, note *Notification) error {
	upcoming := note.Upcoming
	if len(upcoming) == 0 {
		upcoming = []match.Match{note.Next}
	}

	for i, m := range upcoming {
		tweet := formatTweet(note, m)

		if _, _, err := n.client.Statuses.Update(tweet, nil); err != nil {
			return fmt.Errorf("failed to post tweet for match %s: %w", m.ID, err)
		}

		// Rate limiting: wait between tweets
		if i < len(upcoming)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.delay):
			}
		}
	}

	return nil
}

// formatTweet formats a match as a tweet
func formatTweet(note *Notification, m match.Match) string {
	tweet := "⚽ Kickoff soon!\n\n"
	tweet += note.Title(m) + "\n"
	tweet += fmt.Sprintf("🕒 %s\n", note.DisplayTime(m))
	tweet += "\n#PremierLeague"

	// Twitter limit is 280 characters
	if runes := []rune(tweet); len(runes) > maxTweetLength {
		tweet = string(runes[:maxTweetLength-3]) + "..."
	}

	return tweet
}
