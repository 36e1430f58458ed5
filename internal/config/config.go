// Package config loads kickoff-watch settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	DefaultScheduleURL  = "https://soccer.yahoo.co.jp/ws/category/eng/schedule/"
	DefaultStandingsURL = "https://soccer.yahoo.co.jp/ws/category/eng/standings/"
	DefaultSourceZone   = "Asia/Tokyo"
	DefaultDisplayZone  = "Asia/Hong_Kong"
)

type Config struct {
	Scrape   ScrapeConfig
	Zones    ZoneConfig
	Notify   NotifyConfig
	Discord  DiscordConfig
	Telegram TelegramConfig
	Twitter  TwitterConfig
	Storage  StorageConfig
	Schedule ScheduleConfig
	Web      WebConfig
	Log      LogConfig
}

type ScrapeConfig struct {
	ScheduleURL  string
	StandingsURL string
}

type ZoneConfig struct {
	Source  string
	Display string
}

type NotifyConfig struct {
	BufferMinutes string
	TeamNamesFile string
}

type DiscordConfig struct {
	WebhookURL string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

type TwitterConfig struct {
	Enabled      bool
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

type StorageConfig struct {
	DataDir string
}

type ScheduleConfig struct {
	PollInterval string
}

type WebConfig struct {
	ListenAddr string
}

type LogConfig struct {
	Level string
	File  string
}

// LoadFromEnv builds a Config from environment variables, applying defaults
func LoadFromEnv() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			ScheduleURL:  getEnv("SCHEDULE_URL", DefaultScheduleURL),
			StandingsURL: getEnv("STANDINGS_URL", DefaultStandingsURL),
		},
		Zones: ZoneConfig{
			Source:  getEnv("SOURCE_TZ", DefaultSourceZone),
			Display: getEnv("DISPLAY_TZ", DefaultDisplayZone),
		},
		Notify: NotifyConfig{
			BufferMinutes: getEnv("BUFFER_MINUTES", "30"),
			TeamNamesFile: os.Getenv("TEAM_NAMES_FILE"),
		},
		Discord: DiscordConfig{
			WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Twitter: TwitterConfig{
			Enabled:      getEnvBool("TWITTER_ENABLED", false),
			APIKey:       os.Getenv("TWITTER_API_KEY"),
			APISecret:    os.Getenv("TWITTER_API_SECRET"),
			AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
			AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "~/.local/share/kickoff-watch"),
		},
		Schedule: ScheduleConfig{
			PollInterval: getEnv("POLL_INTERVAL", "5m"),
		},
		Web: WebConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}

// Validate checks every setting that would otherwise fail later in a run.
// It is meant to be called before any scraping starts.
func (c *Config) Validate() error {
	if err := validateURL("schedule_url", c.Scrape.ScheduleURL); err != nil {
		return err
	}

	if err := validateURL("standings_url", c.Scrape.StandingsURL); err != nil {
		return err
	}

	if err := validateZone("source_tz", c.Zones.Source); err != nil {
		return err
	}

	if err := validateZone("display_tz", c.Zones.Display); err != nil {
		return err
	}

	minutes, err := strconv.Atoi(c.Notify.BufferMinutes)
	if err != nil {
		return fmt.Errorf("invalid buffer_minutes %q: %w", c.Notify.BufferMinutes, err)
	}
	if minutes <= 0 {
		return fmt.Errorf("buffer_minutes must be positive, got %d", minutes)
	}

	if c.Discord.WebhookURL != "" {
		if err := validateURL("discord_webhook_url", c.Discord.WebhookURL); err != nil {
			return err
		}
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram_bot_token and telegram_chat_id must be set together")
	}

	if c.Twitter.Enabled {
		if c.Twitter.APIKey == "" || c.Twitter.APISecret == "" || c.Twitter.AccessToken == "" || c.Twitter.AccessSecret == "" {
			return fmt.Errorf("twitter credentials are required when twitter is enabled")
		}
	}

	d, err := time.ParseDuration(c.Schedule.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", d)
	}

	switch c.Log.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log_level %q", c.Log.Level)
	}

	return nil
}

// SourceLocation returns the zone the schedule page is written in
func (c *Config) SourceLocation() *time.Location {
	return mustLocation(c.Zones.Source)
}

// DisplayLocation returns the zone used for messages and listings
func (c *Config) DisplayLocation() *time.Location {
	return mustLocation(c.Zones.Display)
}

// GetBufferMinutes returns the imminent-match window. Call Validate first.
func (c *Config) GetBufferMinutes() int {
	n, _ := strconv.Atoi(c.Notify.BufferMinutes)
	return n
}

// GetPollInterval returns the watch interval. Call Validate first.
func (c *Config) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Schedule.PollInterval)
	return d
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validateZone rejects empty and "Local" names, which would make results
// depend on the machine running the watcher
func validateZone(key, name string) error {
	if name == "" || name == "Local" {
		return fmt.Errorf("invalid %s %q: an IANA zone name is required", key, name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, name, err)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q", key, raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
