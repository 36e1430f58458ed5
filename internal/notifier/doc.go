// Package notifier delivers imminent-match alerts.
//
// A Notification carries the next match, the matches inside the alert window
// and the full ordered schedule. Implementations post it to a Discord webhook,
// a Telegram chat or Twitter, or print it in dry-run mode.
package notifier
