// Package telegram provides Telegram Bot API integration for sending match notifications.
//
// The package sends HTML-formatted messages via the Bot API using plain HTTP
// requests from the standard library.
//
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
