// Package storage persists watcher state in a bbolt database.
//
// It records which matches have already been announced, so consecutive polls
// inside the same alert window do not notify twice, and keeps the most recent
// schedule snapshot for the HTTP server.
//
// The database file lives in a data directory (default:
// ~/.local/share/kickoff-watch/kickoff-watch.db).
package storage
