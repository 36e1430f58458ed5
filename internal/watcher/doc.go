// Package watcher runs the scrape and notify cycle.
//
// Each run fetches the schedule, orders it, selects the matches kicking off
// within the alert window and sends one notification per configured channel.
// Matches already announced are recorded in a ledger so that repeated polls
// inside the same window stay quiet. The ledger also keeps the previous
// schedule, and each run logs fixtures that were added or rescheduled since.
package watcher
