// Package cli implements the command-line interface for kickoff-watch.
//
// The cli package provides the Cobra-based CLI: listing the schedule and
// standings (text or JSON), sending a one-off imminent-match alert, polling
// continuously, and serving the HTTP API. Configuration comes from the
// environment with flag overrides.
package cli
