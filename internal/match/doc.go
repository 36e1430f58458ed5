// Package match provides the fixture and standings types scraped from the
// league schedule pages, along with the parsing and ordering rules applied to them.
//
// Kickoff text on the source site uses a broadcaster convention where hours
// past midnight are written as 24:00 and above under the previous day's date.
// ParseKickoff turns that text into an absolute instant in the source zone,
// Sort gives every schedule a deterministic order, and FilterUpcoming selects
// fixtures that are about to start. Nothing in this package reads the clock.
package match
