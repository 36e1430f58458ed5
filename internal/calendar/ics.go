// Package calendar renders the match schedule as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

// MatchDuration is the length given to every match event
const MatchDuration = 2 * time.Hour

// GenerateICS generates an iCalendar (.ics) feed with one event per match.
// Matches without a known kickoff are left out.
func GenerateICS(matches []match.Match, names localize.Table, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//kickoff-watch//kickoff-watch//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("X-WR-CALNAME:Premier League\r\n")

	stamp := formatICSTime(now)
	for _, m := range matches {
		if !m.HasKickoff() {
			continue
		}
		writeEvent(&ics, m, names, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, m match.Match, names localize.Table, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - unique identifier for the match
	ics.WriteString(fmt.Sprintf("UID:%s@kickoff-watch\r\n", m.ID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(m.Kickoff)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(m.Kickoff.Add(MatchDuration))))

	summary := fmt.Sprintf("%s vs %s", names.Name(m.HomeTeam), names.Name(m.AwayTeam))
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	description := fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
	if m.Status != "" {
		description = fmt.Sprintf("%s\n%s", description, m.Status)
	}
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")

	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
