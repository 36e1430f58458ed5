package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

const timeLayout = "1/2 15:04"

// moreReserve leaves room for the "and N more" trailer
const moreReserve = 32

// FormatNextMatch formats the kickoff alert for the next match followed by the
// full ordered schedule. Schedule lines that would push the message past
// MaxMessageLength are dropped whole so the HTML markup stays intact.
func FormatNextMatch(next match.Match, all []match.Match, names localize.Table, loc *time.Location) string {
	var msg strings.Builder

	msg.WriteString("⚽ <b>Kickoff soon!</b>\n\n")
	msg.WriteString(fmt.Sprintf("<b>%s</b> vs <b>%s</b>\n",
		html.EscapeString(names.Name(next.HomeTeam)),
		html.EscapeString(names.Name(next.AwayTeam))))
	msg.WriteString(fmt.Sprintf("🕒 %s\n", formatKickoff(next, loc)))

	if len(all) == 0 {
		return msg.String()
	}

	msg.WriteString("\n📅 <b>Upcoming matches</b>\n")
	used := utf8.RuneCountInString(msg.String())
	lines := scheduleLines(all, names, loc)

	total := used
	for _, line := range lines {
		total += utf8.RuneCountInString(line)
	}
	if total <= MaxMessageLength {
		for _, line := range lines {
			msg.WriteString(line)
		}
		return msg.String()
	}

	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if used+n > MaxMessageLength-moreReserve {
			msg.WriteString(fmt.Sprintf("  … and %d more\n", len(lines)-i))
			break
		}
		msg.WriteString(line)
		used += n
	}
	return msg.String()
}

// FormatSchedule formats one line per match
func FormatSchedule(matches []match.Match, names localize.Table, loc *time.Location) string {
	return strings.Join(scheduleLines(matches, names, loc), "")
}

func scheduleLines(matches []match.Match, names localize.Table, loc *time.Location) []string {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		line := fmt.Sprintf("  • %s  %s vs %s",
			formatKickoff(m, loc),
			html.EscapeString(names.Name(m.HomeTeam)),
			html.EscapeString(names.Name(m.AwayTeam)))
		if m.Status != "" {
			line += fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(m.Status))
		}
		lines = append(lines, line+"\n")
	}
	return lines
}

func formatKickoff(m match.Match, loc *time.Location) string {
	if !m.HasKickoff() {
		return "TBD"
	}
	if loc == nil {
		loc = m.Kickoff.Location()
	}
	return m.Kickoff.In(loc).Format(timeLayout)
}
