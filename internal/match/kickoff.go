package match

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// ErrMalformedKickoff is returned when kickoff text does not follow the
// two-line "M/D(weekday)" + "H:MM" layout used by the schedule page.
var ErrMalformedKickoff = errors.New("malformed kickoff text")

const dateLayout = "2006/1/2"

// maxRollDays bounds how far an overflowing hour may push the kickoff past
// its listed date. Larger values overflow the day arithmetic in time.Date.
const maxRollDays = 1 << 20

// ParseKickoff converts the two-line date and time text of a schedule row into
// an absolute instant in the source zone.
//
// The first non-blank line holds the date (weekday annotations are dropped),
// the second holds the time. Hours of 24 and above roll forward onto the
// following days, so "10/7(土)" with "25:30" is 01:30 on October 8.
func ParseKickoff(raw string, currentYear int, source *time.Location) (time.Time, error) {
	if source == nil {
		return time.Time{}, fmt.Errorf("%w: no source zone", ErrMalformedKickoff)
	}

	parts := splitLines(width.Fold.String(raw))
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: expected 2 lines, got %d in %q", ErrMalformedKickoff, len(parts), raw)
	}

	date, err := parseDate(parts[0], currentYear, source)
	if err != nil {
		return time.Time{}, err
	}

	hours, minutes, err := parseClock(parts[1])
	if err != nil {
		return time.Time{}, err
	}

	extraDays := hours / 24
	realHour := hours % 24
	if extraDays > maxRollDays {
		return time.Time{}, fmt.Errorf("%w: hours out of range in %q", ErrMalformedKickoff, parts[1])
	}

	kickoff := time.Date(date.Year(), date.Month(), date.Day()+extraDays, realHour, minutes, 0, 0, source)
	if kickoff.Before(date) {
		return time.Time{}, fmt.Errorf("%w: kickoff before listed date in %q", ErrMalformedKickoff, raw)
	}
	return kickoff, nil
}

// splitLines splits on line breaks and drops blank segments
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return parts
}

// parseDate keeps only digits and slashes and reads the result as month/day
// of currentYear
func parseDate(text string, currentYear int, source *time.Location) (time.Time, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '/' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return time.Time{}, fmt.Errorf("%w: no date in %q", ErrMalformedKickoff, text)
	}

	full := fmt.Sprintf("%d/%s", currentYear, b.String())
	date, err := time.ParseInLocation(dateLayout, full, source)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q: %v", ErrMalformedKickoff, full, err)
	}
	return date, nil
}

// parseClock reads "H:MM" where H may exceed 23
func parseClock(text string) (int, int, error) {
	tokens := strings.Split(text, ":")
	if len(tokens) != 2 {
		return 0, 0, fmt.Errorf("%w: invalid time %q", ErrMalformedKickoff, text)
	}

	hours, err := parseNonNegative(tokens[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid hours in %q", ErrMalformedKickoff, text)
	}
	minutes, err := parseNonNegative(tokens[1])
	if err != nil || minutes > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minutes in %q", ErrMalformedKickoff, text)
	}
	return hours, minutes, nil
}

func parseNonNegative(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s)
}
