// Package filter narrows a schedule to the matches a user cares about.
//
// Criteria:
//   - Teams (substring match on home or away team, source or display name, case-insensitive)
//   - Date range (from/to, inclusive, compared in the display zone)
//   - Weekends only (Saturday/Sunday in the display zone)
//
// Matches with an unknown kickoff pass the date criteria, since nothing can be
// said about them.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Teams = []string{"阿仙奴"}
//	f.WeekendsOnly = true
//
//	filtered := f.Apply(matches, names, hongKong)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

// Filter represents match filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Team filtering (case-insensitive substring match)
	Teams []string `json:"teams,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all matches until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Teams: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Teams) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if a match passes all active criteria. Kickoff-based
// criteria are evaluated in loc.
func (f *Filter) Matches(m match.Match, names localize.Table, loc *time.Location) bool {
	if f.IsEmpty() {
		return true
	}

	if m.HasKickoff() {
		kickoff := m.Kickoff
		if loc != nil {
			kickoff = kickoff.In(loc)
		}

		if f.DateFrom != nil && kickoff.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && kickoff.After(*f.DateTo) {
			return false
		}

		if f.WeekendsOnly {
			weekday := kickoff.Weekday()
			if weekday != time.Saturday && weekday != time.Sunday {
				return false
			}
		}
	}

	if len(f.Teams) > 0 {
		candidates := []string{
			m.HomeTeam, m.AwayTeam,
			names.Name(m.HomeTeam), names.Name(m.AwayTeam),
		}
		if !containsAny(candidates, f.Teams) {
			return false
		}
	}

	return true
}

// Apply returns only the matches that pass the filter, preserving order.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(matches []match.Match, names localize.Table, loc *time.Location) []match.Match {
	if f.IsEmpty() {
		return matches
	}

	filtered := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if f.Matches(m, names, loc) {
			filtered = append(filtered, m)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Oct 1, 2023 | To: Oct 15, 2023 | Teams: Arsenal | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Teams) > 0 {
		parts = append(parts, fmt.Sprintf("Teams: %s", strings.Join(f.Teams, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

func containsAny(values, needles []string) bool {
	for _, v := range values {
		lower := strings.ToLower(v)
		for _, n := range needles {
			if n != "" && strings.Contains(lower, strings.ToLower(n)) {
				return true
			}
		}
	}
	return false
}
