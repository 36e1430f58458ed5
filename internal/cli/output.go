package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/pfrederiksen/kickoff-watch/internal/watcher"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const kickoffLayout = "2006/1/2 15:04"

// ScheduleResult contains the schedule to be output
type ScheduleResult struct {
	CheckedAt time.Time      `json:"checked_at"`
	Timezone  string         `json:"timezone"`
	Count     int            `json:"count"`
	Matches   []match.Match  `json:"matches"`
	Upcoming  []match.Match  `json:"upcoming"`
	Names     localize.Table `json:"-"`

	zone *time.Location
}

// WriteSchedule writes the schedule in the specified format
func WriteSchedule(w io.Writer, result *ScheduleResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeScheduleText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStandings writes the league table in the specified format
func WriteStandings(w io.Writer, standings []match.Standing, names localize.Table, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if standings == nil {
			standings = []match.Standing{}
		}
		return writeJSON(w, standings)
	case FormatText:
		return writeStandingsText(w, standings, names)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteReport writes the result of a notify run in the specified format
func WriteReport(w io.Writer, report *watcher.Report, names localize.Table, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		fmt.Fprintf(w, "Run %s: %d matches (%d without kickoff), %d upcoming, %d notified\n",
			report.RunID, report.Total, report.Unknown, report.Upcoming, report.Notified)
		for _, m := range report.Alerted {
			fmt.Fprintf(w, "  NOTIFIED: %s vs %s\n", names.Name(m.HomeTeam), names.Name(m.AwayTeam))
		}
		for _, c := range report.Changes {
			fmt.Fprintf(w, "  CHANGED (%s): %s vs %s %s\n", c.Type,
				names.Name(c.HomeTeam), names.Name(c.AwayTeam), changeValues(c))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func changeValues(c match.Change) string {
	orTBD := func(v string) string {
		if v == "" {
			return "TBD"
		}
		return v
	}
	switch c.Type {
	case match.ChangeNew:
		return orTBD(c.NewValue)
	case match.ChangeKickoff:
		return orTBD(c.OldValue) + " -> " + orTBD(c.NewValue)
	default:
		return fmt.Sprintf("%q -> %q", c.OldValue, c.NewValue)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeScheduleText outputs the schedule as human-readable text
func writeScheduleText(w io.Writer, result *ScheduleResult, verbose bool) error {
	if result.Count == 0 {
		fmt.Fprintln(w, "No matches found.")
		return nil
	}

	upcoming := make(map[string]bool, len(result.Upcoming))
	for _, m := range result.Upcoming {
		upcoming[m.ID] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range result.Matches {
		prefix := " "
		if upcoming[m.ID] {
			prefix = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s vs %s\t%s\n",
			prefix,
			formatKickoff(m, result.zone),
			result.Names.Name(m.HomeTeam),
			result.Names.Name(m.AwayTeam),
			m.Status)
		if verbose {
			fmt.Fprintf(tw, "    ID: %s\t%s vs %s\t\n", m.ID, m.HomeTeam, m.AwayTeam)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d matches (%s)", result.Count, result.Timezone)
	if len(result.Upcoming) > 0 {
		fmt.Fprintf(w, ", %d kicking off soon (*)", len(result.Upcoming))
	}
	fmt.Fprintln(w)
	return nil
}

// writeStandingsText outputs the league table as aligned columns
func writeStandingsText(w io.Writer, standings []match.Standing, names localize.Table) error {
	if len(standings) == 0 {
		fmt.Fprintln(w, "No standings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tTeam\tP\tW\tD\tL\tGF\tGA\tGD\tPts\t")
	for _, s := range standings {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%+d\t%d\t\n",
			s.Rank, names.Name(s.TeamName), s.Played, s.Won, s.Drawn, s.Lost,
			s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points)
	}
	return tw.Flush()
}

func formatKickoff(m match.Match, loc *time.Location) string {
	if !m.HasKickoff() {
		return "TBD"
	}
	if loc == nil {
		loc = m.Kickoff.Location()
	}
	return m.Kickoff.In(loc).Format(kickoffLayout)
}
