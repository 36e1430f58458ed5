package match

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Match represents one fixture row from the schedule page
type Match struct {
	ID       string
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time // zero when the source text could not be parsed
	Status   string    // free-text status or "H-A" score, empty if neither
}

// Row holds the raw text fields extracted from one schedule table row
type Row struct {
	DateTime    string
	HomeTeam    string
	AwayTeam    string
	StatusText  string
	ScoreDetail string
}

// GenerateID creates a deterministic ID for a fixture.
// The ID only depends on the teams and the kickoff instant so repeated
// scrapes of the same fixture produce the same value.
func GenerateID(homeTeam, awayTeam string, kickoff time.Time) string {
	when := "tbd"
	if !kickoff.IsZero() {
		when = kickoff.UTC().Format(time.RFC3339)
	}
	h := sha1.New()
	h.Write([]byte(homeTeam + "|" + awayTeam + "|" + when))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewMatch creates a Match with its ID populated
func NewMatch(homeTeam, awayTeam string, kickoff time.Time, status string) Match {
	homeTeam = strings.TrimSpace(homeTeam)
	awayTeam = strings.TrimSpace(awayTeam)
	return Match{
		ID:       GenerateID(homeTeam, awayTeam, kickoff),
		HomeTeam: homeTeam,
		AwayTeam: awayTeam,
		Kickoff:  kickoff,
		Status:   strings.TrimSpace(status),
	}
}

// FromRow builds a Match out of a raw table row.
// A kickoff that cannot be parsed is not fatal: the Match is still returned
// with an unknown kickoff and the parse error is handed back for logging.
func FromRow(row Row, currentYear int, source *time.Location) (Match, error) {
	kickoff, err := ParseKickoff(row.DateTime, currentYear, source)
	if err != nil {
		kickoff = time.Time{}
	}

	status := strings.TrimSpace(row.StatusText)
	if status == "" {
		if score, ok := ParseScore(row.ScoreDetail); ok {
			status = score
		}
	}

	return NewMatch(row.HomeTeam, row.AwayTeam, kickoff, status), err
}

// HasKickoff reports whether the kickoff time is known
func (m Match) HasKickoff() bool {
	return !m.Kickoff.IsZero()
}

// In returns a copy of the match with the kickoff expressed in loc.
// The instant itself is unchanged.
func (m Match) In(loc *time.Location) Match {
	if m.HasKickoff() && loc != nil {
		m.Kickoff = m.Kickoff.In(loc)
	}
	return m
}

// matchJSON is the wire form of a Match
type matchJSON struct {
	ID       string  `json:"id"`
	HomeTeam string  `json:"homeTeam"`
	AwayTeam string  `json:"awayTeam"`
	Kickoff  *string `json:"kickoff"`
	Status   *string `json:"status"`
}

// MarshalJSON encodes an unknown kickoff and an empty status as null
func (m Match) MarshalJSON() ([]byte, error) {
	out := matchJSON{
		ID:       m.ID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
	}
	if m.HasKickoff() {
		kickoff := m.Kickoff.Format(time.RFC3339)
		out.Kickoff = &kickoff
	}
	if m.Status != "" {
		status := m.Status
		out.Status = &status
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the form produced by MarshalJSON
func (m *Match) UnmarshalJSON(data []byte) error {
	var in matchJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*m = Match{
		ID:       in.ID,
		HomeTeam: in.HomeTeam,
		AwayTeam: in.AwayTeam,
	}
	if in.Kickoff != nil {
		kickoff, err := time.Parse(time.RFC3339, *in.Kickoff)
		if err != nil {
			return fmt.Errorf("parsing kickoff: %w", err)
		}
		m.Kickoff = kickoff
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if m.ID == "" {
		m.ID = GenerateID(m.HomeTeam, m.AwayTeam, m.Kickoff)
	}
	return nil
}
