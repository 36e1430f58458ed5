package match

import "time"

// ChangeType describes how a fixture differs between two schedule snapshots
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeKickoff ChangeType = "kickoff"
	ChangeStatus  ChangeType = "status"
)

// Change represents a change detected in a fixture
type Change struct {
	MatchID  string     `json:"matchId"`
	HomeTeam string     `json:"homeTeam"`
	AwayTeam string     `json:"awayTeam"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"oldValue"`
	NewValue string     `json:"newValue"`
}

// StableKey identifies a fixture independent of its kickoff. A pairing is
// played once at each ground per season, so home and away suffice.
func StableKey(m Match) string {
	return m.HomeTeam + "|" + m.AwayTeam
}

// Diff compares the current schedule against a previous snapshot and returns
// the changes in current order. An empty previous schedule yields no changes.
func Diff(previous, current []Match) []Change {
	if len(previous) == 0 {
		return nil
	}

	index := make(map[string]Match, len(previous))
	for _, m := range previous {
		index[StableKey(m)] = m
	}

	var changes []Change
	for _, cur := range current {
		prev, exists := index[StableKey(cur)]
		if !exists {
			changes = append(changes, newChange(cur, ChangeNew, "", kickoffValue(cur)))
			continue
		}

		if prev.HasKickoff() != cur.HasKickoff() || (cur.HasKickoff() && !prev.Kickoff.Equal(cur.Kickoff)) {
			changes = append(changes, newChange(cur, ChangeKickoff, kickoffValue(prev), kickoffValue(cur)))
		}

		if prev.Status != cur.Status {
			changes = append(changes, newChange(cur, ChangeStatus, prev.Status, cur.Status))
		}
	}

	return changes
}

func newChange(m Match, t ChangeType, oldValue, newValue string) Change {
	return Change{
		MatchID:  m.ID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Type:     t,
		OldValue: oldValue,
		NewValue: newValue,
	}
}

func kickoffValue(m Match) string {
	if !m.HasKickoff() {
		return ""
	}
	return m.Kickoff.UTC().Format(time.RFC3339)
}
