package match

import "sort"

// Sort returns the matches ordered by kickoff. The input slice is not modified.
//
// Matches with the same kickoff are ordered by home team, then away team.
// Matches with an unknown kickoff come after every scheduled match, ordered
// the same way among themselves.
func Sort(matches []Match) []Match {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)

	sort.SliceStable(sorted, func(i, j int) bool {
		return compareByKickoff(sorted[i], sorted[j])
	})
	return sorted
}

// compareByKickoff returns true if match i should come before match j
func compareByKickoff(i, j Match) bool {
	// If both kickoffs are known, compare the instants
	if i.HasKickoff() && j.HasKickoff() {
		if !i.Kickoff.Equal(j.Kickoff) {
			return i.Kickoff.Before(j.Kickoff)
		}
		return compareByTeams(i, j)
	}

	// If only one kickoff is known, put the known one first
	if i.HasKickoff() {
		return true
	}
	if j.HasKickoff() {
		return false
	}

	return compareByTeams(i, j)
}

func compareByTeams(i, j Match) bool {
	if i.HomeTeam != j.HomeTeam {
		return i.HomeTeam < j.HomeTeam
	}
	return i.AwayTeam < j.AwayTeam
}

// Dedup drops repeated fixtures, keeping the first occurrence of each ID
func Dedup(matches []Match) []Match {
	seen := make(map[string]bool, len(matches))
	unique := make([]Match, 0, len(matches))
	for _, m := range matches {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		unique = append(unique, m)
	}
	return unique
}
