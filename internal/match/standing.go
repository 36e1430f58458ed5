package match

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// standingColumns is the number of cells in a standings table row:
// rank, movement, team, points, played, won, drawn, lost, goals for,
// goals against, goal difference
const standingColumns = 11

// Standing represents one row of the league table
type Standing struct {
	Rank           int    `json:"standing"`
	TeamName       string `json:"teamName"`
	Points         int    `json:"victoryPoint"`
	Played         int    `json:"matchCount"`
	Won            int    `json:"wonCount"`
	Drawn          int    `json:"drawnCount"`
	Lost           int    `json:"lostCount"`
	GoalsFor       int    `json:"goalPoint"`
	GoalsAgainst   int    `json:"lostPoint"`
	GoalDifference int    `json:"pointDifference"`
}

// ParseStanding builds a Standing from the text of a standings row's cells.
// The movement column (index 1) is ignored.
func ParseStanding(cells []string) (Standing, error) {
	if len(cells) < standingColumns {
		return Standing{}, fmt.Errorf("expected %d cells, got %d", standingColumns, len(cells))
	}

	nums := make([]int, standingColumns)
	for i, cell := range cells[:standingColumns] {
		if i == 1 || i == 2 {
			continue
		}
		n, err := strconv.Atoi(normalizeNumber(cell))
		if err != nil {
			return Standing{}, fmt.Errorf("column %d: invalid number %q", i, strings.TrimSpace(cell))
		}
		nums[i] = n
	}

	team := strings.TrimSpace(cells[2])
	if team == "" {
		return Standing{}, fmt.Errorf("column 2: empty team name")
	}

	return Standing{
		Rank:           nums[0],
		TeamName:       team,
		Points:         nums[3],
		Played:         nums[4],
		Won:            nums[5],
		Drawn:          nums[6],
		Lost:           nums[7],
		GoalsFor:       nums[8],
		GoalsAgainst:   nums[9],
		GoalDifference: nums[10],
	}, nil
}

// normalizeNumber trims the cell and drops a leading "+" used on positive
// goal differences
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(s, "+")
}

// SortStandings returns the table ordered by rank, then team name
func SortStandings(standings []Standing) []Standing {
	sorted := make([]Standing, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].TeamName < sorted[j].TeamName
	})
	return sorted
}
