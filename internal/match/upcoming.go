package match

import (
	"math"
	"time"
)

// FilterUpcoming keeps matches starting within bufferMinutes after now.
//
// Both instants are converted into zone before taking the difference, which
// is rounded to the nearest minute. A match is kept when the rounded
// difference is greater than zero and at most bufferMinutes. Matches with an
// unknown kickoff are never kept.
func FilterUpcoming(matches []Match, bufferMinutes int, now time.Time, zone *time.Location) []Match {
	upcoming := make([]Match, 0)
	for _, m := range matches {
		if !m.HasKickoff() {
			continue
		}
		diff := MinutesUntil(m.Kickoff, now, zone)
		if diff > 0 && diff <= bufferMinutes {
			upcoming = append(upcoming, m)
		}
	}
	return upcoming
}

// MinutesUntil returns the whole minutes from now until t, both taken in zone
func MinutesUntil(t, now time.Time, zone *time.Location) int {
	if zone == nil {
		zone = time.UTC
	}
	d := t.In(zone).Sub(now.In(zone))
	return int(math.Round(d.Minutes()))
}
