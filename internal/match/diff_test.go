package match

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	kickoff := time.Date(2023, 10, 21, 23, 0, 0, 0, tokyo)

	base := []Match{
		NewMatch("アーセナル", "チェルシー", kickoff, ""),
		NewMatch("フラム", "バーンリー", kickoff, ""),
		NewMatch("シェフィールド・U", "マンチェスター・U", time.Time{}, ""),
	}

	tests := []struct {
		name     string
		previous []Match
		current  []Match
		want     []Change
	}{
		{
			name:     "first run has no previous snapshot",
			previous: nil,
			current:  base,
			want:     nil,
		},
		{
			name:     "unchanged",
			previous: base,
			current:  base,
			want:     nil,
		},
		{
			name:     "same instant in another zone is unchanged",
			previous: base[:1],
			current:  []Match{NewMatch("アーセナル", "チェルシー", kickoff.UTC(), "")},
			want:     nil,
		},
		{
			name:     "new fixture",
			previous: base[:2],
			current:  base,
			want: []Change{
				{HomeTeam: "シェフィールド・U", AwayTeam: "マンチェスター・U", Type: ChangeNew},
			},
		},
		{
			name:     "rescheduled",
			previous: base,
			current: []Match{
				NewMatch("アーセナル", "チェルシー", kickoff.Add(2*time.Hour), ""),
				base[1], base[2],
			},
			want: []Change{
				{HomeTeam: "アーセナル", AwayTeam: "チェルシー", Type: ChangeKickoff,
					OldValue: "2023-10-21T14:00:00Z", NewValue: "2023-10-21T16:00:00Z"},
			},
		},
		{
			name:     "kickoff announced",
			previous: base,
			current: []Match{
				base[0], base[1],
				NewMatch("シェフィールド・U", "マンチェスター・U", kickoff, ""),
			},
			want: []Change{
				{HomeTeam: "シェフィールド・U", AwayTeam: "マンチェスター・U", Type: ChangeKickoff,
					OldValue: "", NewValue: "2023-10-21T14:00:00Z"},
			},
		},
		{
			name:     "postponed and score",
			previous: base,
			current: []Match{
				NewMatch("アーセナル", "チェルシー", kickoff, "2-2"),
				NewMatch("フラム", "バーンリー", time.Time{}, "延期"),
				base[2],
			},
			want: []Change{
				{HomeTeam: "アーセナル", AwayTeam: "チェルシー", Type: ChangeStatus, OldValue: "", NewValue: "2-2"},
				{HomeTeam: "フラム", AwayTeam: "バーンリー", Type: ChangeKickoff, OldValue: "2023-10-21T14:00:00Z", NewValue: ""},
				{HomeTeam: "フラム", AwayTeam: "バーンリー", Type: ChangeStatus, OldValue: "", NewValue: "延期"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.previous, tt.current)
			if len(got) != len(tt.want) {
				t.Fatalf("Diff() returned %d changes, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				g := got[i]
				if g.HomeTeam != want.HomeTeam || g.AwayTeam != want.AwayTeam || g.Type != want.Type {
					t.Errorf("change %d = %+v, want %+v", i, g, want)
				}
				if want.Type != ChangeNew && (g.OldValue != want.OldValue || g.NewValue != want.NewValue) {
					t.Errorf("change %d values = %q -> %q, want %q -> %q", i, g.OldValue, g.NewValue, want.OldValue, want.NewValue)
				}
				if g.MatchID == "" {
					t.Errorf("change %d has no match ID", i)
				}
			}
		})
	}
}

func TestStableKey_IgnoresKickoff(t *testing.T) {
	a := NewMatch("A", "B", time.Date(2023, 10, 21, 14, 0, 0, 0, time.UTC), "")
	b := NewMatch("A", "B", time.Time{}, "延期")

	if a.ID == b.ID {
		t.Fatal("IDs should differ when kickoff differs")
	}
	if StableKey(a) != StableKey(b) {
		t.Errorf("StableKey() differs: %q vs %q", StableKey(a), StableKey(b))
	}
	if StableKey(a) == StableKey(NewMatch("B", "A", a.Kickoff, "")) {
		t.Error("home and away must not be interchangeable")
	}
}
