package notifier

import (
	"testing"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	return loc
}

// testNotification returns an alert for a 00:30 JST kickoff displayed in Hong Kong
func testNotification(t *testing.T) *Notification {
	t.Helper()
	tokyo := mustLoad(t, "Asia/Tokyo")

	next := match.NewMatch("アーセナル", "チェルシー", time.Date(2023, 10, 22, 0, 30, 0, 0, tokyo), "")
	later := match.NewMatch("フラム", "バーンリー", time.Date(2023, 10, 22, 23, 0, 0, 0, tokyo), "")
	unknown := match.NewMatch("シェフィールド・U", "マンチェスター・U", time.Time{}, "延期")

	return &Notification{
		Next:     next,
		Upcoming: []match.Match{next},
		All:      []match.Match{next, later, unknown},
		Zone:     mustLoad(t, "Asia/Hong_Kong"),
		Names:    localize.DefaultJaZh(),
	}
}

func TestNotification_Message(t *testing.T) {
	n := testNotification(t)

	want := "Next match: 阿仙奴 vs 車路士 at 2023/10/21 23:30"
	if got := n.Message(); got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestNotification_Fields(t *testing.T) {
	n := testNotification(t)

	want := []Field{
		{Name: "阿仙奴 vs 車路士", Value: "2023/10/21 23:30", Inline: true},
		{Name: "富咸 vs 般尼", Value: "2023/10/22 22:00", Inline: true},
		{Name: "錫菲聯 vs 曼聯", Value: "TBD", Inline: true},
	}

	got := n.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() returned %d fields, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNotification_DisplayTime(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	m := match.NewMatch("A", "B", time.Date(2023, 10, 8, 1, 30, 0, 0, tokyo), "")

	tests := []struct {
		name string
		zone *time.Location
		want string
	}{
		{"display zone", mustLoad(t, "Asia/Hong_Kong"), "2023/10/8 00:30"},
		{"nil zone keeps source", nil, "2023/10/8 01:30"},
		{"utc", time.UTC, "2023/10/7 16:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{Zone: tt.zone}
			if got := n.DisplayTime(m); got != tt.want {
				t.Errorf("DisplayTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotification_NilNamesUsesIdentity(t *testing.T) {
	n := testNotification(t)
	n.Names = nil

	if got := n.Title(n.Next); got != "アーセナル vs チェルシー" {
		t.Errorf("Title() = %q", got)
	}
}
