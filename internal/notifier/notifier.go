package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

// DisplayLayout is the kickoff format used in every message
const DisplayLayout = "2006/1/2 15:04"

// Notifier defines the interface for posting match notifications
type Notifier interface {
	// Notify posts a notification for the upcoming matches
	Notify(ctx context.Context, n *Notification) error
	// Name identifies the channel in logs
	Name() string
}

// Notification is one alert: the earliest imminent match plus context
type Notification struct {
	Next     match.Match
	Upcoming []match.Match
	All      []match.Match
	Zone     *time.Location
	Names    localize.Table
}

// Field is one entry of the schedule listing
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Message returns the headline for the next match
func (n *Notification) Message() string {
	return fmt.Sprintf("Next match: %s vs %s at %s",
		n.Names.Name(n.Next.HomeTeam),
		n.Names.Name(n.Next.AwayTeam),
		n.DisplayTime(n.Next))
}

// Fields lists every match of the schedule in order
func (n *Notification) Fields() []Field {
	fields := make([]Field, 0, len(n.All))
	for _, m := range n.All {
		fields = append(fields, Field{
			Name:   n.Title(m),
			Value:  n.DisplayTime(m),
			Inline: true,
		})
	}
	return fields
}

// Title returns "home vs away" with localized names
func (n *Notification) Title(m match.Match) string {
	return fmt.Sprintf("%s vs %s", n.Names.Name(m.HomeTeam), n.Names.Name(m.AwayTeam))
}

// DisplayTime formats the kickoff in the notification zone, or TBD when unknown
func (n *Notification) DisplayTime(m match.Match) string {
	if !m.HasKickoff() {
		return "TBD"
	}
	t := m.Kickoff
	if n.Zone != nil {
		t = t.In(n.Zone)
	}
	return t.Format(DisplayLayout)
}
