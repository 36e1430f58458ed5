package notifier

import (
	"context"
	"fmt"
	"io"
)

// DryRunNotifier prints what would be sent without posting anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Name returns "dry-run"
func (n *DryRunNotifier) Name() string {
	return "dry-run"
}

// Notify prints the headline and the schedule listing
func (n *DryRunNotifier) Notify(ctx context.Context, note *Notification) error {
	if _, err := fmt.Fprintf(n.w, "--- %s ---\n", note.Message()); err != nil {
		return err
	}
	for _, f := range note.Fields() {
		if _, err := fmt.Fprintf(n.w, "%-16s %s\n", f.Value, f.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(n.w, "(%d upcoming, %d total)\n\n", len(note.Upcoming), len(note.All))
	return err
}
