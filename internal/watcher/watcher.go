package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/pfrederiksen/kickoff-watch/internal/notifier"
	"github.com/pfrederiksen/kickoff-watch/internal/storage"
)

// ErrNoMatches is returned when the schedule page yielded no rows at all,
// which usually means the page layout changed
var ErrNoMatches = errors.New("no matches parsed from schedule")

// ledgerRetention is how long after kickoff an alert record is kept
const ledgerRetention = 24 * time.Hour

// Source fetches the raw schedule
type Source interface {
	FetchSchedule(ctx context.Context, currentYear int, source *time.Location) ([]match.Match, error)
}

// Ledger remembers which matches were announced
type Ledger interface {
	IsNotified(matchID string) (bool, error)
	MarkNotified(m match.Match, at time.Time) error
	Cleanup(before time.Time) (int, error)
	SaveSnapshot(matches []match.Match, at time.Time) error
	LoadSnapshot() (*storage.Snapshot, error)
}

// Options configures a Watcher
type Options struct {
	BufferMinutes int
	SourceZone    *time.Location
	DisplayZone   *time.Location
	Names         localize.Table
	PollInterval  time.Duration
	// ReadOnly consults the ledger but never writes to it
	ReadOnly bool
}

// Report summarizes one run
type Report struct {
	RunID    string         `json:"runId"`
	Total    int            `json:"total"`
	Unknown  int            `json:"unknown"`
	Upcoming int            `json:"upcoming"`
	Notified int            `json:"notified"`
	Alerted  []match.Match  `json:"alerted"`
	Changes  []match.Change `json:"changes,omitempty"`
}

// Watcher ties the scraper, ledger and notifiers together
type Watcher struct {
	source    Source
	ledger    Ledger
	notifiers []notifier.Notifier
	opts      Options
	metrics   *logger.Metrics
	now       func() time.Time
}

// New creates a Watcher. ledger may be nil, in which case every imminent
// match is announced on every run.
func New(source Source, ledger Ledger, notifiers []notifier.Notifier, opts Options) *Watcher {
	if opts.SourceZone == nil {
		opts.SourceZone = time.UTC
	}
	if opts.DisplayZone == nil {
		opts.DisplayZone = opts.SourceZone
	}
	if opts.Names == nil {
		opts.Names = localize.Identity()
	}
	return &Watcher{
		source:    source,
		ledger:    ledger,
		notifiers: notifiers,
		opts:      opts,
		metrics:   logger.DefaultMetrics(),
		now:       time.Now,
	}
}

// Run performs one scrape and notify cycle as of now
func (w *Watcher) Run(ctx context.Context, now time.Time) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	defer func() {
		w.metrics.IncrCounter("watcher.runs")
		w.metrics.RecordTiming("watcher.run", time.Since(start))
	}()

	year := now.In(w.opts.SourceZone).Year()
	matches, err := w.source.FetchSchedule(ctx, year, w.opts.SourceZone)
	if err != nil {
		w.metrics.IncrCounter("watcher.errors")
		return report, fmt.Errorf("fetching schedule: %w", err)
	}
	if len(matches) == 0 {
		w.metrics.IncrCounter("watcher.errors")
		return report, ErrNoMatches
	}

	sorted := match.Sort(matches)
	report.Total = len(sorted)
	for _, m := range sorted {
		if !m.HasKickoff() {
			report.Unknown++
		}
	}
	w.metrics.SetGauge("watcher.matches", float64(report.Total))
	w.metrics.SetGauge("watcher.unknown_kickoffs", float64(report.Unknown))
	if report.Unknown == report.Total {
		w.metrics.IncrCounter("watcher.unparsed_schedules")
		logger.Warn("No kickoff on the schedule page could be parsed", logger.Fields{
			"run_id": report.RunID,
			"total":  report.Total,
		})
	}

	if w.ledger != nil {
		report.Changes = w.detectChanges(report.RunID, sorted)
	}
	if w.writable() {
		if err := w.ledger.SaveSnapshot(sorted, now); err != nil {
			logger.Warn("Failed to save schedule snapshot", logger.Fields{
				"run_id": report.RunID,
				"error":  err.Error(),
			})
		}
	}

	upcoming := match.FilterUpcoming(sorted, w.opts.BufferMinutes, now, w.opts.DisplayZone)
	report.Upcoming = len(upcoming)

	pending, err := w.pending(upcoming)
	if err != nil {
		return report, err
	}

	logger.Info("Schedule checked", logger.Fields{
		"run_id":   report.RunID,
		"total":    report.Total,
		"unknown":  report.Unknown,
		"upcoming": report.Upcoming,
		"pending":  len(pending),
	})

	if len(pending) > 0 && len(w.notifiers) == 0 {
		logger.Warn("No notifiers configured; imminent matches left unannounced", logger.Fields{
			"run_id":  report.RunID,
			"pending": len(pending),
		})
	} else if len(pending) > 0 {
		if err := w.notify(ctx, report.RunID, pending, sorted); err != nil {
			return report, err
		}
		if err := w.markNotified(pending, now); err != nil {
			return report, err
		}
		report.Notified = len(pending)
		report.Alerted = pending
		w.metrics.AddCounter("watcher.notified", int64(len(pending)))
	}

	if w.writable() {
		removed, err := w.ledger.Cleanup(now.Add(-ledgerRetention))
		if err != nil {
			logger.Warn("Failed to clean up alert ledger", logger.Fields{
				"run_id": report.RunID,
				"error":  err.Error(),
			})
		} else if removed > 0 {
			logger.Debug("Cleaned up alert ledger", logger.Fields{"removed": removed})
		}
	}

	return report, nil
}

// detectChanges compares the fresh schedule with the last saved snapshot
func (w *Watcher) detectChanges(runID string, sorted []match.Match) []match.Change {
	previous, err := w.ledger.LoadSnapshot()
	if err != nil {
		logger.Warn("Failed to load schedule snapshot", logger.Fields{
			"run_id": runID,
			"error":  err.Error(),
		})
		return nil
	}
	if previous == nil {
		return nil
	}

	changes := match.Diff(previous.Matches, sorted)
	for _, c := range changes {
		logger.Info("Schedule changed", logger.Fields{
			"run_id":    runID,
			"match_id":  c.MatchID,
			"home":      c.HomeTeam,
			"away":      c.AwayTeam,
			"type":      string(c.Type),
			"old_value": c.OldValue,
			"new_value": c.NewValue,
		})
	}
	w.metrics.AddCounter("watcher.schedule_changes", int64(len(changes)))
	return changes
}

// pending drops matches the ledger has already announced
func (w *Watcher) pending(upcoming []match.Match) ([]match.Match, error) {
	if w.ledger == nil {
		return upcoming, nil
	}

	var pending []match.Match
	for _, m := range upcoming {
		notified, err := w.ledger.IsNotified(m.ID)
		if err != nil {
			return nil, fmt.Errorf("checking alert ledger: %w", err)
		}
		if !notified {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// notify sends to every notifier. It fails only when every notifier failed.
func (w *Watcher) notify(ctx context.Context, runID string, pending, all []match.Match) error {
	note := &notifier.Notification{
		Next:     pending[0],
		Upcoming: pending,
		All:      all,
		Zone:     w.opts.DisplayZone,
		Names:    w.opts.Names,
	}

	var errs []error
	for _, n := range w.notifiers {
		if err := n.Notify(ctx, note); err != nil {
			logger.Error("Notification failed", logger.Fields{
				"run_id":   runID,
				"notifier": n.Name(),
			}, err)
			w.metrics.IncrCounter("notifier." + n.Name() + ".errors")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		w.metrics.IncrCounter("notifier." + n.Name() + ".sent")
		logger.Info("Notification sent", logger.Fields{
			"run_id":   runID,
			"notifier": n.Name(),
			"match_id": note.Next.ID,
		})
	}

	if len(w.notifiers) > 0 && len(errs) == len(w.notifiers) {
		return fmt.Errorf("all notifiers failed: %w", errors.Join(errs...))
	}
	return nil
}

func (w *Watcher) writable() bool {
	return w.ledger != nil && !w.opts.ReadOnly
}

func (w *Watcher) markNotified(pending []match.Match, now time.Time) error {
	if !w.writable() {
		return nil
	}
	for _, m := range pending {
		if err := w.ledger.MarkNotified(m, now); err != nil {
			return fmt.Errorf("recording alert for %s: %w", m.ID, err)
		}
	}
	return nil
}

// Start runs immediately and then once per poll interval until ctx is done
func (w *Watcher) Start(ctx context.Context) error {
	if w.opts.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", w.opts.PollInterval)
	}

	logger.Info("Watcher started", logger.Fields{
		"interval": w.opts.PollInterval.String(),
		"buffer":   w.opts.BufferMinutes,
	})

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Watcher stopped", nil)
			return nil
		case <-ticker.C:
			w.runLogged(ctx)
		}
	}
}

func (w *Watcher) runLogged(ctx context.Context) {
	report, err := w.Run(ctx, w.now())
	switch {
	case err == nil:
	case errors.Is(err, ErrNoMatches):
		logger.Warn("Schedule page had no matches", logger.Fields{"run_id": report.RunID})
	case ctx.Err() != nil:
	default:
		logger.Error("Watch run failed", logger.Fields{"run_id": report.RunID}, err)
	}
}
