package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/kickoff-watch/internal/config"
	"github.com/pfrederiksen/kickoff-watch/internal/filter"
	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/pfrederiksen/kickoff-watch/internal/notifier"
	"github.com/pfrederiksen/kickoff-watch/internal/scraper"
	"github.com/pfrederiksen/kickoff-watch/internal/server"
	"github.com/pfrederiksen/kickoff-watch/internal/storage"
	"github.com/pfrederiksen/kickoff-watch/internal/watcher"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// options holds the persistent flags shared by every subcommand
type options struct {
	format  string
	tz      string
	buffer  int
	dataDir string
	dryRun  bool
	verbose bool
	noStore bool
	watch   bool
	addr    string
}

// env is everything a subcommand needs after configuration is loaded
type env struct {
	cfg     *config.Config
	format  OutputFormat
	names   localize.Table
	scraper *scraper.Scraper
	out     io.Writer
	closer  io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		e.closer.Close()
	}
}

// NewRootCmd creates the root command
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "kickoff-watch",
		Short: "Watch the Premier League schedule and announce imminent kickoffs",
		Long: `A CLI tool that scrapes the Premier League schedule, normalizes kickoff
times across time zones, and notifies Discord, Telegram or Twitter shortly
before each match starts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.tz, "tz", "", "Display time zone (default $DISPLAY_TZ or Asia/Hong_Kong)")
	flags.IntVar(&opts.buffer, "buffer", 0, "Alert window in minutes (default $BUFFER_MINUTES or 30)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory for the alert ledger (default $DATA_DIR)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print notifications instead of sending them")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newScheduleCmd(opts),
		newStandingsCmd(opts),
		newNotifyCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	var (
		teams    []string
		weekends bool
		dates    string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List the current schedule in kickoff order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			now := time.Now()
			f := &filter.Filter{Teams: teams, WeekendsOnly: weekends}
			if dates != "" {
				from, to, err := filter.ParseDateRange(dates, now, e.cfg.DisplayLocation())
				if err != nil {
					return fmt.Errorf("invalid --dates: %w", err)
				}
				f.DateFrom, f.DateTo = from, to
			}

			matches, err := e.scraper.FetchSchedule(cmd.Context(), now.In(e.cfg.SourceLocation()).Year(), e.cfg.SourceLocation())
			if err != nil {
				return fmt.Errorf("fetching schedule: %w", err)
			}

			sorted := f.Apply(match.Sort(matches), e.names, e.cfg.DisplayLocation())
			if !f.IsEmpty() {
				logger.Debug("Schedule filtered", logger.Fields{"filter": f.String(), "kept": len(sorted)})
			}
			result := &ScheduleResult{
				CheckedAt: now.UTC(),
				Timezone:  e.cfg.DisplayLocation().String(),
				Matches:   sorted,
				Upcoming:  match.FilterUpcoming(sorted, e.cfg.GetBufferMinutes(), now, e.cfg.DisplayLocation()),
				Names:     e.names,
				zone:      e.cfg.DisplayLocation(),
			}
			result.Count = len(result.Matches)

			return WriteSchedule(e.out, result, e.format, opts.verbose)
		},
	}

	cmd.Flags().StringSliceVar(&teams, "team", nil, "Only matches involving this team (source or display name, repeatable)")
	cmd.Flags().BoolVar(&weekends, "weekends", false, "Only matches on Saturday or Sunday in the display zone")
	cmd.Flags().StringVar(&dates, "dates", "", "Only matches in a date range, e.g. 'Oct 21-22' or 'November'")
	return cmd
}

func newStandingsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "standings",
		Short: "Show the league table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			standings, err := e.scraper.FetchStandings(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching standings: %w", err)
			}

			return WriteStandings(e.out, standings, e.names, e.format)
		},
	}
}

func newNotifyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Run one check and announce matches kicking off within the window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			w, cleanup, err := newWatcher(e, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := w.Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return WriteReport(e.out, report, e.names, e.format)
		},
	}
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not use the alert ledger (announce every imminent match)")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the schedule and announce matches until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			w, cleanup, err := newWatcher(e, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return w.Start(ctx)
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule, standings and calendar over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			w, cleanup, err := newWatcher(e, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.watch {
				go func() {
					if err := w.Start(ctx); err != nil {
						logger.Error("Watcher exited", nil, err)
					}
				}()
			}

			srv := server.New(e.scraper, w, server.Options{
				BufferMinutes: e.cfg.GetBufferMinutes(),
				SourceZone:    e.cfg.SourceLocation(),
				DisplayZone:   e.cfg.DisplayLocation(),
				Names:         e.names,
			})

			addr := e.cfg.Web.ListenAddr
			if opts.addr != "" {
				addr = opts.addr
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default $LISTEN_ADDR or :8080)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Also poll and notify in the background")
	return cmd
}

// setup loads configuration, applies flag overrides and configures logging
func setup(cmd *cobra.Command, opts *options) (*env, error) {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg := config.LoadFromEnv()
	if opts.tz != "" {
		cfg.Zones.Display = opts.tz
	}
	if cmd.Flags().Changed("buffer") {
		cfg.Notify.BufferMinutes = strconv.Itoa(opts.buffer)
	}
	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}
	if opts.verbose {
		cfg.Log.Level = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{
		cfg:     cfg,
		format:  format,
		scraper: scraper.New(cfg.Scrape.ScheduleURL, cfg.Scrape.StandingsURL),
		out:     cmd.OutOrStdout(),
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	var logOut io.Writer = cmd.ErrOrStderr()
	if cfg.Log.File != "" {
		file := logger.NewFileWriter(cfg.Log.File, logMaxSizeMB, logMaxBackups)
		logOut = file
		e.closer = file
	}
	logger.SetDefault(logger.New(level, logOut))

	names, err := loadNames(cfg.Notify.TeamNamesFile)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.names = names

	logger.Debug("Configuration loaded", logger.Fields{
		"schedule_url": cfg.Scrape.ScheduleURL,
		"source_tz":    cfg.Zones.Source,
		"display_tz":   cfg.Zones.Display,
		"buffer":       cfg.GetBufferMinutes(),
	})

	return e, nil
}

// loadNames returns the built-in table, overridden by the optional file
func loadNames(path string) (localize.Table, error) {
	names := localize.DefaultJaZh()
	if path == "" {
		return names, nil
	}
	custom, err := localize.Load(path)
	if err != nil {
		return nil, err
	}
	return names.Merge(custom), nil
}

// newWatcher builds the watcher with its ledger and notifiers. The returned
// cleanup closes the ledger.
func newWatcher(e *env, opts *options) (*watcher.Watcher, func(), error) {
	notifiers, err := buildNotifiers(e.cfg, opts.dryRun, e.out)
	if err != nil {
		return nil, nil, err
	}
	if len(notifiers) == 0 {
		logger.Warn("No notifiers configured; imminent matches will only be logged", nil)
	}

	var ledger watcher.Ledger
	cleanup := func() {}
	if !opts.noStore {
		store, err := storage.New(e.cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing storage: %w", err)
		}
		ledger = store
		cleanup = func() { store.Close() }
	}

	w := watcher.New(e.scraper, ledger, notifiers, watcher.Options{
		BufferMinutes: e.cfg.GetBufferMinutes(),
		SourceZone:    e.cfg.SourceLocation(),
		DisplayZone:   e.cfg.DisplayLocation(),
		Names:         e.names,
		PollInterval:  e.cfg.GetPollInterval(),
		ReadOnly:      opts.dryRun,
	})
	return w, cleanup, nil
}

// buildNotifiers returns the configured channels, or a single dry-run
// notifier writing to out
func buildNotifiers(cfg *config.Config, dryRun bool, out io.Writer) ([]notifier.Notifier, error) {
	if dryRun {
		return []notifier.Notifier{notifier.NewDryRunNotifier(out)}, nil
	}

	var notifiers []notifier.Notifier

	if cfg.Discord.WebhookURL != "" {
		d, err := notifier.NewDiscordNotifier(cfg.Discord.WebhookURL)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, d)
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	if cfg.Twitter.Enabled {
		tw, err := notifier.NewTwitterNotifier(cfg.Twitter)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tw)
	}

	return notifiers, nil
}

// Execute runs the CLI
func Execute(version string) {
	if err := NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
