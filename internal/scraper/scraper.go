package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/net/html"
)

const (
	UserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
	Timeout    = 30 * time.Second
	MaxRetries = 3

	maxBodySize = 5 << 20

	scheduleRowSelector  = "table.sc-tableGame tbody tr"
	standingsRowSelector = "table tbody tr"
	statusSelector       = "p.sc-tableGame__status"
	scoreSelector        = "p.sc-tableGame__scoreDetail"
)

// blockElements break lines when cell text is flattened
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "time": true,
}

// Scraper handles fetching and parsing the schedule and standings pages
type Scraper struct {
	client       *http.Client
	scheduleURL  string
	standingsURL string
	maxRetries   uint64
	newBackOff   func() backoff.BackOff
}

// Result holds everything scraped in one FetchAll call
type Result struct {
	Matches   []match.Match
	Standings []match.Standing
}

// New creates a new Scraper for the given page URLs
func New(scheduleURL, standingsURL string) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		scheduleURL:  scheduleURL,
		standingsURL: standingsURL,
		maxRetries:   MaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// FetchSchedule fetches the schedule page and returns its fixtures in page order.
// Kickoff text that cannot be parsed leaves the fixture with an unknown kickoff.
func (s *Scraper) FetchSchedule(ctx context.Context, currentYear int, source *time.Location) ([]match.Match, error) {
	start := time.Now()
	body, err := s.fetch(ctx, s.scheduleURL)
	if err != nil {
		return nil, err
	}
	logger.RecordTiming("scrape.schedule", time.Since(start))

	return parseSchedule(bytes.NewReader(body), currentYear, source)
}

// FetchStandings fetches the league table
func (s *Scraper) FetchStandings(ctx context.Context) ([]match.Standing, error) {
	start := time.Now()
	body, err := s.fetch(ctx, s.standingsURL)
	if err != nil {
		return nil, err
	}
	logger.RecordTiming("scrape.standings", time.Since(start))

	return parseStandings(bytes.NewReader(body))
}

// FetchAll fetches the schedule and standings pages concurrently.
// If either page fails the other request is cancelled.
func (s *Scraper) FetchAll(ctx context.Context, currentYear int, source *time.Location) (*Result, error) {
	result := &Result{}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		matches, err := s.FetchSchedule(ctx, currentYear, source)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		result.Matches = matches
		return nil
	})
	p.Go(func(ctx context.Context) error {
		standings, err := s.FetchStandings(ctx)
		if err != nil {
			return fmt.Errorf("standings: %w", err)
		}
		result.Standings = standings
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// fetch GETs url, retrying network errors, 429 and 5xx responses
func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("reading page: %w", err)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying page fetch", logger.Fields{
			"url":  url,
			"wait": wait.String(),
		})
		logger.IncrCounter("scrape.retries")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// parseSchedule extracts fixtures from the schedule page HTML
func parseSchedule(r io.Reader, currentYear int, source *time.Location) ([]match.Match, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	matches := make([]match.Match, 0)

	doc.Find(scheduleRowSelector).Each(func(i int, row *goquery.Selection) {
		// Hidden layout rows carry no fixture
		if style, ok := row.Attr("style"); ok && isHiddenColumn(style) {
			return
		}

		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		score := cells.Eq(3)
		raw := match.Row{
			DateTime:    cellText(cells.Eq(0)),
			HomeTeam:    strings.TrimSpace(cells.Eq(2).Text()),
			StatusText:  strings.TrimSpace(score.Find(statusSelector).Text()),
			ScoreDetail: strings.TrimSpace(score.Find(scoreSelector).Text()),
			AwayTeam:    strings.TrimSpace(cells.Eq(4).Text()),
		}
		if raw.HomeTeam == "" || raw.AwayTeam == "" {
			return
		}

		m, err := match.FromRow(raw, currentYear, source)
		if err != nil {
			logger.Warn("Unknown kickoff", logger.Fields{
				"row":       i,
				"home_team": raw.HomeTeam,
				"away_team": raw.AwayTeam,
				"raw":       raw.DateTime,
			})
			logger.IncrCounter("scrape.unknown_kickoff")
		}
		matches = append(matches, m)
	})

	return match.Dedup(matches), nil
}

// parseStandings extracts league table rows. Header and malformed rows are skipped.
func parseStandings(r io.Reader) ([]match.Standing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	standings := make([]match.Standing, 0)

	doc.Find(standingsRowSelector).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		texts := cells.Map(func(_ int, cell *goquery.Selection) string {
			return strings.TrimSpace(cell.Text())
		})

		standing, err := match.ParseStanding(texts)
		if err != nil {
			logger.Debug("Skipping standings row", logger.Fields{"row": i, "reason": err.Error()})
			return
		}
		standings = append(standings, standing)
	})

	return match.SortStandings(standings), nil
}

func isHiddenColumn(style string) bool {
	compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(compact, "display:table-column")
}

// cellText flattens a cell to text, turning <br> and block elements into
// line breaks so the date and time end up on separate lines
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(&b, c)
		}
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
	default:
		return
	}

	block := blockElements[n.Data]
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteString("\n")
	}
}
