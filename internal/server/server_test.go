package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/pfrederiksen/kickoff-watch/internal/watcher"
)

type fakeFetcher struct {
	matches   []match.Match
	standings []match.Standing
	err       error
	year      int
}

func (f *fakeFetcher) FetchSchedule(ctx context.Context, currentYear int, source *time.Location) ([]match.Match, error) {
	f.year = currentYear
	return f.matches, f.err
}

func (f *fakeFetcher) FetchStandings(ctx context.Context) ([]match.Standing, error) {
	return f.standings, f.err
}

type fakeRunner struct {
	report *watcher.Report
	err    error
	now    time.Time
}

func (f *fakeRunner) Run(ctx context.Context, now time.Time) (*watcher.Report, error) {
	f.now = now
	return f.report, f.err
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	return loc
}

// testNow is 23:40 JST on 2023-10-21
func testNow(t *testing.T) time.Time {
	return time.Date(2023, 10, 21, 23, 40, 0, 0, mustLoad(t, "Asia/Tokyo"))
}

func testMatches(t *testing.T) []match.Match {
	now := testNow(t)
	return []match.Match{
		match.NewMatch("フラム", "バーンリー", now.Add(3*time.Hour), ""),
		match.NewMatch("シェフィールド・U", "マンチェスター・U", time.Time{}, "延期"),
		match.NewMatch("ブライトン", "リヴァプール", now.Add(-2*time.Hour), "2-2"),
		match.NewMatch("アーセナル", "チェルシー", now.Add(20*time.Minute), ""),
	}
}

func newTestServer(t *testing.T, fetcher Fetcher, runner Runner) *Server {
	t.Helper()
	s := New(fetcher, runner, Options{
		BufferMinutes: 30,
		SourceZone:    mustLoad(t, "Asia/Tokyo"),
		DisplayZone:   mustLoad(t, "Asia/Hong_Kong"),
		Names:         localize.DefaultJaZh(),
	})
	s.metrics = logger.NewMetrics()
	s.now = func() time.Time { return testNow(t) }
	return s
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{}, nil)

	rr := serve(s, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSchedule(t *testing.T) {
	fetcher := &fakeFetcher{matches: testMatches(t)}
	s := newTestServer(t, fetcher, nil)

	rr := serve(s, http.MethodGet, "/schedule")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp scheduleResponse
	decode(t, rr, &resp)

	if fetcher.year != 2023 {
		t.Errorf("fetched with year %d, want 2023", fetcher.year)
	}
	if resp.Timezone != "Asia/Hong_Kong" || resp.Total != 4 {
		t.Errorf("resp = %+v", resp)
	}

	wantOrder := []string{"ブライトン", "アーセナル", "フラム", "シェフィールド・U"}
	for i, want := range wantOrder {
		if resp.Matches[i].HomeTeam != want {
			t.Errorf("Matches[%d] = %s, want %s", i, resp.Matches[i].HomeTeam, want)
		}
	}

	arsenal := resp.Matches[1]
	if arsenal.HomeName != "阿仙奴" || arsenal.Kickoff == nil || *arsenal.Kickoff != "2023-10-21T23:00:00+08:00" {
		t.Errorf("arsenal = %+v", arsenal)
	}
	if arsenal.Status != nil {
		t.Errorf("status = %v, want null", *arsenal.Status)
	}

	unknown := resp.Matches[3]
	if unknown.Kickoff != nil || unknown.Status == nil || *unknown.Status != "延期" {
		t.Errorf("unknown = %+v", unknown)
	}
}

func TestSchedule_Timezone(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantKickoff string
	}{
		{"utc", "?tz=UTC", http.StatusOK, "2023-10-21T15:00:00Z"},
		{"tokyo", "?tz=Asia/Tokyo", http.StatusOK, "2023-10-22T00:00:00+09:00"},
		{"london", "?tz=Europe/London", http.StatusOK, "2023-10-21T16:00:00+01:00"},
		{"unknown zone", "?tz=Mars/Olympus", http.StatusBadRequest, ""},
		{"local rejected", "?tz=Local", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeFetcher{matches: testMatches(t)}, nil)

			rr := serve(s, http.MethodGet, "/schedule"+tt.query)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp scheduleResponse
			decode(t, rr, &resp)
			if got := *resp.Matches[1].Kickoff; got != tt.wantKickoff {
				t.Errorf("kickoff = %s, want %s", got, tt.wantKickoff)
			}
		})
	}
}

func TestSchedule_TeamFilter(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{matches: testMatches(t)}, nil)

	rr := serve(s, http.MethodGet, "/schedule?team="+url.QueryEscape("阿仙奴")+"&team="+url.QueryEscape("曼聯"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp scheduleResponse
	decode(t, rr, &resp)
	if resp.Total != 2 || resp.Matches[0].HomeTeam != "アーセナル" || resp.Matches[1].HomeTeam != "シェフィールド・U" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSchedule_FetchError(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{err: errors.New("timeout")}, nil)

	for _, path := range []string{"/schedule", "/schedule.ics", "/standings", "/next-match"} {
		rr := serve(s, http.MethodGet, path)
		if rr.Code != http.StatusBadGateway {
			t.Errorf("%s status = %d, want %d", path, rr.Code, http.StatusBadGateway)
		}
	}
}

func TestScheduleICS(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{matches: testMatches(t)}, nil)

	rr := serve(s, http.MethodGet, "/schedule.ics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rr.Body.String()
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("VEVENT count = %d, want 3", got)
	}
	if !strings.Contains(body, "SUMMARY:阿仙奴 vs 車路士") {
		t.Errorf("missing localized summary:\n%s", body)
	}
}

func TestStandings(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{standings: []match.Standing{
		{Rank: 1, TeamName: "トッテナム", Points: 23},
		{Rank: 2, TeamName: "アーセナル", Points: 21},
	}}, nil)

	rr := serve(s, http.MethodGet, "/standings")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var standings []match.Standing
	decode(t, rr, &standings)
	if len(standings) != 2 || standings[0].TeamName != "トッテナム" || standings[1].Points != 21 {
		t.Errorf("standings = %+v", standings)
	}
}

func TestStandings_EmptyIsArray(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{}, nil)

	rr := serve(s, http.MethodGet, "/standings")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestNextMatch(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{matches: testMatches(t)}, nil)

	rr := serve(s, http.MethodGet, "/next-match")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp nextMatchResponse
	decode(t, rr, &resp)
	if resp.Match.HomeTeam != "アーセナル" {
		t.Errorf("next = %s, want アーセナル", resp.Match.HomeTeam)
	}
	if resp.Match.MinutesUntil == nil || *resp.Match.MinutesUntil != 20 {
		t.Errorf("minutesUntil = %v, want 20", resp.Match.MinutesUntil)
	}
	if !resp.Imminent || resp.BufferMinutes != 30 {
		t.Errorf("imminent = %v, buffer = %d", resp.Imminent, resp.BufferMinutes)
	}
}

func TestNextMatch_NoneLeft(t *testing.T) {
	now := testNow(t)
	s := newTestServer(t, &fakeFetcher{matches: []match.Match{
		match.NewMatch("A", "B", now.Add(-time.Hour), "1-0"),
		match.NewMatch("C", "D", time.Time{}, "延期"),
	}}, nil)

	rr := serve(s, http.MethodGet, "/next-match")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		runner     Runner
		wantStatus int
	}{
		{"success", &fakeRunner{report: &watcher.Report{RunID: "abc", Total: 10, Notified: 1}}, http.StatusOK},
		{"no matches", &fakeRunner{report: &watcher.Report{}, err: watcher.ErrNoMatches}, http.StatusBadGateway},
		{"failure", &fakeRunner{report: &watcher.Report{}, err: errors.New("all notifiers failed")}, http.StatusInternalServerError},
		{"not configured", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeFetcher{}, tt.runner)

			rr := serve(s, http.MethodPost, "/run")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var report watcher.Report
				decode(t, rr, &report)
				if report.RunID != "abc" || report.Total != 10 {
					t.Errorf("report = %+v", report)
				}
				if !tt.runner.(*fakeRunner).now.Equal(testNow(t)) {
					t.Error("runner did not receive the server clock")
				}
			}
		})
	}
}

func TestRun_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{}, &fakeRunner{})

	rr := serve(s, http.MethodGet, "/run")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{}, nil)

	serve(s, http.MethodGet, "/healthz")
	rr := serve(s, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var snapshot struct {
		Counters map[string]int64 `json:"counters"`
	}
	decode(t, rr, &snapshot)
	if snapshot.Counters["http.requests"] < 1 {
		t.Errorf("http.requests = %d, want >= 1", snapshot.Counters["http.requests"])
	}
}

func TestListenAndServe_ShutsDown(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
