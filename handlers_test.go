package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lionel/config"
	"lionel/plots"

	"github.com/goccy/go-json"
)

// newTestServer serves the seeded store as if today were 2024-08-20, so the
// next gameweek is 2.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db := newTestDB(t)
	cfg := config.Default()
	cache := newMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })
	dash := NewDashboard(db, cache, cfg)
	dash.now = func() time.Time { return time.Date(2024, 8, 20, 8, 0, 0, 0, time.UTC) }
	cfg.Defaults.ShowcaseHome = "Tottenham"
	cfg.Defaults.ShowcaseAway = "Chelsea"
	return NewRouter(NewHandler(dash, db, cfg.Defaults), cfg.Server)
}

// chartJSON is the part of an encoded plotly figure the tests read.
type chartJSON struct {
	Data   []chartTrace `json:"data"`
	Layout struct {
		XAxis struct {
			Title struct {
				Text string `json:"text"`
			} `json:"title"`
		} `json:"xaxis"`
	} `json:"layout"`
}

type chartTrace struct {
	Type string      `json:"type"`
	Name string      `json:"name"`
	X    []float64   `json:"x"`
	Y    []float64   `json:"y"`
	Z    [][]float64 `json:"z"`
}

func (c chartJSON) trace(name string) (chartTrace, bool) {
	for _, tr := range c.Data {
		if tr.Name == name {
			return tr, true
		}
	}
	return chartTrace{}, false
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAPIGameweek(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/gameweek")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode[gameweekResponse](t, rec)
	if got.Season != 25 || got.Gameweek != 2 {
		t.Errorf("got %+v, want season 25 gameweek 2", got)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestAPIMatches(t *testing.T) {
	srv := newTestServer(t)

	got := decode[matchesResponse](t, get(t, srv, "/api/v1/matches"))
	if got.Gameweek != 2 || len(got.Matches) != 2 || got.Matches[0].Home != "Tottenham" {
		t.Errorf("default gameweek: %+v", got)
	}

	got = decode[matchesResponse](t, get(t, srv, "/api/v1/matches?gameweek=1"))
	if got.Gameweek != 1 || len(got.Matches) != 2 || got.Matches[0].Home != "Arsenal" {
		t.Errorf("gameweek 1: %+v", got)
	}

	got = decode[matchesResponse](t, get(t, srv, "/api/v1/matches?gameweek=20"))
	if got.Matches == nil || len(got.Matches) != 0 {
		t.Errorf("empty gameweek should give an empty list: %+v", got)
	}
}

func TestAPIBadFilters(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		target string
		want   string
	}{
		{"/api/v1/matches?gameweek=0", "gameweek must be at least 1"},
		{"/api/v1/matches?gameweek=39", "gameweek must be at most 38"},
		{"/api/v1/matches?gameweek=six", "gameweek must be a whole number"},
		{"/api/v1/charts/players?min_minutes=91", "min_minutes must be at most 90"},
		{"/api/v1/charts/players?min_minutes=-1", "min_minutes must be at least 0"},
		{"/api/v1/charts/scoreline?home=Arsenal", "away is required"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decode[map[string]string](t, rec)
			if !strings.Contains(body["error"], tt.want) {
				t.Errorf("error = %q, want it to mention %q", body["error"], tt.want)
			}
		})
	}
}

func TestAPINoCompletedGameweek(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Default()
	dash := NewDashboard(db, noCache{}, cfg)
	dash.now = func() time.Time { return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC) }
	srv := NewRouter(NewHandler(dash, db, cfg.Defaults), cfg.Server)

	rec := get(t, srv, "/api/v1/gameweek")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "no completed gameweek") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestScorelinesPageBeforeFirstGameweek(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Default()
	dash := NewDashboard(db, noCache{}, cfg)
	dash.now = func() time.Time { return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC) }
	srv := NewRouter(NewHandler(dash, db, cfg.Defaults), cfg.Server)

	rec := get(t, srv, "/scorelines?match=Tottenham+vs+Chelsea")
	if rec.Code != http.StatusOK {
		t.Fatalf("explicit match: status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="scoreline"`) {
		t.Error("page lacks the requested chart")
	}
	if strings.Contains(body, "<option") || strings.Contains(body, "<h2>Gameweek") {
		t.Error("selector should be empty with no gameweek resolved")
	}

	if rec := get(t, srv, "/scorelines"); rec.Code != http.StatusNotFound {
		t.Errorf("no match given: status = %d, want 404", rec.Code)
	}
}

func TestAPIScorelineChart(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/charts/scoreline?home=Tottenham&away=Chelsea")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	fig := decode[chartJSON](t, rec)
	if len(fig.Data) != 1 || fig.Data[0].Type != "heatmap" {
		t.Fatalf("unexpected traces: %+v", fig.Data)
	}
	z := fig.Data[0].Z
	// 4 samples: 1-0 twice, 2-1 once, 0-0 once; z is indexed [away][home]
	if z[0][1] != 0.5 || z[1][2] != 0.25 || z[0][0] != 0.25 {
		t.Errorf("z = %v", z[:2])
	}
	if fig.Layout.XAxis.Title.Text != "Home (Tottenham) Goals" {
		t.Errorf("x title = %q", fig.Layout.XAxis.Title.Text)
	}
	if fig.Data[0].Name != "Tottenham - Chelsea Scoreline Probability" {
		t.Errorf("trace name = %q", fig.Data[0].Name)
	}
}

func TestAPIPlayersChart(t *testing.T) {
	srv := newTestServer(t)
	count := func(target string) int {
		fig := decode[chartJSON](t, get(t, srv, target))
		if len(fig.Data) != 4 {
			t.Fatalf("%s: %d traces, want 4", target, len(fig.Data))
		}
		n := 0
		for _, tr := range fig.Data {
			n += len(tr.X)
		}
		return n
	}
	// default threshold 45 drops the 44 and 30 minute players
	if n := count("/api/v1/charts/players"); n != 3 {
		t.Errorf("default threshold kept %d players, want 3", n)
	}
	if n := count("/api/v1/charts/players?min_minutes=0"); n != 5 {
		t.Errorf("threshold 0 kept %d players, want 5", n)
	}
	if n := count("/api/v1/charts/players?min_minutes=90"); n != 0 {
		t.Errorf("threshold 90 kept %d players, want 0", n)
	}
}

func TestAPITeams(t *testing.T) {
	srv := newTestServer(t)
	body := decode[map[string][]string](t, get(t, srv, "/api/v1/teams"))
	if len(body["teams"]) != 3 {
		t.Errorf("teams = %v", body["teams"])
	}
	fig := decode[chartJSON](t, get(t, srv, "/api/v1/charts/teams"))
	if len(fig.Data) != 1 || len(fig.Data[0].X) != 2 {
		t.Errorf("team chart traces = %+v", fig.Data)
	}
}

func TestAPISelectionCharts(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/v1/charts/selection")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	pitch := decode[chartJSON](t, rec)
	if gk, ok := pitch.trace(plots.GK); !ok || len(gk.X) != 1 {
		t.Errorf("keeper row = %+v", gk)
	}
	if bench, ok := pitch.trace("Substitutes"); !ok || len(bench.X) != 1 {
		t.Errorf("bench = %+v", bench)
	}

	value := decode[chartJSON](t, get(t, srv, "/api/v1/charts/value?gameweek=2"))
	if len(value.Data) != 2 || len(value.Data[0].X) != 1 || len(value.Data[1].X) != 2 {
		t.Errorf("value traces = %+v", value.Data)
	}
}

func TestPages(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		target string
		want   []string
	}{
		{"/", []string{"Tottenham vs Chelsea", `id="showcase"`, "Plotly.newPlot"}},
		{"/scorelines", []string{"<h2>Gameweek 2</h2>", `<option value="Tottenham vs Chelsea" selected>`, `id="scoreline"`}},
		{"/scorelines?match=Liverpool+vs+Arsenal", []string{`<option value="Liverpool vs Arsenal" selected>`}},
		{"/inference?min_minutes=60", []string{`value="60"`, `id="players"`, `id="teams"`}},
		{"/selection", []string{"Team selection for gameweek 2", `id="pitch"`, `id="value"`}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			body := rec.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("page lacks %q", w)
				}
			}
		})
	}
}

func TestPageBadMatch(t *testing.T) {
	rec := get(t, newTestServer(t), "/scorelines?match=Arsenal")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Home vs Away") {
		t.Error("error page does not explain the match format")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	if rec := get(t, srv, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	get(t, srv, "/api/v1/charts/teams")
	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "lionel_chart_builds_total") {
		t.Errorf("metrics missing chart counter (status %d)", rec.Code)
	}
}
