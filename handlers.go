package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"lionel/config"
	"lionel/logging"
	"lionel/plots"
	"lionel/templates"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidFilter marks a request parameter that failed validation.
var ErrInvalidFilter = errors.New("invalid filter")

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
}

type scorelineFilter struct {
	Home string `query:"home" validate:"required,max=64"`
	Away string `query:"away" validate:"required,max=64"`
}

type minutesFilter struct {
	MinMinutes int `query:"min_minutes" validate:"min=0,max=90"`
}

type gameweekFilter struct {
	Gameweek int `query:"gameweek" validate:"min=1,max=38"`
}

// checkFilter validates v and turns the first failure into an ErrInvalidFilter.
func checkFilter(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidFilter, fe.Field())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalidFilter, fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s", ErrInvalidFilter, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s failed %s", ErrInvalidFilter, fe.Field(), fe.Tag())
	}
}

// intParam reads an integer query parameter. ok is false when it is absent.
func intParam(r *http.Request, name string) (v int, ok bool, err error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be a whole number", ErrInvalidFilter, name)
	}
	return v, true, nil
}

// parseMatch splits a "Home vs Away" label.
func parseMatch(label string) (scorelineFilter, error) {
	home, away, ok := strings.Cut(label, " vs ")
	if !ok {
		return scorelineFilter{}, fmt.Errorf("%w: match must look like \"Home vs Away\"", ErrInvalidFilter)
	}
	f := scorelineFilter{Home: strings.TrimSpace(home), Away: strings.TrimSpace(away)}
	return f, checkFilter(&f)
}

// Handler serves the dashboard pages and its JSON API.
type Handler struct {
	dash     *Dashboard
	db       *DBManager
	defaults config.DefaultsConfig
}

func NewHandler(dash *Dashboard, db *DBManager, defaults config.DefaultsConfig) *Handler {
	return &Handler{dash: dash, db: db, defaults: defaults}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoCompletedGameweek):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal failures from clients.
func publicMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status == http.StatusInternalServerError {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	respondJSON(w, status, map[string]string{"error": publicMessage(status, err)})
}

func renderPage(w http.ResponseWriter, r *http.Request, c templ.Component) {
	templ.Handler(c).ServeHTTP(w, r)
}

func renderErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("page failed")
	page := templates.ErrorPage(templates.ErrorPageData{Status: status, Message: publicMessage(status, err)})
	templ.Handler(page, templ.WithStatus(status)).ServeHTTP(w, r)
}

func chartData(id string, fig *plots.Figure) (templates.Chart, error) {
	b, err := json.Marshal(fig)
	if err != nil {
		return templates.Chart{}, fmt.Errorf("encoding %s chart: %w", id, err)
	}
	return templates.Chart{ID: id, JSON: b}, nil
}

// gameweekParam reads ?gameweek=, falling back to the next gameweek.
func (h *Handler) gameweekParam(ctx context.Context, r *http.Request) (int, error) {
	gw, ok, err := intParam(r, "gameweek")
	if err != nil {
		return 0, err
	}
	if !ok {
		return h.dash.NextGameweek(ctx)
	}
	f := gameweekFilter{Gameweek: gw}
	if err := checkFilter(&f); err != nil {
		return 0, err
	}
	return gw, nil
}

func (h *Handler) minutesParam(r *http.Request) (int, error) {
	m, ok, err := intParam(r, "min_minutes")
	if err != nil {
		return 0, err
	}
	if !ok {
		m = h.defaults.MinMinutes
	}
	f := minutesFilter{MinMinutes: m}
	if err := checkFilter(&f); err != nil {
		return 0, err
	}
	return m, nil
}

// Pages

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	home, away := h.defaults.ShowcaseHome, h.defaults.ShowcaseAway
	fig, err := h.dash.ScorelineChart(r.Context(), home, away)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}
	chart, err := chartData("showcase", fig)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}
	renderPage(w, r, templates.AboutPage(templates.AboutPageData{Showcase: chart, Home: home, Away: away}))
}

func (h *Handler) Scorelines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selected := r.URL.Query().Get("match")
	gw, matches, err := h.dash.UpcomingMatches(ctx)
	// an explicit match still renders before the first gameweek completes
	if err != nil && !(selected != "" && errors.Is(err, ErrNoCompletedGameweek)) {
		renderErrorPage(w, r, err)
		return
	}

	labels := make([]string, len(matches))
	for i, m := range matches {
		labels[i] = m.Label()
	}

	if selected == "" {
		selected = h.defaultMatch(labels)
	}
	pair, err := parseMatch(selected)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}

	fig, err := h.dash.ScorelineChart(ctx, pair.Home, pair.Away)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}
	chart, err := chartData("scoreline", fig)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}
	renderPage(w, r, templates.ScorelinesPage(templates.ScorelinePageData{
		Gameweek: gw,
		Matches:  labels,
		Selected: selected,
		Chart:    chart,
	}))
}

// defaultMatch prefers the configured pair when it plays this gameweek.
func (h *Handler) defaultMatch(labels []string) string {
	configured := Match{Home: h.defaults.HomeTeam, Away: h.defaults.AwayTeam}.Label()
	for _, l := range labels {
		if l == configured {
			return l
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return configured
}

func (h *Handler) Inference(w http.ResponseWriter, r *http.Request) {
	minMinutes, err := h.minutesParam(r)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}

	var players, teams templates.Chart
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		fig, err := h.dash.PlayerChart(ctx, minMinutes)
		if err != nil {
			return err
		}
		players, err = chartData("players", fig)
		return err
	})
	g.Go(func() error {
		fig, err := h.dash.TeamChart(ctx)
		if err != nil {
			return err
		}
		teams, err = chartData("teams", fig)
		return err
	})
	if err := g.Wait(); err != nil {
		renderErrorPage(w, r, err)
		return
	}
	renderPage(w, r, templates.InferencePage(templates.InferencePageData{MinMinutes: minMinutes, Players: players, Teams: teams}))
}

func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	gw, err := h.gameweekParam(r.Context(), r)
	if err != nil {
		renderErrorPage(w, r, err)
		return
	}

	var pitch, value templates.Chart
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		fig, err := h.dash.SelectionChart(ctx, gw)
		if err != nil {
			return err
		}
		pitch, err = chartData("pitch", fig)
		return err
	})
	g.Go(func() error {
		fig, err := h.dash.ValueChart(ctx, gw)
		if err != nil {
			return err
		}
		value, err = chartData("value", fig)
		return err
	})
	if err := g.Wait(); err != nil {
		renderErrorPage(w, r, err)
		return
	}
	renderPage(w, r, templates.SelectionPage(templates.SelectionPageData{Gameweek: gw, Pitch: pitch, Value: value}))
}

// API

type gameweekResponse struct {
	Season   int `json:"season"`
	Gameweek int `json:"gameweek"`
}

type matchesResponse struct {
	Season   int     `json:"season"`
	Gameweek int     `json:"gameweek"`
	Matches  []Match `json:"matches"`
}

func (h *Handler) APIGameweek(w http.ResponseWriter, r *http.Request) {
	gw, err := h.dash.NextGameweek(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, gameweekResponse{Season: h.dash.Season(), Gameweek: gw})
}

func (h *Handler) APIMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gw, err := h.gameweekParam(ctx, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	matches, err := h.dash.NextMatches(ctx, gw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if matches == nil {
		matches = []Match{}
	}
	respondJSON(w, http.StatusOK, matchesResponse{Season: h.dash.Season(), Gameweek: gw, Matches: matches})
}

func (h *Handler) APITeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.dash.Teams(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if teams == nil {
		teams = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"teams": teams})
}

func (h *Handler) APIScorelineChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := scorelineFilter{Home: strings.TrimSpace(q.Get("home")), Away: strings.TrimSpace(q.Get("away"))}
	if err := checkFilter(&f); err != nil {
		respondError(w, r, err)
		return
	}
	fig, err := h.dash.ScorelineChart(r.Context(), f.Home, f.Away)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

func (h *Handler) APIPlayersChart(w http.ResponseWriter, r *http.Request) {
	minMinutes, err := h.minutesParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	fig, err := h.dash.PlayerChart(r.Context(), minMinutes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

func (h *Handler) APITeamsChart(w http.ResponseWriter, r *http.Request) {
	fig, err := h.dash.TeamChart(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

func (h *Handler) APISelectionChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gw, err := h.gameweekParam(ctx, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	fig, err := h.dash.SelectionChart(ctx, gw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

func (h *Handler) APIValueChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gw, err := h.gameweekParam(ctx, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	fig, err := h.dash.ValueChart(ctx, gw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
