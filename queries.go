package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"lionel/plots"
)

// Match is one fixture of a gameweek by team name.
type Match struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Label is the "Home vs Away" text used by the match selector.
func (m Match) Label() string {
	return m.Home + " vs " + m.Away
}

// timedQuery runs query and records its duration under name.
func (m *DBManager) timedQuery(ctx context.Context, name, query string, args ...any) (t *Table, err error) {
	defer func(start time.Time) { observeQuery(name, start, err) }(time.Now())
	t, err = m.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// rowScanner collects the first column error so row conversions read linearly.
type rowScanner struct {
	t   *Table
	row int
	err error
}

func (s *rowScanner) text(col string) string {
	if s.err != nil {
		return ""
	}
	v, err := s.t.Text(s.row, col)
	s.err = err
	return v
}

func (s *rowScanner) float(col string) float64 {
	if s.err != nil {
		return 0
	}
	v, err := s.t.Float(s.row, col)
	s.err = err
	return v
}

func (s *rowScanner) integer(col string) int {
	if s.err != nil {
		return 0
	}
	v, err := s.t.Int(s.row, col)
	s.err = err
	return v
}

// timestamp reads col, leaving NULL as the zero time.
func (s *rowScanner) timestamp(col string) time.Time {
	if s.err != nil {
		return time.Time{}
	}
	v, _, err := s.t.Time(s.row, col)
	s.err = err
	return v
}

// scanRows converts every row with fn, stopping at the first bad value.
func scanRows[T any](name string, t *Table, fn func(s *rowScanner) T) ([]T, error) {
	out := make([]T, 0, len(t.Rows))
	for i := range t.Rows {
		s := &rowScanner{t: t, row: i}
		v := fn(s)
		if s.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i, s.err)
		}
		out = append(out, v)
	}
	return out, nil
}

const fixturesSQL = `
	SELECT season, gameweek, home_id, away_id, kickoff_time
	FROM fixtures
	WHERE season = ? AND gameweek IS NOT NULL
	ORDER BY gameweek, kickoff_time`

// LoadFixtures returns the season's fixtures that belong to a gameweek. Fixtures
// without a kickoff time keep a zero KickoffTime.
func (m *DBManager) LoadFixtures(ctx context.Context, season int) ([]Fixture, error) {
	t, err := m.timedQuery(ctx, "fixtures", fixturesSQL, season)
	if err != nil {
		return nil, err
	}
	return scanRows("fixtures", t, func(s *rowScanner) Fixture {
		return Fixture{
			Season:      s.integer("season"),
			Gameweek:    s.integer("gameweek"),
			HomeID:      s.integer("home_id"),
			AwayID:      s.integer("away_id"),
			KickoffTime: s.timestamp("kickoff_time"),
		}
	})
}

// NextGameweek resolves the upcoming gameweek of season as of today.
func (m *DBManager) NextGameweek(ctx context.Context, season int, today time.Time) (int, error) {
	fixtures, err := m.LoadFixtures(ctx, season)
	if err != nil {
		return 0, err
	}
	gw, err := ResolveNextGameweek(fixtures, today)
	if err != nil {
		return 0, fmt.Errorf("season %d: %w", season, err)
	}
	return gw, nil
}

const nextMatchesSQL = `
	SELECT home.name AS home, away.name AS away
	FROM fixtures
	INNER JOIN teams AS home ON fixtures.home_id = home.id
	INNER JOIN teams AS away ON fixtures.away_id = away.id
	WHERE fixtures.season = ? AND fixtures.gameweek = ?
	ORDER BY fixtures.kickoff_time, home.name`

func (m *DBManager) NextMatches(ctx context.Context, season, gameweek int) ([]Match, error) {
	t, err := m.timedQuery(ctx, "next_matches", nextMatchesSQL, season, gameweek)
	if err != nil {
		return nil, err
	}
	return scanRows("next_matches", t, func(s *rowScanner) Match {
		return Match{Home: s.text("home"), Away: s.text("away")}
	})
}

const scorelinesSQL = `
	SELECT home, away, home_goals, away_goals
	FROM scorelines
	WHERE home = ? AND away = ?`

// ScorelineSamples returns the posterior draws for one fixture. An unknown pair
// gives no rows.
func (m *DBManager) ScorelineSamples(ctx context.Context, home, away string) ([]plots.ScorelineSample, error) {
	t, err := m.timedQuery(ctx, "scorelines", scorelinesSQL, home, away)
	if err != nil {
		return nil, err
	}
	return scanRows("scorelines", t, func(s *rowScanner) plots.ScorelineSample {
		return plots.ScorelineSample{
			Home:      s.text("home"),
			Away:      s.text("away"),
			HomeGoals: s.integer("home_goals"),
			AwayGoals: s.integer("away_goals"),
		}
	})
}

const scorelineTeamsSQL = `SELECT DISTINCT home FROM scorelines ORDER BY home`

func (m *DBManager) ScorelineTeams(ctx context.Context) ([]string, error) {
	t, err := m.timedQuery(ctx, "scoreline_teams", scorelineTeamsSQL)
	if err != nil {
		return nil, err
	}
	return scanRows("scoreline_teams", t, func(s *rowScanner) string {
		return s.text("home")
	})
}

const playerInferenceSQL = `
	SELECT player_name, team_name, position, goals_scored, assists, mean_minutes
	FROM player_inference`

// PlayerInferenceRows reads the player table with mean minutes rounded to a whole
// number, ties to even.
func (m *DBManager) PlayerInferenceRows(ctx context.Context) ([]plots.PlayerInference, error) {
	t, err := m.timedQuery(ctx, "player_inference", playerInferenceSQL)
	if err != nil {
		return nil, err
	}
	return scanRows("player_inference", t, func(s *rowScanner) plots.PlayerInference {
		return plots.PlayerInference{
			Name:        s.text("player_name"),
			Team:        s.text("team_name"),
			Position:    s.text("position"),
			Goals:       s.float("goals_scored"),
			Assists:     s.float("assists"),
			MeanMinutes: math.RoundToEven(s.float("mean_minutes")),
		}
	})
}

const teamInferenceSQL = `SELECT team_name, attack, defence FROM team_inference ORDER BY team_name`

func (m *DBManager) TeamInferenceRows(ctx context.Context) ([]plots.TeamInference, error) {
	t, err := m.timedQuery(ctx, "team_inference", teamInferenceSQL)
	if err != nil {
		return nil, err
	}
	return scanRows("team_inference", t, func(s *rowScanner) plots.TeamInference {
		return plots.TeamInference{
			Team:    s.text("team_name"),
			Attack:  s.float("attack"),
			Defence: s.float("defence"),
		}
	})
}

const latestSelectionSQL = `
	SELECT player, team_name, position, picked, first_xi, mean_points_pred, value
	FROM selections
	WHERE season = ? AND gameweek = ?
	AND created_at = (
		SELECT MAX(created_at)
		FROM selections
		WHERE season = ? AND gameweek = ?
	)`

// LatestSelection returns the newest optimiser snapshot for gameweek of season.
func (m *DBManager) LatestSelection(ctx context.Context, season, gameweek int) ([]plots.SquadPlayer, error) {
	t, err := m.timedQuery(ctx, "latest_selection", latestSelectionSQL, season, gameweek, season, gameweek)
	if err != nil {
		return nil, err
	}
	return scanRows("latest_selection", t, func(s *rowScanner) plots.SquadPlayer {
		return plots.SquadPlayer{
			Player:     s.text("player"),
			Team:       s.text("team_name"),
			Position:   s.text("position"),
			Picked:     s.integer("picked") == 1,
			FirstXI:    s.integer("first_xi") == 1,
			MeanPoints: s.float("mean_points_pred"),
			Value:      s.float("value"),
		}
	})
}
