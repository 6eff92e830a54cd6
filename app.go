package main

import (
	"context"
	"fmt"
	"time"

	"lionel/config"
	"lionel/plots"
)

// Dashboard turns stored model output into chart figures.
type Dashboard struct {
	db     *DBManager
	cache  Cache
	season int
	now    func() time.Time
}

func NewDashboard(db *DBManager, cache Cache, cfg *config.Config) *Dashboard {
	if cache == nil {
		cache = noCache{}
	}
	return &Dashboard{
		db:     db,
		cache:  cache,
		season: cfg.Season,
		now:    time.Now,
	}
}

// Season is the season code every fixture query is scoped to.
func (d *Dashboard) Season() int {
	return d.season
}

// NextGameweek resolves the upcoming gameweek for today's date.
func (d *Dashboard) NextGameweek(ctx context.Context) (int, error) {
	today := d.now()
	key := fmt.Sprintf("gameweek:%d:%s", d.season, today.Format(time.DateOnly))
	return cached(ctx, d.cache, key, func(ctx context.Context) (int, error) {
		return d.db.NextGameweek(ctx, d.season, today)
	})
}

func (d *Dashboard) NextMatches(ctx context.Context, gameweek int) ([]Match, error) {
	key := fmt.Sprintf("matches:%d:%d", d.season, gameweek)
	return cached(ctx, d.cache, key, func(ctx context.Context) ([]Match, error) {
		return d.db.NextMatches(ctx, d.season, gameweek)
	})
}

// UpcomingMatches lists the fixtures of the next gameweek.
func (d *Dashboard) UpcomingMatches(ctx context.Context) (int, []Match, error) {
	gw, err := d.NextGameweek(ctx)
	if err != nil {
		return 0, nil, err
	}
	matches, err := d.NextMatches(ctx, gw)
	if err != nil {
		return 0, nil, err
	}
	return gw, matches, nil
}

func (d *Dashboard) Teams(ctx context.Context) ([]string, error) {
	return cached(ctx, d.cache, "teams", d.db.ScorelineTeams)
}

func (d *Dashboard) ScorelineChart(ctx context.Context, home, away string) (*plots.Figure, error) {
	samples, err := cached(ctx, d.cache, scorelineKey(home, away), func(ctx context.Context) ([]plots.ScorelineSample, error) {
		return d.db.ScorelineSamples(ctx, home, away)
	})
	if err != nil {
		return nil, err
	}
	chartBuilds.WithLabelValues("scoreline").Inc()
	return plots.Scoreline(samples, home, away), nil
}

// scorelineKey quotes the names so no pair of team names shares a key.
func scorelineKey(home, away string) string {
	return fmt.Sprintf("scorelines:%q:%q", home, away)
}

func (d *Dashboard) PlayerChart(ctx context.Context, minMinutes int) (*plots.Figure, error) {
	rows, err := cached(ctx, d.cache, "player_inference", d.db.PlayerInferenceRows)
	if err != nil {
		return nil, err
	}
	chartBuilds.WithLabelValues("players").Inc()
	return plots.PlayerInferenceFigure(rows, minMinutes), nil
}

func (d *Dashboard) TeamChart(ctx context.Context) (*plots.Figure, error) {
	rows, err := cached(ctx, d.cache, "team_inference", d.db.TeamInferenceRows)
	if err != nil {
		return nil, err
	}
	chartBuilds.WithLabelValues("teams").Inc()
	return plots.TeamInferenceFigure(rows), nil
}

func (d *Dashboard) selection(ctx context.Context, gameweek int) ([]plots.SquadPlayer, error) {
	key := fmt.Sprintf("selection:%d:%d", d.season, gameweek)
	return cached(ctx, d.cache, key, func(ctx context.Context) ([]plots.SquadPlayer, error) {
		return d.db.LatestSelection(ctx, d.season, gameweek)
	})
}

func (d *Dashboard) SelectionChart(ctx context.Context, gameweek int) (*plots.Figure, error) {
	players, err := d.selection(ctx, gameweek)
	if err != nil {
		return nil, err
	}
	fig, err := plots.SquadPitch(players)
	if err != nil {
		return nil, fmt.Errorf("gameweek %d squad: %w", gameweek, err)
	}
	chartBuilds.WithLabelValues("selection").Inc()
	return fig, nil
}

func (d *Dashboard) ValueChart(ctx context.Context, gameweek int) (*plots.Figure, error) {
	players, err := d.selection(ctx, gameweek)
	if err != nil {
		return nil, err
	}
	chartBuilds.WithLabelValues("value").Inc()
	return plots.SquadValue(players), nil
}
