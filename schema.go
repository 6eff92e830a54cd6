package main

import (
	"context"
	"fmt"
)

// schema mirrors the tables the model pipeline writes. The pipeline owns the real
// schema; this copy only bootstraps local SQLite files and tests.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		season       INTEGER NOT NULL,
		gameweek     INTEGER,
		home_id      INTEGER NOT NULL REFERENCES teams(id),
		away_id      INTEGER NOT NULL REFERENCES teams(id),
		kickoff_time TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS scorelines (
		season     INTEGER,
		gameweek   INTEGER,
		home       TEXT NOT NULL,
		away       TEXT NOT NULL,
		home_goals INTEGER NOT NULL,
		away_goals INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS player_inference (
		season       INTEGER,
		player_name  TEXT NOT NULL,
		team_name    TEXT,
		position     TEXT NOT NULL,
		goals_scored REAL,
		assists      REAL,
		mean_minutes REAL
	);`,
	`CREATE TABLE IF NOT EXISTS team_inference (
		season    INTEGER,
		team_name TEXT NOT NULL,
		attack    REAL,
		defence   REAL
	);`,
	`CREATE TABLE IF NOT EXISTS selections (
		season           INTEGER,
		gameweek         INTEGER NOT NULL,
		player           TEXT NOT NULL,
		team_name        TEXT,
		position         TEXT,
		picked           INTEGER NOT NULL DEFAULT 0,
		first_xi         INTEGER NOT NULL DEFAULT 0,
		mean_points_pred REAL,
		value            REAL,
		created_at       TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS next_games (
		season       INTEGER,
		gameweek     INTEGER,
		home         TEXT,
		away         TEXT,
		kickoff_time TEXT
	);`,
}

// EnsureSchema creates any missing table. SQLite only.
func (m *DBManager) EnsureSchema(ctx context.Context) error {
	if m.driver != "sqlite" {
		return fmt.Errorf("schema bootstrap is only supported for sqlite, not %s", m.driver)
	}
	for _, q := range schema {
		if _, err := m.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
