package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lionel/config"
	"lionel/logging"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/lib/pq"
)

var ErrUnknownTable = errors.New("unknown table")

// seasonTables are the tables DeleteRows may touch. Table names cannot be bound as
// parameters, so anything else is refused.
var seasonTables = map[string]bool{
	"fixtures":         true,
	"scorelines":       true,
	"player_inference": true,
	"team_inference":   true,
	"selections":       true,
	"next_games":       true,
}

// DBManager runs raw SQL against the prediction store.
type DBManager struct {
	db     *sql.DB
	driver string
}

// OpenDB opens and pings the configured database.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*DBManager, error) {
	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}
	// every connection to :memory: is a separate database
	if cfg.Driver == "sqlite" && strings.Contains(cfg.Path, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", cfg.Driver, err)
	}
	logging.Info().Str("driver", cfg.Driver).Msg("database connected")

	m := &DBManager{db: db, driver: cfg.Driver}
	if cfg.CreateSchema {
		if err := m.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return m, nil
}

func (m *DBManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *DBManager) Close() error {
	return m.db.Close()
}

// Table is a result set with its column order preserved.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Query executes query and reads every row.
func (m *DBManager) Query(ctx context.Context, query string, args ...any) (*Table, error) {
	rows, err := m.db.QueryContext(ctx, m.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	t := &Table{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return t, nil
}

// DeleteRows removes every row of table belonging to season in one transaction.
func (m *DBManager) DeleteRows(ctx context.Context, table string, season int) (int64, error) {
	if !seasonTables[table] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, m.rebind("DELETE FROM "+table+" WHERE season = ?"), season)
	if err != nil {
		return 0, fmt.Errorf("deleting %s rows for season %d: %w", table, season, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete tx: %w", err)
	}
	return n, nil
}

// rebind turns ? placeholders into $1, $2... for postgres. Queries in this
// package never contain a literal question mark.
func (m *DBManager) rebind(query string) string {
	if m.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func (t *Table) value(row int, col string) (any, error) {
	i := t.Index(col)
	if i < 0 {
		return nil, fmt.Errorf("column %q not in result", col)
	}
	return t.Rows[row][i], nil
}

func (t *Table) Text(row int, col string) (string, error) {
	v, err := t.value(row, col)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func (t *Table) Float(row int, col string) (float64, error) {
	v, err := t.value(row, col)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseFloat(col, x)
	case []byte:
		return parseFloat(col, string(x))
	default:
		return 0, fmt.Errorf("column %q: cannot read %T as number", col, v)
	}
}

func parseFloat(col, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return f, nil
}

// Int reads a whole number. Fractional values are truncated.
func (t *Table) Int(row int, col string) (int, error) {
	f, err := t.Float(row, col)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time reads a timestamp stored natively or as text. Text without a zone is UTC.
// NULL reads as the zero time with ok false.
func (t *Table) Time(row int, col string) (ts time.Time, ok bool, err error) {
	v, err := t.value(row, col)
	if err != nil {
		return time.Time{}, false, err
	}
	var s string
	switch x := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return x, true, nil
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return time.Time{}, false, fmt.Errorf("column %q: cannot read %T as time", col, v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("column %q: unrecognised time %q", col, s)
}
