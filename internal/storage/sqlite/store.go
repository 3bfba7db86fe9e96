// Package sqlite persists finished race classifications and derives the
// championship standings.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	server "drift-and-draft/server"
)

// Store keeps race records in a single SQLite file.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the store and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS races (
		   id TEXT PRIMARY KEY,
		   track_id TEXT NOT NULL,
		   track_name TEXT NOT NULL,
		   laps INTEGER NOT NULL,
		   weather TEXT NOT NULL,
		   seed TEXT NOT NULL,
		   started_at INTEGER NOT NULL,
		   finished_at INTEGER NOT NULL
		 )`,
		`CREATE TABLE IF NOT EXISTS race_results (
		   race_id TEXT NOT NULL REFERENCES races(id) ON DELETE CASCADE,
		   position INTEGER NOT NULL,
		   car_id TEXT NOT NULL,
		   driver TEXT NOT NULL,
		   car_name TEXT NOT NULL,
		   laps INTEGER NOT NULL,
		   total_seconds REAL NOT NULL,
		   best_lap REAL NOT NULL,
		   fastest_lap INTEGER NOT NULL,
		   points INTEGER NOT NULL,
		   PRIMARY KEY (race_id, position)
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_race_results_driver ON race_results(driver)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveResult inserts one finished race and its classification rows in a
// single transaction.
func (s *Store) SaveResult(ctx context.Context, result *server.RaceResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if result == nil {
		return fmt.Errorf("result is required")
	}
	if strings.TrimSpace(result.RaceID) == "" {
		return fmt.Errorf("race id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO races (id, track_id, track_name, laps, weather, seed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RaceID,
		result.TrackID,
		result.TrackName,
		result.Laps,
		string(result.Weather),
		result.Seed,
		toMillis(result.StartedAt),
		toMillis(result.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert race: %w", err)
	}

	for _, row := range result.Results {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO race_results (race_id, position, car_id, driver, car_name, laps,
			   total_seconds, best_lap, fastest_lap, points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RaceID,
			row.Position,
			row.CarID,
			row.Driver,
			row.CarName,
			row.Laps,
			row.TotalSeconds,
			row.BestLap,
			boolToInt(row.FastestLap),
			row.Points,
		)
		if err != nil {
			return fmt.Errorf("insert classification row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentResults returns up to limit persisted races, newest first, with
// their classification rows attached.
func (s *Store) RecentResults(ctx context.Context, limit int) ([]server.RaceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, track_id, track_name, laps, weather, seed, started_at, finished_at
		 FROM races ORDER BY finished_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query races: %w", err)
	}
	defer rows.Close()

	results := make([]server.RaceResult, 0, limit)
	for rows.Next() {
		var race server.RaceResult
		var weather string
		var startedAt, finishedAt int64
		if err := rows.Scan(&race.RaceID, &race.TrackID, &race.TrackName, &race.Laps,
			&weather, &race.Seed, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		race.Weather = server.Weather(weather)
		race.StartedAt = fromMillis(startedAt)
		race.FinishedAt = fromMillis(finishedAt)
		results = append(results, race)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate races: %w", err)
	}

	for i := range results {
		classification, err := s.classificationRows(ctx, results[i].RaceID)
		if err != nil {
			return nil, err
		}
		results[i].Results = classification
	}
	return results, nil
}

func (s *Store) classificationRows(ctx context.Context, raceID string) ([]server.DriverResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT position, car_id, driver, car_name, laps, total_seconds, best_lap, fastest_lap, points
		 FROM race_results WHERE race_id = ? ORDER BY position ASC`,
		raceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query classification: %w", err)
	}
	defer rows.Close()

	classification := make([]server.DriverResult, 0, 5)
	for rows.Next() {
		var row server.DriverResult
		var fastest int
		if err := rows.Scan(&row.Position, &row.CarID, &row.Driver, &row.CarName, &row.Laps,
			&row.TotalSeconds, &row.BestLap, &fastest, &row.Points); err != nil {
			return nil, fmt.Errorf("scan classification row: %w", err)
		}
		row.FastestLap = fastest != 0
		classification = append(classification, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification: %w", err)
	}
	return classification, nil
}

// Standings derives the championship table across every persisted race,
// ordered by points, then wins, then name.
func (s *Store) Standings(ctx context.Context) ([]server.StandingRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT driver,
		        COUNT(*),
		        COALESCE(SUM(points), 0),
		        COALESCE(SUM(CASE WHEN position = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN position <= 3 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(fastest_lap), 0),
		        COALESCE(MIN(CASE WHEN best_lap > 0 THEN best_lap END), 0)
		 FROM race_results
		 GROUP BY driver
		 ORDER BY 3 DESC, 4 DESC, driver ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	standings := make([]server.StandingRow, 0, 5)
	for rows.Next() {
		var row server.StandingRow
		if err := rows.Scan(&row.Driver, &row.Races, &row.Points, &row.Wins,
			&row.Podiums, &row.FastestLaps, &row.BestLap); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}
	return standings, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
