package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

var ErrGameNotFound = errors.New("store: game not found")

// Summary aggregates the self-play batches found in a directory.
type Summary struct {
	Files         int     `json:"files"`
	Games         int64   `json:"games"`
	Plies         int64   `json:"plies"`
	WhiteWins     int64   `json:"white_wins"`
	BlackWins     int64   `json:"black_wins"`
	Draws         int64   `json:"draws"`
	AvgIterations float64 `json:"avg_iterations"`
}

type GameSummary struct {
	GameID        string  `json:"game_id"`
	Plies         int64   `json:"plies"`
	Winner        string  `json:"winner"`
	AvgIterations float64 `json:"avg_iterations"`
}

// Catalog queries the batch_*.parquet files of one directory through an
// in-memory DuckDB. Files added after Open are picked up by later queries.
type Catalog struct {
	dir string
	db  *sql.DB
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func OpenCatalog(dir string) (*Catalog, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	_, _ = db.Exec("PRAGMA threads=4")
	return &Catalog{dir: dir, db: db}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

func (c *Catalog) pattern() string {
	return filepath.Join(c.dir, "batch_*.parquet")
}

// files lists the finished batches; tmp/ holds only in-progress files and is
// outside the pattern.
func (c *Catalog) files() ([]string, error) {
	files, err := filepath.Glob(c.pattern())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", c.pattern(), err)
	}
	return files, nil
}

func (c *Catalog) source() string {
	return "read_parquet('" + escapeSQLString(c.pattern()) + "')"
}

func (c *Catalog) Summary(ctx context.Context) (Summary, error) {
	files, err := c.files()
	if err != nil || len(files) == 0 {
		return Summary{}, err
	}

	q := `
		WITH games AS (
			SELECT game_id,
			       any_value(winner) AS winner,
			       count(*) AS plies,
			       avg(iterations) AS iters
			FROM ` + c.source() + `
			GROUP BY game_id
		)
		SELECT count(*),
		       CAST(coalesce(sum(plies), 0) AS BIGINT),
		       count(*) FILTER (WHERE winner = 'white'),
		       count(*) FILTER (WHERE winner = 'black'),
		       count(*) FILTER (WHERE winner = 'draw'),
		       coalesce(avg(iters), 0)::DOUBLE
		FROM games`

	s := Summary{Files: len(files)}
	row := c.db.QueryRowContext(ctx, q)
	if err := row.Scan(&s.Games, &s.Plies, &s.WhiteWins, &s.BlackWins, &s.Draws, &s.AvgIterations); err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return s, nil
}

// Games lists games ordered by ID.
func (c *Catalog) Games(ctx context.Context, limit, offset int) ([]GameSummary, error) {
	files, err := c.files()
	if err != nil || len(files) == 0 {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT game_id, count(*), any_value(winner), avg(iterations)::DOUBLE
		FROM ` + c.source() + `
		GROUP BY game_id
		ORDER BY game_id
		LIMIT ? OFFSET ?`
	rows, err := c.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.GameID, &g.Plies, &g.Winner, &g.AvgIterations); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Moves returns the plies of one game in order.
func (c *Catalog) Moves(ctx context.Context, gameID string) ([]MoveRow, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	q := `
		SELECT ply, side, "row", col, board, iterations, root_rate, fallback, value, winner, source
		FROM ` + c.source() + `
		WHERE game_id = ?
		ORDER BY ply`
	rows, err := c.db.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var out []MoveRow
	for rows.Next() {
		m := MoveRow{GameID: gameID}
		if err := rows.Scan(&m.Ply, &m.Side, &m.Row, &m.Col, &m.Board, &m.Iterations, &m.RootRate, &m.Fallback, &m.Value, &m.Winner, &m.Source); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return out, nil
}

// Summarize is a one-shot Catalog.Summary. A directory without batches yields
// a zero Summary.
func Summarize(ctx context.Context, dir string) (Summary, error) {
	c, err := OpenCatalog(dir)
	if err != nil {
		return Summary{}, err
	}
	defer c.Close()
	return c.Summary(ctx)
}
