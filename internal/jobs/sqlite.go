package jobs

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"opsdash/internal/calendar"
	"opsdash/internal/model"
)

// SQLiteSource reads jobs from a jobs table. The engine never writes to it.
//
// Expected columns: id, client_id (nullable), title, date (YYYY-MM-DD),
// start_time and end_time (HH:mm), amount (nullable), completed (0/1),
// client_name (nullable).
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens the database at path read-only.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening job database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening job database: %w", err)
	}
	return NewSQLiteSource(db), nil
}

// NewSQLiteSource wraps an already open database. Close closes db.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

func (s *SQLiteSource) ID() string { return "sqlite" }

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Fetch(ctx context.Context, p calendar.Period) ([]model.Job, error) {
	query := `SELECT id, client_id, title, date, start_time, end_time, amount, completed, client_name
		FROM jobs
		WHERE date >= ? AND date < ?
		ORDER BY date, start_time`
	rows, err := s.db.QueryContext(ctx, query, p.From.String(), p.To.String())
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		var (
			j                    model.Job
			clientID, clientName sql.NullString
			amount               sql.NullFloat64
			date                 string
		)
		if err := rows.Scan(&j.ID, &clientID, &j.Title, &date, &j.Start, &j.End, &amount, &j.Completed, &clientName); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		d, err := calendar.Parse(date)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		j.Date = d
		j.ClientID = clientID.String
		j.ClientName = clientName.String
		// A missing amount counts as zero.
		j.Amount = amount.Float64
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return out, nil
}
