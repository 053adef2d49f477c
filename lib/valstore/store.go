// Package valstore keeps a history of completed valuations so
// operators can audit what the pipeline returned over time. The core
// pipeline stays stateless, recording happens after the fact and a
// write failure never fails an evaluation.
package valstore

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens the database at path (":memory:" works) and applies the
// schema.
func Open(driver, path string) (Store, error) {
	database, err := sql.Open(driver, path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

type Entry struct {
	RefNumber        string
	TargetPrice      int64
	MarketAverage    int64
	MinPrice         int64
	MaxPrice         int64
	SpreadPercentage float64
	Confidence       string
	Duration         time.Duration
	CreatedAt        time.Time
}

func (s Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO valuations (
			ref_number, target_price, market_average, min_price, max_price,
			spread_percentage, confidence, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RefNumber,
		e.TargetPrice,
		e.MarketAverage,
		e.MinPrice,
		e.MaxPrice,
		e.SpreadPercentage,
		e.Confidence,
		e.Duration.Milliseconds(),
		e.CreatedAt.Unix(),
	)
	return err
}

// Recent returns the latest entries, newest first.
func (s Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ref_number, target_price, market_average, min_price, max_price,
			spread_percentage, confidence, duration_ms, created_at
		FROM valuations
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs, createdAt int64
		err := rows.Scan(
			&e.RefNumber,
			&e.TargetPrice,
			&e.MarketAverage,
			&e.MinPrice,
			&e.MaxPrice,
			&e.SpreadPercentage,
			&e.Confidence,
			&durationMs,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
