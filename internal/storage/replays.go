package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/stage2048/internal/replay"
)

// SaveReplay stores a replay record. An empty ID is assigned a new UUID.
// Returns the record ID.
func (s *Store) SaveReplay(rec replay.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rules, err := json.Marshal(rec.Rules)
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode replay rules: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO replays (id, seed, moves, rules, final_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Seed, rec.Moves, string(rules), rec.FinalTotal,
		rec.CreatedAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save replay: %w", err)
	}
	return rec.ID, nil
}

// LoadReplay returns the replay with the given ID.
func (s *Store) LoadReplay(id string) (replay.Record, error) {
	row := s.db.QueryRow(
		`SELECT id, seed, moves, rules, final_total, created_at
		 FROM replays WHERE id = ?`,
		id,
	)
	rec, err := scanReplay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return replay.Record{}, fmt.Errorf("%w: replay %q", ErrNotFound, id)
	}
	if err != nil {
		return replay.Record{}, fmt.Errorf("storage: cannot load replay: %w", err)
	}
	return rec, nil
}

// ListReplays returns the most recent replays.
func (s *Store) ListReplays(limit int) ([]replay.Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, seed, moves, rules, final_total, created_at
		 FROM replays
		 ORDER BY created_at DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replays: %w", err)
	}
	defer rows.Close()

	var recs []replay.Record
	for rows.Next() {
		rec, err := scanReplay(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReplay(sc scanner) (replay.Record, error) {
	var rec replay.Record
	var rules string
	var createdAt any
	if err := sc.Scan(&rec.ID, &rec.Seed, &rec.Moves, &rules, &rec.FinalTotal, &createdAt); err != nil {
		return replay.Record{}, err
	}
	if err := json.Unmarshal([]byte(rules), &rec.Rules); err != nil {
		return replay.Record{}, fmt.Errorf("decode rules: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}
