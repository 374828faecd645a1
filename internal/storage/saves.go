package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveInfo describes a saved game without its state.
type SaveInfo struct {
	ID        string
	Name      string
	Level     int
	Total     int
	Size      int // compressed state size in bytes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveGame stores a serialized level manager under name, replacing any
// save with the same name. Returns the save ID, which is kept on overwrite.
func (s *Store) SaveGame(name string, state []byte, level, total int) (string, error) {
	if name == "" {
		return "", errors.New("storage: save name is empty")
	}
	blob := s.enc.EncodeAll(state, nil)

	var id string
	err := s.db.QueryRow(
		`INSERT INTO saves (id, name, state, level, total)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   state = excluded.state,
		   level = excluded.level,
		   total = excluded.total,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		uuid.NewString(), name, blob, level, total,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save game: %w", err)
	}
	return id, nil
}

// LoadGame returns the decompressed state saved under name.
func (s *Store) LoadGame(name string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT state FROM saves WHERE name = ?", name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: save %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load game: %w", err)
	}

	state, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decompress save %q: %w", name, err)
	}
	return state, nil
}

// ListSaves returns all saves, most recently updated first.
func (s *Store) ListSaves() ([]SaveInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, name, level, total, length(state), created_at, updated_at
		 FROM saves
		 ORDER BY updated_at DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query saves: %w", err)
	}
	defer rows.Close()

	var saves []SaveInfo
	for rows.Next() {
		var si SaveInfo
		var createdAt, updatedAt any
		if err := rows.Scan(&si.ID, &si.Name, &si.Level, &si.Total, &si.Size, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		si.CreatedAt = parseTime(createdAt)
		si.UpdatedAt = parseTime(updatedAt)
		saves = append(saves, si)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return saves, nil
}

// DeleteSave removes the save with the given name.
func (s *Store) DeleteSave(name string) error {
	res, err := s.db.Exec("DELETE FROM saves WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("storage: cannot delete save: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: save %q", ErrNotFound, name)
	}
	return nil
}
