// Package store persists the two pieces of engine state that survive
// restarts: the schedule and the next-id counter. The engine sees only
// Load and Save; SQLite is an implementation detail.
package store

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"weekplan/internal/model"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for an
// in-memory database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		day          TEXT    NOT NULL,
		position     INTEGER NOT NULL,
		id           INTEGER NOT NULL,
		title        TEXT    NOT NULL,
		time         TEXT    NOT NULL DEFAULT '',
		due_date     TEXT    NOT NULL DEFAULT '',
		priority     TEXT    NOT NULL,
		completed    INTEGER NOT NULL DEFAULT 0,
		source       TEXT    NOT NULL DEFAULT '',
		feed_uid     TEXT    NOT NULL DEFAULT '',
		feed_url     TEXT    NOT NULL DEFAULT '',
		repeat_group TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (day, position)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_due_date ON items(due_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the persisted schedule and its next-id counter. A fresh
// database yields an empty schedule and a counter of 1.
func (s *Store) Load() (model.Schedule, int, error) {
	sched := model.NewSchedule()

	rows, err := s.db.Query(`
		SELECT day, id, title, time, due_date, priority, completed,
		       source, feed_uid, feed_url, repeat_group
		FROM items ORDER BY day, position`)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var item model.ScheduleItem
		var completed int
		var priority, source string
		if err := rows.Scan(&day, &item.ID, &item.Title, &item.Time, &item.DueDate,
			&priority, &completed, &source, &item.FeedUID, &item.FeedURL, &item.RepeatGroup); err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		item.Priority = model.Priority(priority)
		item.Source = model.Source(source)
		item.Completed = completed != 0
		sched[day] = append(sched[day], item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	nextID, err := s.loadNextID()
	if err != nil {
		return nil, 0, err
	}
	return sched, nextID, nil
}

func (s *Store) loadNextID() (int, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load next id: %w", err)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 1, nil
	}
	return n, nil
}

// Save replaces the persisted state wholesale inside one transaction,
// which gives callers the replace-whole-store swap semantics the sync
// loop relies on.
func (s *Store) Save(sched model.Schedule, nextID int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}

	insert, err := tx.Prepare(`
		INSERT INTO items (day, position, id, title, time, due_date, priority,
		                   completed, source, feed_uid, feed_url, repeat_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, day := range model.Days {
		for pos, item := range sched[day] {
			completed := 0
			if item.Completed {
				completed = 1
			}
			if _, err := insert.Exec(day, pos, item.ID, item.Title, item.Time,
				item.DueDate, string(item.Priority), completed, string(item.Source),
				item.FeedUID, item.FeedURL, item.RepeatGroup); err != nil {
				return fmt.Errorf("insert item %d: %w", item.ID, err)
			}
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('next_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(nextID)); err != nil {
		return fmt.Errorf("save next id: %w", err)
	}

	return tx.Commit()
}
