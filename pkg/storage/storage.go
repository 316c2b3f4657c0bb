// Package storage is the sqlite reconciliation store for harvested
// activities and their SDG impact classifications.
package storage

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id         INTEGER PRIMARY KEY,
  username   TEXT NOT NULL UNIQUE,
  full_name  TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sdg_goals (
  number     INTEGER PRIMARY KEY CHECK (number BETWEEN 1 AND 17),
  name       TEXT NOT NULL,
  color_code TEXT
);
CREATE TABLE IF NOT EXISTS activities (
  id                        INTEGER PRIMARY KEY,
  title                     TEXT NOT NULL,
  description               TEXT NOT NULL,
  activity_type             TEXT NOT NULL CHECK (activity_type IN ('Project','Publication','Research')),
  status                    TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active','Completed','Published')),
  authors                   TEXT,
  lead_author_id            INTEGER REFERENCES users(id),
  original_publication_date TEXT,
  is_scraped                INTEGER NOT NULL DEFAULT 0 CHECK (is_scraped IN (0,1)),
  ai_classified             INTEGER NOT NULL DEFAULT 0 CHECK (ai_classified IN (0,1)),
  external_url              TEXT UNIQUE,
  created_at                DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at                DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(activity_type);
CREATE INDEX IF NOT EXISTS idx_activities_classified ON activities(ai_classified);
CREATE TABLE IF NOT EXISTS sdg_impacts (
  id            INTEGER PRIMARY KEY,
  activity_id   INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  sdg_number    INTEGER NOT NULL CHECK (sdg_number BETWEEN 1 AND 17),
  score         INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
  justification TEXT NOT NULL,
  created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(activity_id, sdg_number)
);
CREATE INDEX IF NOT EXISTS idx_impacts_sdg ON sdg_impacts(sdg_number);
    `); err != nil {
		return nil, err
	}
	out := &DB{sql: db}
	if err := out.seedSDGGoals(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
