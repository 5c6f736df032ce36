package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"mangaworker/internal/scraper"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
)

// TableManga is the logical collection the loader fills and the validator
// counts.
const TableManga = "manga"

// Store loads scraped records into the relational store the downstream
// cleaning and loading stage reads from. The source URL is the natural key:
// re-loading a run replaces rows instead of duplicating them.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, pkgerrors.NewStore("open", fmt.Sprintf("failed to open database at %s", path), err)
	}

	store := &Store{db: db, log: logger.ForStore()}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, pkgerrors.NewStore("schema", "failed to initialize schema", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS manga (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		year TEXT,
		rating TEXT,
		cover_url TEXT,
		scraped_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load writes all records in one transaction and returns the number of
// rows written.
func (s *Store) Load(records []scraper.Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, pkgerrors.NewStore("load", "failed to begin transaction", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO manga
		(url, title, description, year, rating, cover_url, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, pkgerrors.NewStore("load", "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.SourceURL, r.Title, r.Description, r.Year, r.Rating, r.CoverURL, r.ScrapedAt); err != nil {
			tx.Rollback()
			return 0, pkgerrors.NewStore("load", fmt.Sprintf("failed to insert %s", r.SourceURL), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, pkgerrors.NewStore("load", "failed to commit", err)
	}

	s.log.Info().Int("rows", len(records)).Msg("Records loaded into store")
	return len(records), nil
}

// Tables lists the user tables present in the database.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, pkgerrors.NewStore("tables", "failed to list tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, pkgerrors.NewStore("tables", "failed to scan table name", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Count returns the row count of one table.
func (s *Store) Count(table string) (int, error) {
	// Table names come from sqlite_master, not user input.
	var count int
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&count)
	if err != nil {
		return 0, pkgerrors.NewStore("count", fmt.Sprintf("failed to count %s", table), err)
	}
	return count, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
