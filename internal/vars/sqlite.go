package vars

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps variables in a SQLite database. Like FileStore, changes
// are only written by Save.
type SQLiteStore struct {
	*MemoryStore
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens the database at path, migrates it and loads all variables.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	values, err := loadVariables(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{MemoryStore: NewMemoryStore(values), db: db, path: path}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func loadVariables(db *sql.DB) (map[string]any, error) {
	rows, err := db.Query("SELECT name, value FROM variables")
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	values := map[string]any{}
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		if value.Valid {
			values[name] = value.String
		} else {
			values[name] = nil
		}
	}
	return values, rows.Err()
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Save upserts every variable in one transaction.
func (s *SQLiteStore) Save() error {
	snapshot := s.Snapshot()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO variables (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for name, value := range snapshot {
		var v sql.NullString
		if value != nil {
			v = sql.NullString{String: *value, Valid: true}
		}
		if _, err := stmt.Exec(name, v); err != nil {
			return fmt.Errorf("save %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
