package db

import (
	"database/sql"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/csmol/thrivescraper/cfg"
)

var (
	initErr error
)

type Sqlite struct {
	Config *cfg.Config
	once   sync.Once
	db     *sql.DB
}

func NewSqlite(config *cfg.Config) (*Sqlite, error) {
	return &Sqlite{
		Config: config,
	}, nil
}

// DSN returns the driver connection string. A plain file path and a
// "file:" URI are both accepted as-is; the URI form enables in-memory
// shared-cache databases.
func (s *Sqlite) DSN() string {
	return s.Config.Sqlite.Database
}

// ReadOnly reports whether the store was opened read-only via the URI.
func (s *Sqlite) ReadOnly() bool {
	return strings.Contains(s.Config.Sqlite.Database, "mode=ro")
}

func (s *Sqlite) Db() (*sql.DB, error) {
	s.once.Do(func() {
		// Open connection
		var db *sql.DB
		db, initErr = sql.Open("sqlite", s.DSN())
		if initErr != nil {
			return
		}

		// A single connection so the session pragmas below apply to every
		// statement and the store has exactly one writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA temp_store = MEMORY",
			"PRAGMA mmap_size = 30000000000",
			"PRAGMA busy_timeout = 5000",
		}
		if !s.ReadOnly() {
			pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		}
		for _, pragma := range pragmas {
			if _, initErr = db.Exec(pragma); initErr != nil {
				db.Close()
				return
			}
		}

		s.db = db
	})
	return s.db, initErr
}

func (s *Sqlite) Ping() error {
	db, err := s.Db()
	if err != nil {
		return err
	}
	return db.Ping()
}

func (s *Sqlite) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
