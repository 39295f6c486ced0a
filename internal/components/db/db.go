package db

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func isRemote(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://")
}

// Open opens a local sqlite file (or ":memory:") or a remote libsql
// database and applies the schema.
func Open(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}

	var db *sqlx.DB
	var err error
	if isRemote(dsn) {
		db, err = sqlx.Open("libsql", dsn)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	} else {
		if dsn != ":memory:" {
			err = os.MkdirAll(filepath.Dir(dsn), 0777)
			if err != nil {
				return nil, wrapOpenDB(err)
			}
		}
		db, err = sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		// sqlite only allows a single writer
		db.SetMaxOpenConns(1)
		if dsn != ":memory:" {
			_, err = db.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, wrapOpenDB(err)
			}
		}
		_, err = db.Exec("PRAGMA foreign_keys=ON")
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
