// Package store locates and opens the macOS Messages database.
//
// The database is consumed, never owned: every open is strictly read-only and
// short-lived. Query code acquires a connection per operation and closes it
// before returning, so concurrent readers never contend for a write lock.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// defaultDBRelativePath is where Messages keeps its database under the user's
// home directory.
const defaultDBRelativePath = "Library/Messages/chat.db"

// Store knows where the Messages database lives. It holds no connection;
// OpenReadOnly hands out a fresh one per logical operation.
type Store struct {
	path string
}

// New returns a Store for the given database path. An empty path resolves to
// the default location under the user's home directory.
func New(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, eris.Wrap(err, "resolve home directory")
		}
		path = filepath.Join(home, defaultDBRelativePath)
	}
	return &Store{path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// OpenReadOnly opens a new read-only connection to the database. The caller
// owns the connection and must close it on every exit path.
func (s *Store) OpenReadOnly() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", escapeDSNPath(s.path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open message store")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, wrapOpenError(s.path, err)
	}
	return db, nil
}

// wrapOpenError classifies a failed connection probe into the error taxonomy.
func wrapOpenError(path string, err error) error {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return eris.Wrap(ErrStoreNotFound, "no database at "+path)
	}
	if os.IsPermission(err) {
		return eris.Wrap(ErrPermissionDenied, "cannot open "+path)
	}
	return eris.Wrapf(ErrPermissionDenied, "cannot open %s: %v", path, err)
}

// escapeDSNPath makes a filesystem path safe for a file: DSN. Spaces are
// common in macOS home directories.
func escapeDSNPath(path string) string {
	return strings.ReplaceAll(path, " ", "%20")
}
