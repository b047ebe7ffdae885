// Package store keeps elements, their dependencies and tags in a single
// SQLite database.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"relink/field"
	"relink/model"
)

//go:embed schema.sql
var bootstrap string

// Memory is path of the in-memory database.
const Memory = ":memory:"

// RootID is id of the root element of every type.
const RootID = 1

var (
	// ErrRequired is returned when element to be deleted is still used.
	ErrRequired = errors.New("element is required by other elements")
	// ErrExists is returned when path is already taken.
	ErrExists = errors.New("element already exists")
	// ErrTagNotFound is returned (wrapped) for missing tags.
	ErrTagNotFound = errors.New("tag not found")
)

// Store serializes all access to its connection, blocking operations use
// context as connection interrupt.
type Store struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	walker *model.Walker
	log    *zap.Logger
	now    func() time.Time
}

// Open opens (creating if necessary) database at path and makes sure all
// tables and root elements are there.
func Open(path string, schema *field.Schema, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("store")

	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if len(path) == 0 || path == Memory {
		path = Memory
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	}

	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open store '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, bootstrap, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to bootstrap store '%s': %w", path, err)
	}

	log.Debug("Store opened", zap.String("path", path))
	return &Store{
		conn:   conn,
		walker: model.NewWalker(schema, log),
		log:    log,
		now:    time.Now,
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Walker returns walker used to compute dependencies of saved elements.
func (s *Store) Walker() *model.Walker {
	return s.walker
}

// lock takes connection for the duration of a single operation.
func (s *Store) lock(ctx context.Context) func() {
	s.mu.Lock()
	s.conn.SetInterrupt(ctx.Done())
	return func() {
		s.conn.SetInterrupt(nil)
		s.mu.Unlock()
	}
}

func (s *Store) exec(query string, result func(stmt *sqlite.Stmt) error, args ...any) error {
	return sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{Args: args, ResultFunc: result})
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
