// Package inmemdb provides map-backed repositories used by tests and local
// hacking. It mirrors the sqlx repositories' semantics, not their SQL.
package inmemdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
)

type (
	DB struct {
		users         *table[user.User]
		courses       *table[course.Course]
		enrollments   *table[course.Enrollment]
		events        *table[event.Event]
		notifications *table[notification.Notification]
	}

	table[T any] struct {
		t      map[int]*T
		nextID int
		mutex  sync.RWMutex
	}
)

var _ core.DB = (*DB)(nil)

func Open() *DB {
	return &DB{
		users:         newTable[user.User](),
		courses:       newTable[course.Course](),
		enrollments:   newTable[course.Enrollment](),
		events:        newTable[event.Event](),
		notifications: newTable[notification.Notification](),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{t: make(map[int]*T)}
}

// core.DB compliance. The repositories never touch SQL; these exist so the
// services' transaction plumbing works unchanged against this store.

func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (db *DB) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return nil
}
func (db *DB) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return nil
}

func (db *DB) BeginTxx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{db}, nil
}

type noopTx struct{ *DB }

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
