package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// Store hands out one connection per query and returns it when the query is done.
type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore wraps an already opened handle, e.g. an in-memory fixture.
func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// Open connects to the pre-populated climate database. SQLite files are opened read-only.
func Open(ctx context.Context, dialect, source string, maxOpenConns int) (*Store, error) {
	if source == "" {
		return nil, errors.New("database name cannot be empty")
	}

	var dsn string
	switch dialect {
	case DialectSQLite:
		dsn = sqliteDSN(source)
	case DialectPostgres:
		dsn = source
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return NewStore(db, dialect), nil
}

func sqliteDSN(source string) string {
	if strings.HasPrefix(source, "file:") {
		sep := "?"
		if strings.Contains(source, "?") {
			sep = "&"
		}
		return source + sep + "mode=ro"
	}
	return "file:" + source + "?mode=ro"
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping runs a trivial query on a scoped connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		var ok int
		if err := conn.QueryRowContext(ctx, pingSQL).Scan(&ok); err != nil {
			return err
		}
		if ok != 1 {
			return errors.New("database connection failed")
		}
		return nil
	})
}

// withConn acquires a connection, runs fn and releases the connection on every path.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("release connection: %w", closeErr)
		}
	}()

	return fn(conn)
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
