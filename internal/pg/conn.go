package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Dialect отличает Postgres от SQLite там, где расходится SQL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Placeholder возвращает n-й (с 1) параметр запроса.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

type DB struct {
	*sql.DB

	Dialect Dialect
}

func Open(ctx context.Context, url string) (*DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := ping(ctx, db); err != nil {
		return nil, err
	}
	return &DB{DB: db, Dialect: DialectPostgres}, nil
}

// OpenSQLite открывает файл (или ":memory:") через modernc.org/sqlite.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// одно соединение: иначе у ":memory:" у каждого своя база
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "pragma foreign_keys = on"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: DialectSQLite}, nil
}

// OpenURL выбирает драйвер по схеме: sqlite://path или postgres://...
func OpenURL(ctx context.Context, url string) (*DB, error) {
	if path, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return OpenSQLite(ctx, path)
	}
	return Open(ctx, url)
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	return nil
}
