package sqlstore

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/MrEthical07/goAccount/store/sqlstore/migrations"
)

// Dialect selects the SQL flavour and its migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// maxClientAddressLength bounds um_login_record.ip.
const maxClientAddressLength = 45

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

var gooseUpContext = goose.UpContext

// Store is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to dsn with the driver registered for dialect.
//
// SQLite connections are limited to one so that ":memory:" databases are
// shared by every query.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	driver, err := driverName(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("dialect", string(dialect)).Wrap(err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	return New(db, dialect), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func driverName(dialect Dialect) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// Migrate applies every pending migration for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	fsys, gooseDialect, err := migrationSet(s.dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", string(s.dialect)).Wrap(err)
	}
	if err := gooseUpContext(ctx, s.db.DB, "."); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", string(s.dialect)).Wrap(err)
	}
	return nil
}

func migrationSet(dialect Dialect) (fs.FS, string, error) {
	switch dialect {
	case DialectSQLite:
		sub, err := fs.Sub(migrations.SQLite, "sqlite")
		return sub, "sqlite3", err
	case DialectPostgres:
		sub, err := fs.Sub(migrations.Postgres, "postgres")
		return sub, "pgx", err
	default:
		return nil, "", fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}
