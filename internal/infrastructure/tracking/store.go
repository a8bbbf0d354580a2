// Package tracking persists the lifecycle of every managed domain in a SQL
// table. SQLite is the default backend; a postgres:// DSN selects
// PostgreSQL through pgx.
package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	legacyTimeLayout = "2006-01-02 15:04:05"
)

const schema = `CREATE TABLE IF NOT EXISTS domains (
	domain TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	timestamp TEXT NOT NULL DEFAULT '',
	metadata TEXT
)`

type Store struct {
	db       *sql.DB
	driver   string
	dsn      string
	path     string
	readOnly bool
	now      func() time.Time
}

var _ repository.TrackingRepository = (*Store)(nil)

// Open connects to dsn, creating the schema. A SQLite file that turns out to
// be corrupt is quarantined and replaced before Open returns.
func Open(ctx context.Context, dsn string) (*Store, error) {
	s := newStore(dsn)
	if s.driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermission); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreOpenFailed, err)
		}
	}

	if err := s.connect(); err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		if !IsCorruption(err) {
			s.db.Close()
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreOpenFailed, err)
		}
		if qerr := s.quarantine(ctx, err); qerr != nil {
			return nil, qerr
		}
	}
	return s, nil
}

// OpenReadOnly connects for inspection while a run may hold the lock. The
// schema is not created, Save is refused and corruption is reported instead
// of quarantined.
func OpenReadOnly(ctx context.Context, dsn string) (*Store, error) {
	s := newStore(dsn)
	s.readOnly = true
	if s.driver == DriverSQLite {
		if _, err := os.Stat(s.path); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreOpenFailed, err)
		}
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(dsn string) *Store {
	s := &Store{dsn: dsn, now: time.Now}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s.driver = DriverPostgres
		return s
	}
	s.driver = DriverSQLite
	s.path = strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(s.path, '?'); i >= 0 {
		s.path = s.path[:i]
	}
	return s
}

// NewWithDB wraps an already open handle; the schema is assumed to exist.
func NewWithDB(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver, now: time.Now}
}

func (s *Store) connect() error {
	dsn := s.dsn
	if s.driver == DriverSQLite && !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open(s.driver, dsn)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreOpenFailed, err)
	}
	if s.driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	s.db = db
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	var n int
	return s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM domains").Scan(&n)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders for drivers that use $n.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Load(ctx context.Context) (map[string]*entity.TrackedDomain, error) {
	var result map[string]*entity.TrackedDomain
	err := logger.TimedOperation(ctx, "tracking.load", func() error {
		var err error
		result, err = s.load(ctx)
		return err
	})
	if err == nil {
		return result, nil
	}
	if !IsCorruption(err) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreReadFailed, err)
	}
	if s.readOnly {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
	}
	if qerr := s.quarantine(ctx, err); qerr != nil {
		return nil, qerr
	}
	return make(map[string]*entity.TrackedDomain), nil
}

func (s *Store) load(ctx context.Context) (map[string]*entity.TrackedDomain, error) {
	log := logger.FromContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT domain, status, timestamp, metadata FROM domains")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*entity.TrackedDomain)
	for rows.Next() {
		var name, status string
		var ts sql.NullString
		var meta []byte
		if err := rows.Scan(&name, &status, &ts, &meta); err != nil {
			return nil, err
		}
		state, err := entity.ParseState(status)
		if err != nil {
			log.Warn("skipping tracked domain with unknown status, row left untouched", "domain", name, "status", status)
			continue
		}
		d := &entity.TrackedDomain{Name: name, State: state}
		if ts.Valid {
			d.LastTransition, err = parseTimestamp(ts.String)
			if err != nil {
				log.Warn("unparseable tracking timestamp, treating as never", "domain", name, "timestamp", ts.String)
			}
		}
		if len(meta) > 0 {
			d.Metadata = append([]byte(nil), meta...)
		}
		result[name] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save replaces the stored snapshot with domains in a single transaction.
// Rows absent from domains are deleted, except rows whose status Load could
// not read: those never reached the caller and are kept as they are.
func (s *Store) Save(ctx context.Context, domains map[string]*entity.TrackedDomain) error {
	if s.readOnly {
		return fmt.Errorf("%w: store opened read-only", domain.ErrStoreWriteFailed)
	}
	err := logger.TimedOperation(ctx, "tracking.save", func() error {
		return s.save(ctx, domains)
	})
	if err == nil {
		return nil
	}
	if !IsCorruption(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreWriteFailed, err)
	}
	if qerr := s.quarantine(ctx, err); qerr != nil {
		return qerr
	}
	if err := s.save(ctx, domains); err != nil {
		return fmt.Errorf("%w: after quarantine: %v", domain.ErrStoreWriteFailed, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, domains map[string]*entity.TrackedDomain) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.FromContext(ctx).Error("failed to rollback tracking save", "error", rbErr)
		}
	}()

	existing, err := knownNames(ctx, tx)
	if err != nil {
		return err
	}
	for _, name := range existing {
		if _, ok := domains[name]; ok {
			continue
		}
		if _, err = tx.ExecContext(ctx, s.rebind("DELETE FROM domains WHERE domain = ?"), name); err != nil {
			return err
		}
	}

	upsert := s.rebind(`INSERT INTO domains (domain, status, timestamp, metadata) VALUES (?, ?, ?, ?)
ON CONFLICT(domain) DO UPDATE SET status = excluded.status, timestamp = excluded.timestamp, metadata = excluded.metadata`)

	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := domains[name]
		var meta any
		if len(d.Metadata) > 0 {
			meta = string(d.Metadata)
		}
		if _, err = tx.ExecContext(ctx, upsert, name, string(d.State), formatTimestamp(d.LastTransition), meta); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// knownNames lists stored rows with a readable status.
func knownNames(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT domain, status FROM domains")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, err
		}
		if _, err := entity.ParseState(status); err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) ByState(ctx context.Context, state entity.State) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT domain FROM domains WHERE status = ? ORDER BY domain"), string(state))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreReadFailed, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreReadFailed, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreReadFailed, err)
	}
	return names, nil
}

// quarantine moves the corrupt store aside and starts an empty one.
func (s *Store) quarantine(ctx context.Context, cause error) error {
	log := logger.FromContext(ctx)
	suffix := strconv.FormatInt(s.now().Unix(), 10)

	switch s.driver {
	case DriverSQLite:
		s.db.Close()
		target := s.path + ".corrupt-" + suffix
		if err := os.Rename(s.path, target); err != nil && !os.IsNotExist(err) {
			if rmErr := os.Remove(s.path); rmErr != nil {
				return fmt.Errorf("%w: quarantine %s: %v", domain.ErrStoreOpenFailed, s.path, err)
			}
			target = "(removed)"
		}
		for _, side := range []string{"-journal", "-wal", "-shm"} {
			os.Remove(s.path + side)
		}
		log.Error("tracking store corrupt, quarantined", "path", s.path, "moved_to", target, "error", cause)
		if err := s.connect(); err != nil {
			return err
		}
	case DriverPostgres:
		target := "domains_quarantine_" + suffix
		if _, err := s.db.ExecContext(ctx, "ALTER TABLE domains RENAME TO "+target); err != nil {
			return fmt.Errorf("%w: quarantine table: %v", domain.ErrStoreOpenFailed, err)
		}
		log.Error("tracking table corrupt, quarantined", "table", target, "error", cause)
	default:
		return fmt.Errorf("%w: cannot quarantine driver %s", domain.ErrStoreCorrupt, s.driver)
	}

	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("%w: reinitialise after quarantine: %v", domain.ErrStoreOpenFailed, err)
	}
	return nil
}

const (
	sqliteCorrupt = 11
	sqliteNotADB  = 26
)

// IsCorruption reports whether err means the store's contents are unusable,
// as opposed to a transient or logic failure.
func IsCorruption(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrStoreCorrupt) {
		return true
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqliteCorrupt, sqliteNotADB:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "XX001" || pgErr.Code == "XX002"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "database disk image is malformed")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
