package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	sqlitedriver "modernc.org/sqlite"

	"github.com/saturnino-fabrica-de-software/ponto/internal/database"
)

// foldFunc is available in every connection. SQLite's own LIKE folds ASCII
// only, so name filters compare fold_case(name) against a folded pattern.
const foldFunc = "fold_case"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldCase)
}

func foldCase(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldName(v), nil
	case []byte:
		return foldName(string(v)), nil
	default:
		return v, nil
	}
}

func foldName(s string) string {
	return cases.Fold().String(s)
}

// Store is the embedded single-file store. It holds the same tables as the
// Postgres schema, minus the vector mirror.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	Faces      *FaceRepository
	Attendance *AttendanceRepository
}

// NewStore opens (or creates) the database at path and migrates it.
// Parent directories are created if needed.
func NewStore(path string) (*Store, error) {
	logger := slog.Default().With("component", "store")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// The migrator owns db once created; it is not closed here so the
	// handle stays open for the store.
	migrator, err := database.NewSQLiteMigrator(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s := &Store{
		db:         db,
		logger:     logger,
		Faces:      &FaceRepository{db: db},
		Attendance: &AttendanceRepository{db: db},
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern escapes LIKE metacharacters so the value matches literally.
func likePattern(substring string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(substring) + "%"
}
