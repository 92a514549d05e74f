// Package sqlstore implements service.TaskTable on database/sql.
// SQLite (modernc.org/sqlite, no cgo) serves local and offline use;
// Postgres (lib/pq) talks to the table directly.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"taskboard/internal/service"
)

// QueryTimeout bounds every statement.
const QueryTimeout = 10 * time.Second

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	image_url   TEXT,
	video_url   TEXT
)`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	image_url   TEXT,
	video_url   TEXT
)`

const taskColumns = "id, title, description, created_at, image_url, video_url"

// Store is a task table backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var _ service.TaskTable = (*Store)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	for _, p := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return newStore(db, dialectSQLite)
}

// OpenPostgres connects to the Postgres database named by dsn.
func OpenPostgres(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newStore(db, dialectPostgres)
}

func newStore(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), QueryTimeout)
	defer cancel()

	schema := sqliteSchema
	if s.dialect == dialectPostgres {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return wrapError(err)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id DESC")
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return tasks, nil
}

// InsertTask creates a task. The database assigns the id.
func (s *Store) InsertTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, s.rebind(
		"INSERT INTO tasks (title, description, created_at, image_url, video_url) VALUES (?, ?, ?, ?, ?) RETURNING "+taskColumns),
		fields.Title, fields.Description, s.timeArg(s.now()), nullString(fields.ImageURL), nullString(fields.VideoURL))
	t, err := scanTask(row)
	if err != nil {
		return service.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTask replaces the mutable fields of the task with the given id.
func (s *Store) UpdateTask(ctx context.Context, id int64, fields service.TaskFields) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, s.rebind(
		"UPDATE tasks SET title = ?, description = ?, image_url = ?, video_url = ? WHERE id = ? RETURNING "+taskColumns),
		fields.Title, fields.Description, nullString(fields.ImageURL), nullString(fields.VideoURL), id)
	t, err := scanTask(row)
	if err != nil {
		return service.Task{}, err
	}
	return t, nil
}

// DeleteTask removes the task with the given id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return service.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (service.Task, error) {
	var (
		t            service.Task
		created      any
		image, video sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &created, &image, &video); err != nil {
		return service.Task{}, wrapError(err)
	}
	at, err := scanTime(created)
	if err != nil {
		return service.Task{}, err
	}
	t.CreatedAt = at
	t.ImageURL = image.String
	t.VideoURL = video.String
	return t, nil
}

// scanTime converts a created_at column value. Postgres yields time.Time;
// SQLite yields the stored text.
func scanTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported created_at type %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", s)
}

func (s *Store) timeArg(t time.Time) any {
	if s.dialect == dialectSQLite {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC()
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// wrapError maps driver errors onto service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	if errors.Is(err, sql.ErrNoRows) {
		return service.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28": // invalid authorization specification
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, pqErr.Message)
		case "42":
			if pqErr.Code == "42501" { // insufficient_privilege
				return fmt.Errorf("%w: %s", service.ErrUnauthorized, pqErr.Message)
			}
		}
		return fmt.Errorf("postgres: %s", pqErr.Message)
	}
	return err
}
