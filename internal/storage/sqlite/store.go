package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"missionctl/internal/bus"
)

// Notifier receives one event per committed write. The server wires the
// shared bus here so dashboard clients learn about webhook writes too.
type Notifier interface {
	Publish(ev bus.Event)
}

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	notifier Notifier
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger, notifier Notifier) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger, notifier: notifier}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) notify(resource, action string, id int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(bus.Event{Resource: resource, Action: action, ID: id})
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            avatar TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'offline',
            bio TEXT NOT NULL DEFAULT '',
            last_active DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_members_status ON members(status);`,
		`CREATE TABLE IF NOT EXISTS member_metrics (
            member_id INTEGER PRIMARY KEY,
            tasks_completed INTEGER NOT NULL DEFAULT 0,
            content_created INTEGER NOT NULL DEFAULT 0,
            weekly_goal INTEGER NOT NULL DEFAULT 5,
            last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS desk_positions (
            member_id INTEGER PRIMARY KEY,
            desk_number INTEGER NOT NULL DEFAULT 1,
            x REAL NOT NULL DEFAULT 100,
            y REAL NOT NULL DEFAULT 100,
            current_activity TEXT NOT NULL DEFAULT 'idle',
            current_task TEXT NOT NULL DEFAULT '',
            last_activity_update DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL,
            activity TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_activity_member_time ON activity_logs(member_id, timestamp);`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'todo',
            priority TEXT NOT NULL DEFAULT 'medium',
            assignee TEXT NOT NULL DEFAULT '',
            position INTEGER NOT NULL DEFAULT 0,
            due_date DATETIME,
            prompt TEXT NOT NULL DEFAULT '',
            ai_status TEXT NOT NULL DEFAULT '',
            ai_result TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_ai_status ON tasks(ai_status);`,
		`CREATE TABLE IF NOT EXISTS events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            start_date DATETIME NOT NULL,
            end_date DATETIME NOT NULL,
            category TEXT NOT NULL DEFAULT 'task',
            color TEXT NOT NULL DEFAULT '',
            assignee TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT '',
            recurring TEXT NOT NULL DEFAULT '',
            created_by INTEGER,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_events_range ON events(start_date, end_date);`,
		`CREATE TABLE IF NOT EXISTS notes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            tags TEXT NOT NULL DEFAULT '[]',
            created_by INTEGER,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts4(content);`,
		`CREATE TABLE IF NOT EXISTS content (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            type TEXT NOT NULL DEFAULT 'blog',
            stage TEXT NOT NULL DEFAULT 'idea',
            description TEXT NOT NULL DEFAULT '',
            script TEXT NOT NULL DEFAULT '',
            thumbnail_url TEXT NOT NULL DEFAULT '',
            tags TEXT NOT NULL DEFAULT '[]',
            assignee TEXT NOT NULL DEFAULT '',
            position INTEGER NOT NULL DEFAULT 0,
            due_date DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_content_stage ON content(stage);`,
		`CREATE TRIGGER IF NOT EXISTS trg_tasks_updated
            AFTER UPDATE ON tasks
            FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at BEGIN
                UPDATE tasks SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_events_updated
            AFTER UPDATE ON events
            FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at BEGIN
                UPDATE events SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_notes_updated
            AFTER UPDATE ON notes
            FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at BEGIN
                UPDATE notes SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_content_updated
            AFTER UPDATE ON content
            FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at BEGIN
                UPDATE content SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_notes_fts_insert
            AFTER INSERT ON notes BEGIN
                INSERT INTO notes_fts(docid, content) VALUES(NEW.id, NEW.content);
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_notes_fts_update
            AFTER UPDATE OF content ON notes BEGIN
                UPDATE notes_fts SET content = NEW.content WHERE docid = NEW.id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_notes_fts_delete
            AFTER DELETE ON notes BEGIN
                DELETE FROM notes_fts WHERE docid = OLD.id;
            END;`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func randomPaletteColor() string {
	palette := []string{
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#d97706", // amber-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.Intn(len(palette))]
}
