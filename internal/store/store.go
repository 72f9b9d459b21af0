// Package store persists the workflow's entities in SQLite. JSON-valued
// columns hold the ordered lists (objectives, activity structure, options)
// that have no relational consumers.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist. Services also return
// it for rows the caller does not own, so callers cannot distinguish the
// two cases.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	// modernc's driver takes pragmas through _pragma; busy_timeout makes
	// concurrent writers queue instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS teachers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		grade_band TEXT NOT NULL DEFAULT '',
		extraordinary BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		grade TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		FOREIGN KEY (group_id) REFERENCES groups(id)
	);

	CREATE TABLE IF NOT EXISTS classes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		teacher_id INTEGER NOT NULL,
		topic_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		template_id INTEGER,
		scheduled_at DATETIME NOT NULL,
		duration_min INTEGER NOT NULL DEFAULT 60,
		method_tags TEXT NOT NULL DEFAULT '[]',
		context TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'draft',
		active_guide_id INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME,
		FOREIGN KEY (teacher_id) REFERENCES teachers(id),
		FOREIGN KEY (topic_id) REFERENCES topics(id),
		FOREIGN KEY (group_id) REFERENCES groups(id)
	);

	CREATE TABLE IF NOT EXISTS guide_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id INTEGER NOT NULL,
		version_number INTEGER NOT NULL,
		objectives TEXT NOT NULL DEFAULT '[]',
		structure TEXT NOT NULL DEFAULT '[]',
		guiding_questions TEXT NOT NULL DEFAULT '[]',
		context TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT 0,
		approved_by INTEGER,
		approved_at DATETIME,
		is_final BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE (class_id, version_number),
		FOREIGN KEY (class_id) REFERENCES classes(id)
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'draft',
		time_limit_min INTEGER NOT NULL DEFAULT 0,
		reading TEXT NOT NULL DEFAULT '',
		published_at DATETIME,
		created_at DATETIME NOT NULL,
		UNIQUE (class_id, kind),
		FOREIGN KEY (class_id) REFERENCES classes(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		type TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		correct_option_id TEXT NOT NULL DEFAULT '',
		expected_answer TEXT NOT NULL DEFAULT '',
		justification TEXT NOT NULL DEFAULT '',
		reading TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		score REAL NOT NULL DEFAULT 0,
		pct_correct REAL NOT NULL DEFAULT 0,
		submitted_at DATETIME,
		UNIQUE (quiz_id, student_id),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id),
		FOREIGN KEY (student_id) REFERENCES students(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		response_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		correct BOOLEAN NOT NULL DEFAULT 0,
		time_spent_sec INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (response_id) REFERENCES responses(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id INTEGER NOT NULL,
		quiz_id INTEGER,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'media',
		area TEXT NOT NULL DEFAULT '',
		applied BOOLEAN NOT NULL DEFAULT 0,
		applied_version_id INTEGER,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (class_id) REFERENCES classes(id),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id INTEGER NOT NULL,
		quiz_id INTEGER NOT NULL,
		audience TEXT NOT NULL,
		student_id INTEGER,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (class_id) REFERENCES classes(id),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// marshalJSON encodes a slice column, falling back to the empty array so a
// nil slice never writes SQL NULL.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
