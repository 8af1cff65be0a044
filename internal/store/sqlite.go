// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/domain/user"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL UNIQUE,
    daily_streak_count INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    streak_last_update TEXT,
    total_exp INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    author_id TEXT NOT NULL,
    components TEXT NOT NULL,
    FOREIGN KEY (author_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS lesson_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    lesson_id TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_history_user_time
    ON lesson_history(user_id, completed_at);
`

// Timestamps are stored as RFC 3339 UTC strings at second precision: fixed
// width, so lexicographic order in SQL matches chronological order.
const timeFormat = time.RFC3339

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check: *SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Users
// ============================================================================

func (s *SQLiteStore) SaveUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, username) VALUES (?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.Username,
	)
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, username FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *user.User) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, username = ? WHERE id = ?",
		u.Name, u.Email, u.Username, u.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lesson_history WHERE user_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE author_id = ?", id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ============================================================================
// Lessons
// ============================================================================

func (s *SQLiteStore) SaveLesson(ctx context.Context, l *lesson.Lesson) error {
	components, err := json.Marshal(l.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO lessons (id, name, author_id, components) VALUES (?, ?, ?, ?)",
		l.ID, l.Name, l.Author, string(components),
	)
	return err
}

func (s *SQLiteStore) GetLesson(ctx context.Context, id string) (*lesson.Lesson, error) {
	var l lesson.Lesson
	var components string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, author_id, components FROM lessons WHERE id = ?", id,
	).Scan(&l.ID, &l.Name, &l.Author, &components)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	l.Components, err = lesson.ParseComponents([]byte(components))
	if err != nil {
		return nil, fmt.Errorf("lesson %s: %w", id, err)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLessonSummaries(ctx context.Context, userID string) ([]lesson.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM lessons WHERE author_id = ?", userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []lesson.Summary
	for rows.Next() {
		var sum lesson.Summary
		if err := rows.Scan(&sum.ID, &sum.Name); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// ============================================================================
// Progress and history
// ============================================================================

func (s *SQLiteStore) GetProgress(ctx context.Context, userID string) (progress.State, error) {
	var st progress.State
	var last sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, daily_streak_count, longest_streak, streak_last_update, total_exp FROM users WHERE id = ?",
		userID,
	).Scan(&st.UserID, &st.DailyStreakCount, &st.LongestStreak, &last, &st.TotalExp)
	if err == sql.ErrNoRows {
		return progress.State{}, ErrNotFound
	}
	if err != nil {
		return progress.State{}, err
	}

	if last.Valid {
		t, err := time.Parse(timeFormat, last.String)
		if err != nil {
			return progress.State{}, fmt.Errorf("user %s: bad streak_last_update %q: %w", userID, last.String, err)
		}
		st.LastCompletion = &t
	}
	return st, nil
}

func (s *SQLiteStore) SaveCompletion(ctx context.Context, st progress.State, entry history.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var last any
	if st.LastCompletion != nil {
		last = st.LastCompletion.UTC().Format(timeFormat)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE users SET daily_streak_count = ?, longest_streak = ?, streak_last_update = ?, total_exp = ? WHERE id = ?",
		st.DailyStreakCount, st.LongestStreak, last, st.TotalExp, st.UserID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO lesson_history (user_id, lesson_id, completed_at) VALUES (?, ?, ?)",
		entry.UserID, entry.LessonID, entry.CompletedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListHistoryInRange returns a user's completions with from ≤ completed_at < to.
func (s *SQLiteStore) ListHistoryInRange(ctx context.Context, userID string, from, to time.Time) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, lesson_id, completed_at FROM lesson_history WHERE user_id = ? AND completed_at >= ? AND completed_at < ? ORDER BY completed_at",
		userID, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		var completedAt string
		if err := rows.Scan(&e.UserID, &e.LessonID, &completedAt); err != nil {
			return nil, err
		}
		e.CompletedAt, err = time.Parse(timeFormat, completedAt)
		if err != nil {
			return nil, fmt.Errorf("history entry for user %s: bad completed_at %q: %w", userID, completedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
