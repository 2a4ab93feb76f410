// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlite is the embedded SQLite Store implementation, the persistent
// default when no PostgreSQL DSN is configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/propietas/chat-backend/pkg/core/state"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed implementation of state.Store.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store backed by the given database file.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_client_email
			ON users(client_id, lower(email)) WHERE email <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_client_phone
			ON users(client_id, phone_number) WHERE phone_number <> ''`,
		`CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_expires ON threads(expires_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT NOT NULL,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			function_call TEXT NOT NULL DEFAULT 'null',
			tool_call_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (thread_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_position ON messages(thread_id, position)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

func (s *Store) loadMessageIDs(ctx context.Context, threadID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM messages WHERE thread_id = ? ORDER BY position, created_at`, threadID)
	if err != nil {
		return nil, fmt.Errorf("load message ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Thread methods ---

// CreateThread allocates an empty thread expiring 14 days from now.
func (s *Store) CreateThread(ctx context.Context, userID string) (*state.Thread, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", state.ErrValidation)
	}

	now := time.Now()
	thread := &state.Thread{
		ID:         state.NewID("thread_"),
		UserID:     userID,
		MessageIDs: []string{},
		ExpiresAt:  now.Add(state.ThreadTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, user_id, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		thread.ID, thread.UserID, thread.ExpiresAt, thread.CreatedAt, thread.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

// ListThreads returns all threads ordered by creation time.
func (s *Store) ListThreads(ctx context.Context) ([]*state.Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, expires_at, created_at, updated_at FROM threads ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []*state.Thread
	for rows.Next() {
		var t state.Thread
		if err := rows.Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range threads {
		if t.MessageIDs, err = s.loadMessageIDs(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return threads, nil
}

// GetThread retrieves a thread by ID.
func (s *Store) GetThread(ctx context.Context, threadID string) (*state.Thread, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at, updated_at FROM threads WHERE id = ?`, threadID)

	var t state.Thread
	err := row.Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread %s: %w", threadID, state.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}

	if t.MessageIDs, err = s.loadMessageIDs(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetMessages returns the thread's messages in insertion order. Unknown
// thread ids yield an empty slice.
func (s *Store) GetMessages(ctx context.Context, threadID string) ([]*state.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, function_call, tool_call_id, position, created_at
		 FROM messages WHERE thread_id = ? ORDER BY position, created_at`, threadID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	messages := []*state.Message{}
	for rows.Next() {
		var (
			m      state.Message
			fcJSON string
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &fcJSON,
			&m.ToolCallID, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if fcJSON != "" && fcJSON != "null" {
			var fc state.FunctionCall
			if err := json.Unmarshal([]byte(fcJSON), &fc); err != nil {
				return nil, fmt.Errorf("unmarshal function call: %w", err)
			}
			m.FunctionCall = &fc
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// AppendMessage inserts the message row, then touches the thread. Position
// comes from a COUNT subquery; see the race note in DESIGN.md.
func (s *Store) AppendMessage(ctx context.Context, threadID string, msg *state.Message) (*state.Message, error) {
	if msg.ID == "" {
		msg.ID = state.NewID("msg_")
	}
	msg.ThreadID = threadID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	fcJSON, err := json.Marshal(msg.FunctionCall)
	if err != nil {
		return nil, fmt.Errorf("marshal function call: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, thread_id, role, content, function_call, tool_call_id, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?,
		         (SELECT COUNT(*) FROM messages WHERE thread_id = ?), ?)
		 RETURNING position`,
		msg.ID, threadID, msg.Role, msg.Content, string(fcJSON), msg.ToolCallID, threadID, msg.CreatedAt,
	)
	if err := row.Scan(&msg.Position); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`, time.Now(), threadID); err != nil {
		return nil, fmt.Errorf("touch thread: %w", err)
	}
	return msg, nil
}

// DeleteThread removes the thread's messages, then the thread. No-op on
// unknown ids.
func (s *Store) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, threadID); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// ListExpired returns threads whose expiry lies before now.
func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]*state.Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, expires_at, created_at, updated_at FROM threads WHERE expires_at < ?`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var threads []*state.Thread
	for rows.Next() {
		var t state.Thread
		if err := rows.Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}

// --- User methods ---

// CreateUser validates and inserts a user.
func (s *Store) CreateUser(ctx context.Context, user *state.User) (*state.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = state.NewID("user_")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, client_id, name, email, phone_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.ClientID, user.Name, user.Email, user.PhoneNumber, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: user with this contact already exists for client %s",
			state.ErrValidation, user.ClientID)
	}
	return user, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]*state.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, client_id, name, email, phone_number, created_at FROM users ORDER BY created_at`)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*state.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, email, phone_number, created_at FROM users WHERE id = ?`, userID)

	var u state.User
	err := row.Scan(&u.ID, &u.ClientID, &u.Name, &u.Email, &u.PhoneNumber, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, state.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsersByClient returns all users belonging to a tenant.
func (s *Store) ListUsersByClient(ctx context.Context, clientID string) ([]*state.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, client_id, name, email, phone_number, created_at
		 FROM users WHERE client_id = ? ORDER BY created_at`, clientID)
}

// CountUsersByClient counts a tenant's users.
func (s *Store) CountUsersByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE client_id = ?`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]*state.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*state.User
	for rows.Next() {
		var u state.User
		if err := rows.Scan(&u.ID, &u.ClientID, &u.Name, &u.Email, &u.PhoneNumber, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
