package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Memory kinds. A "received" memory marks that a cast has been seen and
// accepted for processing; a "responded" memory marks a dispatched reply.
const (
	KindReceived  = "received"
	KindResponded = "responded"
)

// Memory is one append-only record of work done for a (agent, cast)
// pair. Its id is derived deterministically, so the primary key doubles
// as the deduplication mechanism.
type Memory struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	AgentID     string    `json:"agent_id"`
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	Action      string    `json:"action,omitempty"`
	InReplyTo   string    `json:"in_reply_to,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateMemory inserts a memory record. Records are never updated or
// deleted; inserting an id that already exists returns ErrDuplicate.
func (db *DB) CreateMemory(m *Memory) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	var attachmentsJSON *string
	if len(m.Attachments) > 0 {
		data, err := json.Marshal(m.Attachments)
		if err != nil {
			return err
		}
		s := string(data)
		attachmentsJSON = &s
	}

	var inReplyTo *string
	if m.InReplyTo != "" {
		inReplyTo = &m.InReplyTo
	}

	_, err := db.Exec(
		"INSERT INTO memories (id, room_id, user_id, agent_id, kind, text, action, in_reply_to, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.RoomID, m.UserID, m.AgentID, m.Kind, m.Text, m.Action, inReplyTo, attachmentsJSON, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	return nil
}

// GetMemory returns the memory with the given id, or ErrNotFound.
func (db *DB) GetMemory(id string) (*Memory, error) {
	row := db.QueryRow(
		"SELECT id, room_id, user_id, agent_id, kind, text, action, in_reply_to, attachments, created_at FROM memories WHERE id = ?",
		id,
	)
	return scanMemory(row)
}

// ListMemoriesByRoom returns the memories of a conversation room,
// oldest first. limit <= 0 means no limit.
func (db *DB) ListMemoriesByRoom(roomID string, limit int) ([]*Memory, error) {
	query := "SELECT id, room_id, user_id, agent_id, kind, text, action, in_reply_to, attachments, created_at FROM memories WHERE room_id = ? ORDER BY created_at ASC"
	args := []any{roomID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ListRecentMemories returns an agent's most recent memories, newest first.
func (db *DB) ListRecentMemories(agentID string, limit int) ([]*Memory, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(
		"SELECT id, room_id, user_id, agent_id, kind, text, action, in_reply_to, attachments, created_at FROM memories WHERE agent_id = ? ORDER BY created_at DESC LIMIT ?",
		agentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemories(rows)
}

// CountMemories returns the number of memories stored for an agent,
// broken down by kind.
func (db *DB) CountMemories(agentID string) (received, responded int, err error) {
	rows, err := db.Query(
		"SELECT kind, COUNT(*) FROM memories WHERE agent_id = ? GROUP BY kind",
		agentID,
	)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return 0, 0, err
		}
		switch kind {
		case KindReceived:
			received = count
		case KindResponded:
			responded = count
		}
	}

	return received, responded, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var m Memory
	var action sql.NullString
	var inReplyTo sql.NullString
	var attachmentsJSON sql.NullString

	err := row.Scan(&m.ID, &m.RoomID, &m.UserID, &m.AgentID, &m.Kind, &m.Text, &action, &inReplyTo, &attachmentsJSON, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if action.Valid {
		m.Action = action.String
	}
	if inReplyTo.Valid {
		m.InReplyTo = inReplyTo.String
	}
	if attachmentsJSON.Valid && attachmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(attachmentsJSON.String), &m.Attachments); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]*Memory, error) {
	var memories []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// isUniqueViolation reports whether err is a sqlite unique constraint
// failure. modernc.org/sqlite does not export a typed error for this,
// so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
