package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soulchat/soulchat/internal/ai"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// Message senders
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// ChatSession is a conversation with a snapshot of the character it runs as
type ChatSession struct {
	ID                   string          `json:"id"`
	CharacterName        string          `json:"character_name"`
	CharacterDescription string          `json:"character_description"`
	PersonalityPreset    string          `json:"personality_preset,omitempty"`
	PersonalityData      json.RawMessage `json:"personality_data,omitempty"`
	CurrentMood          string          `json:"current_mood"`
	StoryWorld           string          `json:"story_world,omitempty"`
	CharacterBackground  string          `json:"character_background,omitempty"`
	HasMission           bool            `json:"has_mission,omitempty"`
	CurrentMission       string          `json:"current_mission,omitempty"`
	UseRealTime          bool            `json:"use_real_time"`
	TimeSetting          string          `json:"time_setting,omitempty"`
	Examples             json.RawMessage `json:"examples,omitempty"`
	LastMessage          string          `json:"last_message,omitempty"`
	LastActivity         time.Time       `json:"last_activity"`
	LastUserActivity     time.Time       `json:"last_user_activity"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Character materializes the session's character snapshot for the inference
// layer. Malformed JSON blobs degrade to defaults rather than failing.
func (s *ChatSession) Character() *ai.Character {
	c := &ai.Character{
		ID:                s.ID,
		Name:              s.CharacterName,
		Description:       s.CharacterDescription,
		PersonalityPreset: s.PersonalityPreset,
		CurrentMood:       s.CurrentMood,
		StoryWorld:        s.StoryWorld,
		Background:        s.CharacterBackground,
		HasMission:        s.HasMission,
		CurrentMission:    s.CurrentMission,
		UseRealTime:       s.UseRealTime,
		TimeSetting:       s.TimeSetting,
	}
	if len(s.PersonalityData) > 0 && string(s.PersonalityData) != "{}" {
		var p ai.Personality
		if err := json.Unmarshal(s.PersonalityData, &p); err == nil {
			c.Personality = &p
		}
	}
	if len(s.Examples) > 0 {
		_ = json.Unmarshal(s.Examples, &c.Examples)
	}
	return c
}

// ChatMessage is one persisted conversation turn
type ChatMessage struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Sender      string    `json:"sender"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	Emotion     string    `json:"emotion,omitempty"`
	IsProactive bool      `json:"is_proactive"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps the single SQLite connection
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store over an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB returns the underlying connection for sharing with other components
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

const sessionColumns = `id, character_name, character_description, personality_preset,
	personality_data, current_mood, story_world, character_background,
	has_mission, current_mission, use_real_time, time_setting, examples,
	last_message, last_activity, last_user_activity, created_at`

// CreateSession inserts a new chat session, assigning an ID when empty
func (s *Store) CreateSession(ctx context.Context, sess *ChatSession) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CurrentMood == "" {
		sess.CurrentMood = "calm"
	}
	if len(sess.PersonalityData) == 0 {
		sess.PersonalityData = json.RawMessage("{}")
	}
	if len(sess.Examples) == 0 {
		sess.Examples = json.RawMessage("[]")
	}
	now := s.now()
	sess.LastActivity = now
	sess.LastUserActivity = now
	sess.CreatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.CharacterName, sess.CharacterDescription, sess.PersonalityPreset,
		string(sess.PersonalityData), sess.CurrentMood, sess.StoryWorld, sess.CharacterBackground,
		boolToInt(sess.HasMission), sess.CurrentMission, boolToInt(sess.UseRealTime), sess.TimeSetting,
		string(sess.Examples), sess.LastMessage, now.Unix(), now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID
func (s *Store) GetSession(ctx context.Context, id string) (*ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetIdleSessions returns sessions eligible for a proactive message:
// the user has been quiet for at least thresholdMinutes, the conversation
// saw activity within the window, and today's proactive cap is not yet
// reached. The cap is enforced here, in the query, so concurrent callers
// cannot oversend. Results are ordered stalest-first and capped at batch.
func (s *Store) GetIdleSessions(ctx context.Context, thresholdMinutes int, window time.Duration, dailyCap, batch int) ([]*ChatSession, error) {
	now := s.now()
	idleBefore := now.Add(-time.Duration(thresholdMinutes) * time.Minute).Unix()
	activeAfter := now.Add(-window).Unix()
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Unix()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM chat_sessions s
		WHERE s.last_user_activity <= ?
		  AND s.last_activity >= ?
		  AND (
			SELECT COUNT(*) FROM chat_messages m
			WHERE m.session_id = s.id
			  AND m.is_proactive = 1
			  AND m.created_at >= ?
		  ) < ?
		ORDER BY s.last_user_activity ASC
		LIMIT ?`,
		idleBefore, activeAfter, startOfDay, dailyCap, batch,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query idle sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*ChatSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AppendMessage persists a message and rolls the session's activity columns
// forward. A user message also advances last_user_activity, which is what
// the proactive scheduler keys on.
func (s *Store) AppendMessage(ctx context.Context, msg *ChatMessage) error {
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	now := s.now()
	msg.CreatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, sender, message_type, content, emotion, is_proactive, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Sender, msg.MessageType, msg.Content, msg.Emotion,
		boolToInt(msg.IsProactive), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}

	if msg.Sender == SenderUser {
		_, err = s.db.ExecContext(ctx, `
			UPDATE chat_sessions
			SET last_message = ?, last_activity = ?, last_user_activity = ?
			WHERE id = ?`,
			msg.Content, now.Unix(), now.Unix(), msg.SessionID)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE chat_sessions
			SET last_message = ?, last_activity = ?
			WHERE id = ?`,
			msg.Content, now.Unix(), msg.SessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// GetRecentMessages returns the newest messages of a session in
// chronological order.
func (s *Store) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]*ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, sender, message_type, content, emotion, is_proactive, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		var isProactive int
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.MessageType,
			&m.Content, &m.Emotion, &isProactive, &createdAt); err != nil {
			return nil, err
		}
		m.IsProactive = isProactive != 0
		m.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; flip to chronological
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Turns converts messages into inference-layer turns
func Turns(messages []*ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ai.Turn{Sender: m.Sender, Content: m.Content})
	}
	return turns
}

// GetSystemConfig returns the raw JSON value for a config key, or
// ErrNotFound when the key is absent.
func (s *Store) GetSystemConfig(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM system_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read system config %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

// SetSystemConfig upserts a config key with a JSON value
func (s *Store) SetSystemConfig(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal config %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO system_config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write system config %s: %w", key, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ChatSession, error) {
	var sess ChatSession
	var personality, examples string
	var hasMission, useRealTime int
	var lastActivity, lastUserActivity, createdAt int64

	err := row.Scan(
		&sess.ID, &sess.CharacterName, &sess.CharacterDescription, &sess.PersonalityPreset,
		&personality, &sess.CurrentMood, &sess.StoryWorld, &sess.CharacterBackground,
		&hasMission, &sess.CurrentMission, &useRealTime, &sess.TimeSetting, &examples,
		&sess.LastMessage, &lastActivity, &lastUserActivity, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	sess.PersonalityData = json.RawMessage(personality)
	sess.Examples = json.RawMessage(examples)
	sess.HasMission = hasMission != 0
	sess.UseRealTime = useRealTime != 0
	sess.LastActivity = time.Unix(lastActivity, 0)
	sess.LastUserActivity = time.Unix(lastUserActivity, 0)
	sess.CreatedAt = time.Unix(createdAt, 0)
	return &sess, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
