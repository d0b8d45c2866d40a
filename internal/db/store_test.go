package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soulchat/soulchat/internal/db/migrations"
)

func newTestStore(t *testing.T) (*Store, *fakeStoreClock) {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := migrations.Run(sqlDB); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	clock := &fakeStoreClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(sqlDB)
	store.now = clock.now
	return store, clock
}

type fakeStoreClock struct {
	t time.Time
}

func (c *fakeStoreClock) now() time.Time          { return c.t }
func (c *fakeStoreClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &ChatSession{
		CharacterName:        "Lyra",
		CharacterDescription: "A wandering bard.",
		PersonalityData:      json.RawMessage(`{"energy":85,"creativity":90}`),
		CurrentMood:          "happy",
		StoryWorld:           "The Shattered Isles",
		CharacterBackground:  "Raised by sailors.",
		HasMission:           true,
		CurrentMission:       "Find the lost song",
		UseRealTime:          true,
		Examples:             json.RawMessage(`[{"input":"hi","output":"Well met!"}]`),
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected generated session ID")
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CharacterName != "Lyra" || got.CurrentMood != "happy" {
		t.Errorf("unexpected session: %+v", got)
	}
	if !got.HasMission || !got.UseRealTime {
		t.Error("boolean columns did not round-trip")
	}

	c := got.Character()
	if c.Name != "Lyra" || c.Personality == nil {
		t.Fatalf("Character() = %+v", c)
	}
	if c.Personality.Energy != 85 || c.Personality.Creativity != 90 {
		t.Errorf("personality = %+v", c.Personality)
	}
	if len(c.Examples) != 1 || c.Examples[0].Output != "Well met!" {
		t.Errorf("examples = %+v", c.Examples)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendMessageActivityTracking(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	sess := &ChatSession{CharacterName: "Lyra"}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	created := clock.t

	clock.advance(10 * time.Minute)
	if err := store.AppendMessage(ctx, &ChatMessage{
		SessionID: sess.ID, Sender: SenderUser, Content: "hello",
	}); err != nil {
		t.Fatalf("AppendMessage(user): %v", err)
	}

	got, _ := store.GetSession(ctx, sess.ID)
	if !got.LastUserActivity.Equal(created.Add(10 * time.Minute)) {
		t.Errorf("user message should advance last_user_activity, got %v", got.LastUserActivity)
	}

	clock.advance(5 * time.Minute)
	if err := store.AppendMessage(ctx, &ChatMessage{
		SessionID: sess.ID, Sender: SenderAI, Content: "hi there", Emotion: "happy",
	}); err != nil {
		t.Fatalf("AppendMessage(ai): %v", err)
	}

	got, _ = store.GetSession(ctx, sess.ID)
	if !got.LastActivity.Equal(created.Add(15 * time.Minute)) {
		t.Errorf("ai message should advance last_activity, got %v", got.LastActivity)
	}
	if !got.LastUserActivity.Equal(created.Add(10 * time.Minute)) {
		t.Errorf("ai message must not advance last_user_activity, got %v", got.LastUserActivity)
	}
	if got.LastMessage != "hi there" {
		t.Errorf("last_message = %q", got.LastMessage)
	}
}

func TestGetRecentMessagesOrderAndLimit(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	sess := &ChatSession{CharacterName: "Lyra"}
	store.CreateSession(ctx, sess)

	for i := 0; i < 5; i++ {
		clock.advance(time.Minute)
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderAI
		}
		if err := store.AppendMessage(ctx, &ChatMessage{
			SessionID: sess.ID, Sender: sender, Content: fmt.Sprintf("msg-%d", i),
		}); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	messages, err := store.GetRecentMessages(ctx, sess.ID, 3)
	if err != nil {
		t.Fatalf("GetRecentMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len = %d, want 3", len(messages))
	}
	// The 3 newest, oldest first
	for i, want := range []string{"msg-2", "msg-3", "msg-4"} {
		if messages[i].Content != want {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i].Content, want)
		}
	}
}

func TestGetIdleSessions(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	idle := &ChatSession{CharacterName: "Idle"}
	store.CreateSession(ctx, idle)
	active := &ChatSession{CharacterName: "Active"}
	store.CreateSession(ctx, active)

	// 40 minutes pass; the active session's user speaks once more at +35
	clock.advance(35 * time.Minute)
	store.AppendMessage(ctx, &ChatMessage{SessionID: active.ID, Sender: SenderUser, Content: "still here"})
	clock.advance(5 * time.Minute)

	sessions, err := store.GetIdleSessions(ctx, 30, 24*time.Hour, 5, 10)
	if err != nil {
		t.Fatalf("GetIdleSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != idle.ID {
		t.Fatalf("expected only the idle session, got %d", len(sessions))
	}
}

func TestGetIdleSessionsWindow(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	stale := &ChatSession{CharacterName: "Stale"}
	store.CreateSession(ctx, stale)

	// No activity at all for 25 hours: outside the engagement window
	clock.advance(25 * time.Hour)
	sessions, err := store.GetIdleSessions(ctx, 30, 24*time.Hour, 5, 10)
	if err != nil {
		t.Fatalf("GetIdleSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions outside the 24h window, got %d", len(sessions))
	}
}

func TestGetIdleSessionsDailyCap(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	sess := &ChatSession{CharacterName: "Capped"}
	store.CreateSession(ctx, sess)
	clock.advance(40 * time.Minute)

	// Session qualifies before the cap
	sessions, _ := store.GetIdleSessions(ctx, 30, 24*time.Hour, 2, 10)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 eligible session, got %d", len(sessions))
	}

	// Two proactive messages today exhaust a cap of 2
	for i := 0; i < 2; i++ {
		store.AppendMessage(ctx, &ChatMessage{
			SessionID: sess.ID, Sender: SenderAI, Content: "hey!", IsProactive: true,
		})
	}
	sessions, _ = store.GetIdleSessions(ctx, 30, 24*time.Hour, 2, 10)
	if len(sessions) != 0 {
		t.Errorf("expected capped session excluded, got %d", len(sessions))
	}

	// The cap resets on the next day
	clock.advance(24 * time.Hour)
	store.db.ExecContext(ctx, `UPDATE chat_sessions SET last_activity = ? WHERE id = ?`,
		clock.t.Add(-time.Hour).Unix(), sess.ID)
	sessions, _ = store.GetIdleSessions(ctx, 30, 24*time.Hour, 2, 10)
	if len(sessions) != 1 {
		t.Errorf("expected cap reset next day, got %d sessions", len(sessions))
	}
}

func TestGetIdleSessionsBatchOrder(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	// Three idle sessions with staggered last user activity
	var ids []string
	for i := 0; i < 3; i++ {
		sess := &ChatSession{CharacterName: fmt.Sprintf("S%d", i)}
		store.CreateSession(ctx, sess)
		ids = append(ids, sess.ID)
		clock.advance(10 * time.Minute)
	}
	clock.advance(40 * time.Minute)

	sessions, err := store.GetIdleSessions(ctx, 30, 24*time.Hour, 5, 2)
	if err != nil {
		t.Fatalf("GetIdleSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("batch limit not applied, got %d", len(sessions))
	}
	// Stalest first
	if sessions[0].ID != ids[0] || sessions[1].ID != ids[1] {
		t.Error("expected stalest sessions first")
	}
}

func TestSystemConfigRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetSystemConfig(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	type cfg struct {
		Enabled  bool `json:"enabled"`
		Interval int  `json:"intervalMinutes"`
	}
	if err := store.SetSystemConfig(ctx, "proactive_chat_config", cfg{Enabled: true, Interval: 15}); err != nil {
		t.Fatalf("SetSystemConfig: %v", err)
	}

	raw, err := store.GetSystemConfig(ctx, "proactive_chat_config")
	if err != nil {
		t.Fatalf("GetSystemConfig: %v", err)
	}
	var got cfg
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Enabled || got.Interval != 15 {
		t.Errorf("got %+v", got)
	}

	// Upsert overwrites
	if err := store.SetSystemConfig(ctx, "proactive_chat_config", cfg{Enabled: false, Interval: 30}); err != nil {
		t.Fatalf("SetSystemConfig(update): %v", err)
	}
	raw, _ = store.GetSystemConfig(ctx, "proactive_chat_config")
	json.Unmarshal(raw, &got)
	if got.Enabled || got.Interval != 30 {
		t.Errorf("after update got %+v", got)
	}
}
