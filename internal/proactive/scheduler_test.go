package proactive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/db/migrations"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/realtime"
)

func init() {
	logging.Disable()
}

type stubProvider struct {
	id    string
	text  string
	err   error
	calls int
}

func (p *stubProvider) ID() string       { return p.id }
func (p *stubProvider) Configured() bool { return true }

func (p *stubProvider) Complete(ctx context.Context, req *ai.InferenceRequest) (*ai.InferenceResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &ai.InferenceResult{Text: p.text, Model: req.Model}, nil
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := migrations.Run(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return db.NewStore(conn)
}

func newTestScheduler(t *testing.T, store *db.Store, p *stubProvider) *Scheduler {
	t.Helper()
	reg := ai.NewRegistry(ai.DefaultBreakerConfig())
	reg.Register(p)
	orch := ai.NewOrchestrator(reg, true, 256)

	s := NewScheduler(store, orch, realtime.NewHub(), DefaultConfig())
	s.pace = func() {}
	t.Cleanup(s.Close)
	return s
}

func createIdleSession(t *testing.T, store *db.Store, name string, idleFor time.Duration) *db.ChatSession {
	t.Helper()
	sess := &db.ChatSession{
		CharacterName:        name,
		CharacterDescription: "a test companion",
		CurrentMood:          "happy",
		UseRealTime:          true,
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	stale := time.Now().Add(-idleFor).Unix()
	_, err := store.DB().Exec(
		`UPDATE chat_sessions SET last_user_activity = ?, last_activity = ? WHERE id = ?`,
		stale, stale, sess.ID,
	)
	if err != nil {
		t.Fatalf("backdate session: %v", err)
	}
	return sess
}

func proactiveMessages(t *testing.T, store *db.Store, sessionID string) []*db.ChatMessage {
	t.Helper()
	msgs, err := store.GetRecentMessages(context.Background(), sessionID, 50)
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	var out []*db.ChatMessage
	for _, m := range msgs {
		if m.IsProactive {
			out = append(out, m)
		}
	}
	return out
}

func TestScanSendsProactiveMessage(t *testing.T) {
	store := newTestStore(t)
	p := &stubProvider{id: "openai", text: "Hey, I was just thinking about you. How has your day been?"}
	s := newTestScheduler(t, store, p)

	sess := createIdleSession(t, store, "Lyra", 45*time.Minute)

	s.Scan(context.Background())

	msgs := proactiveMessages(t, store, sess.ID)
	if len(msgs) != 1 {
		t.Fatalf("proactive messages = %d, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Sender != db.SenderAI {
		t.Errorf("sender = %q, want %q", got.Sender, db.SenderAI)
	}
	if got.Content != p.text {
		t.Errorf("content = %q, want %q", got.Content, p.text)
	}
	if got.Emotion == "" {
		t.Error("expected an emotion tag on the proactive message")
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
}

func TestScanSkipsActiveSessions(t *testing.T) {
	store := newTestStore(t)
	p := &stubProvider{id: "openai", text: "hello"}
	s := newTestScheduler(t, store, p)

	sess := &db.ChatSession{CharacterName: "Lyra", CurrentMood: "calm"}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	s.Scan(context.Background())

	if msgs := proactiveMessages(t, store, sess.ID); len(msgs) != 0 {
		t.Fatalf("proactive messages = %d, want 0 for an active session", len(msgs))
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0", p.calls)
	}
}

func TestScanEmergencyFallsBackToRuleBasedOpener(t *testing.T) {
	store := newTestStore(t)
	p := &stubProvider{id: "openai", err: errors.New("upstream down")}
	s := newTestScheduler(t, store, p)

	sess := createIdleSession(t, store, "Lyra", 2*time.Hour)

	s.Scan(context.Background())

	msgs := proactiveMessages(t, store, sess.ID)
	if len(msgs) != 1 {
		t.Fatalf("proactive messages = %d, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Content == "" {
		t.Fatal("expected a rule-based opener, got empty content")
	}
	if strings.Contains(got.Content, "technical trouble") {
		t.Errorf("emergency apology leaked into proactive opener: %q", got.Content)
	}
	// Mood "happy" maps to "joy" on the rule-based path.
	if got.Emotion != "joy" {
		t.Errorf("emotion = %q, want %q", got.Emotion, "joy")
	}
}

func TestScanRespectsDailyCap(t *testing.T) {
	store := newTestStore(t)
	p := &stubProvider{id: "openai", text: "hello again"}
	s := newTestScheduler(t, store, p)

	maxPerDay := 1
	s.cfg.MaxMessagesPerDay = maxPerDay

	sess := createIdleSession(t, store, "Lyra", time.Hour)

	s.Scan(context.Background())

	// The proactive reply only advanced last_activity. Backdate the user
	// side again so only the daily cap can exclude the session.
	stale := time.Now().Add(-time.Hour).Unix()
	if _, err := store.DB().Exec(
		`UPDATE chat_sessions SET last_user_activity = ? WHERE id = ?`, stale, sess.ID,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	s.Scan(context.Background())

	if msgs := proactiveMessages(t, store, sess.ID); len(msgs) != maxPerDay {
		t.Fatalf("proactive messages = %d, want %d", len(msgs), maxPerDay)
	}
}

func TestScanBatchLimit(t *testing.T) {
	store := newTestStore(t)
	p := &stubProvider{id: "openai", text: "hi"}
	s := newTestScheduler(t, store, p)

	for i := 0; i < batchSize+2; i++ {
		createIdleSession(t, store, fmt.Sprintf("Char-%d", i), time.Hour)
	}

	s.Scan(context.Background())

	if p.calls != batchSize {
		t.Fatalf("provider calls = %d, want %d", p.calls, batchSize)
	}
}

func TestUpdateConfigValidation(t *testing.T) {
	store := newTestStore(t)
	s := newTestScheduler(t, store, &stubProvider{id: "openai", text: "hi"})

	bad := 0
	if _, err := s.UpdateConfig(context.Background(), ConfigPatch{IntervalMinutes: &bad}); err == nil {
		t.Error("expected error for intervalMinutes = 0")
	}
	if _, err := s.UpdateConfig(context.Background(), ConfigPatch{InactivityThreshold: &bad}); err == nil {
		t.Error("expected error for inactivityThreshold = 0")
	}
	neg := -1
	if _, err := s.UpdateConfig(context.Background(), ConfigPatch{MaxMessagesPerDay: &neg}); err == nil {
		t.Error("expected error for negative maxMessagesPerDay")
	}

	if got := s.Config(); got != DefaultConfig() {
		t.Errorf("config changed after rejected patches: %+v", got)
	}
}

func TestUpdateConfigPartialPatchPersists(t *testing.T) {
	store := newTestStore(t)
	s := newTestScheduler(t, store, &stubProvider{id: "openai", text: "hi"})

	disabled := false
	threshold := 60
	got, err := s.UpdateConfig(context.Background(), ConfigPatch{
		Enabled:             &disabled,
		InactivityThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if got.Enabled || got.InactivityThreshold != 60 {
		t.Errorf("patched config = %+v", got)
	}
	if got.IntervalMinutes != DefaultConfig().IntervalMinutes {
		t.Errorf("untouched field changed: intervalMinutes = %d", got.IntervalMinutes)
	}

	// A fresh scheduler over the same store picks the persisted values up.
	s2 := NewScheduler(store, s.orch, realtime.NewHub(), DefaultConfig())
	t.Cleanup(s2.Close)
	if err := s2.loadConfig(context.Background()); err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg := s2.Config(); cfg.Enabled || cfg.InactivityThreshold != 60 {
		t.Errorf("persisted config = %+v", cfg)
	}
}

func TestUpdateConfigEnableTransitions(t *testing.T) {
	store := newTestStore(t)
	s := newTestScheduler(t, store, &stubProvider{id: "openai", text: "hi"})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.Running() {
		t.Fatal("scheduler should be running after Start")
	}

	disabled := false
	if _, err := s.UpdateConfig(context.Background(), ConfigPatch{Enabled: &disabled}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if s.Running() {
		t.Fatal("scheduler should stop when disabled")
	}

	enabled := true
	if _, err := s.UpdateConfig(context.Background(), ConfigPatch{Enabled: &enabled}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !s.Running() {
		t.Fatal("scheduler should start when re-enabled")
	}
}

func TestStartWhenDisabledIsNoOp(t *testing.T) {
	store := newTestStore(t)
	s := newTestScheduler(t, store, &stubProvider{id: "openai", text: "hi"})
	s.cfg.Enabled = false

	if err := store.SetSystemConfig(context.Background(), configKey, s.cfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Running() {
		t.Fatal("disabled scheduler should not run")
	}
}

func TestRuleBasedMessageDefaults(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sess := &db.ChatSession{CharacterName: "Lyra", CurrentMood: "calm"}
	char := sess.Character()

	// Midday with neutral traits and recent-enough history leaves only the
	// default opener.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := []*db.ChatMessage{{Sender: db.SenderUser, Content: "hi", CreatedAt: now.Add(-2 * time.Hour)}}

	msg := ruleBasedMessage(sess, char, recent, now, rng)
	if msg != "Hello! It has been a while, how are you?" {
		t.Errorf("default opener = %q", msg)
	}
}

func TestRuleBasedMessageMissionPool(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sess := &db.ChatSession{CharacterName: "Lyra", CurrentMood: "calm"}
	char := sess.Character()
	char.HasMission = true
	char.CurrentMission = "find the lost archive"

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := []*db.ChatMessage{{Sender: db.SenderUser, Content: "hi", CreatedAt: now.Add(-2 * time.Hour)}}

	for i := 0; i < 20; i++ {
		msg := ruleBasedMessage(sess, char, recent, now, rng)
		if !strings.Contains(msg, "mission") {
			t.Fatalf("opener %q should come from the mission pool", msg)
		}
	}
}

func TestOpenerTimeBucket(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{5, "morning"},
		{8, "morning"},
		{9, ""},
		{12, ""},
		{14, "afternoon"},
		{17, ""},
		{19, "evening"},
		{21, "evening"},
		{22, "late night"},
		{3, "late night"},
	}
	for _, tc := range cases {
		if got := openerTimeBucket(tc.hour); got != tc.want {
			t.Errorf("openerTimeBucket(%d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestMoodEmotion(t *testing.T) {
	cases := map[string]string{
		"happy":      "joy",
		"playful":    "joy",
		"sad":        "sadness",
		"excited":    "excitement",
		"angry":      "anger",
		"mysterious": "curiosity",
		"calm":       "neutral",
		"":           "neutral",
	}
	for mood, want := range cases {
		if got := moodEmotion(mood); got != want {
			t.Errorf("moodEmotion(%q) = %q, want %q", mood, got, want)
		}
	}
}
