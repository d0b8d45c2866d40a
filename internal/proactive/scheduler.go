package proactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/realtime"
)

const (
	// system_config key the runtime configuration persists under
	configKey = "proactive_chat_config"

	// sessions handled per scan
	batchSize = 5

	// recent turns fed into the opener prompt
	historyDepth = 5

	// window the per-day message cap is counted over
	dailyWindow = 24 * time.Hour

	// delay between candidates so pushes do not land in a burst
	pacing = time.Second
)

// Config is the runtime configuration of the proactive engine. It is
// persisted to system_config so edits survive restarts.
type Config struct {
	Enabled             bool `json:"enabled"`
	IntervalMinutes     int  `json:"intervalMinutes"`
	InactivityThreshold int  `json:"inactivityThreshold"`
	MaxMessagesPerDay   int  `json:"maxMessagesPerDay"`
}

// DefaultConfig returns the configuration used until an operator changes it.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		IntervalMinutes:     15,
		InactivityThreshold: 30,
		MaxMessagesPerDay:   5,
	}
}

// ConfigPatch is a partial configuration update. Nil fields keep their
// current value.
type ConfigPatch struct {
	Enabled             *bool `json:"enabled,omitempty"`
	IntervalMinutes     *int  `json:"intervalMinutes,omitempty"`
	InactivityThreshold *int  `json:"inactivityThreshold,omitempty"`
	MaxMessagesPerDay   *int  `json:"maxMessagesPerDay,omitempty"`
}

// Scheduler periodically scans for idle conversations and opens them with a
// character-voiced message, delivered over the websocket hub.
type Scheduler struct {
	store *db.Store
	orch  *ai.Orchestrator
	hub   *realtime.Hub

	cron *cronlib.Cron

	mu      sync.Mutex
	cfg     Config
	running bool
	entryID cronlib.EntryID

	// held for the duration of a scan so ticks never overlap
	scanMu sync.Mutex

	now  func() time.Time
	pace func()
	rng  *rand.Rand
}

// NewScheduler wires the proactive engine. Call Start to begin scanning.
func NewScheduler(store *db.Store, orch *ai.Orchestrator, hub *realtime.Hub, cfg Config) *Scheduler {
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 15
	}
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = 30
	}
	if cfg.MaxMessagesPerDay < 0 {
		cfg.MaxMessagesPerDay = 5
	}
	s := &Scheduler{
		store: store,
		orch:  orch,
		hub:   hub,
		cron:  cronlib.New(),
		cfg:   cfg,
		now:   time.Now,
		pace:  func() { time.Sleep(pacing) },
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.cron.Start()
	return s
}

// loadConfig pulls persisted configuration over the wired defaults. A missing
// row seeds the store with the defaults instead.
func (s *Scheduler) loadConfig(ctx context.Context) error {
	raw, err := s.store.GetSystemConfig(ctx, configKey)
	if errors.Is(err, db.ErrNotFound) {
		s.mu.Lock()
		cfg := s.cfg
		s.mu.Unlock()
		return s.store.SetSystemConfig(ctx, configKey, cfg)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", configKey, err)
	}
	s.cfg = cfg
	return nil
}

// Start loads persisted configuration, schedules the periodic scan, and runs
// an immediate first pass. Starting a disabled or already running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.loadConfig(ctx); err != nil {
		logging.Warnf("proactive config load failed, using defaults: %v", err)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logging.Info("proactive scheduler already running")
		return nil
	}
	if !s.cfg.Enabled {
		s.mu.Unlock()
		logging.Info("proactive scheduler disabled")
		return nil
	}

	interval := s.cfg.IntervalMinutes
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", interval), func() {
		s.Scan(context.Background())
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("schedule proactive scan: %w", err)
	}
	s.entryID = id
	s.running = true
	s.mu.Unlock()

	logging.Infof("proactive scheduler started, scan interval %dm", interval)

	go s.Scan(ctx)
	return nil
}

// Stop removes the periodic scan and waits for any in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cron.Remove(s.entryID)
	s.running = false
	s.mu.Unlock()

	s.scanMu.Lock()
	s.scanMu.Unlock()
	logging.Info("proactive scheduler stopped")
}

// Restart stops and starts the scheduler, re-reading persisted configuration.
func (s *Scheduler) Restart(ctx context.Context) error {
	logging.Info("restarting proactive scheduler")
	s.Stop()
	return s.Start(ctx)
}

// Close shuts the scheduler down for good.
func (s *Scheduler) Close() {
	s.Stop()
	s.cron.Stop()
}

// Running reports whether the periodic scan is scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Config returns a copy of the current configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig applies a partial update, persists the result, and adjusts the
// running state: an interval change reschedules the scan, and enable/disable
// transitions start or stop it.
func (s *Scheduler) UpdateConfig(ctx context.Context, patch ConfigPatch) (Config, error) {
	if patch.IntervalMinutes != nil && *patch.IntervalMinutes < 1 {
		return s.Config(), fmt.Errorf("intervalMinutes must be at least 1")
	}
	if patch.InactivityThreshold != nil && *patch.InactivityThreshold < 1 {
		return s.Config(), fmt.Errorf("inactivityThreshold must be at least 1")
	}
	if patch.MaxMessagesPerDay != nil && *patch.MaxMessagesPerDay < 0 {
		return s.Config(), fmt.Errorf("maxMessagesPerDay must not be negative")
	}

	s.mu.Lock()
	old := s.cfg
	next := old
	if patch.Enabled != nil {
		next.Enabled = *patch.Enabled
	}
	if patch.IntervalMinutes != nil {
		next.IntervalMinutes = *patch.IntervalMinutes
	}
	if patch.InactivityThreshold != nil {
		next.InactivityThreshold = *patch.InactivityThreshold
	}
	if patch.MaxMessagesPerDay != nil {
		next.MaxMessagesPerDay = *patch.MaxMessagesPerDay
	}
	s.cfg = next
	s.mu.Unlock()

	if err := s.store.SetSystemConfig(ctx, configKey, next); err != nil {
		return next, fmt.Errorf("persist proactive config: %w", err)
	}

	switch {
	case !next.Enabled && s.Running():
		s.Stop()
	case next.Enabled && !s.Running():
		if err := s.Start(ctx); err != nil {
			return next, err
		}
	case next.IntervalMinutes != old.IntervalMinutes && s.Running():
		s.Stop()
		if err := s.Start(ctx); err != nil {
			return next, err
		}
	}
	return next, nil
}

// Scan runs one pass over idle sessions. Only one scan runs at a time; a
// tick that lands during a slow scan is skipped rather than queued.
func (s *Scheduler) Scan(ctx context.Context) {
	if !s.scanMu.TryLock() {
		logging.Info("proactive scan already in progress, skipping")
		return
	}
	defer s.scanMu.Unlock()

	cfg := s.Config()
	sessions, err := s.store.GetIdleSessions(ctx, cfg.InactivityThreshold, dailyWindow, cfg.MaxMessagesPerDay, batchSize)
	if err != nil {
		logging.Errorf("proactive scan failed: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	logging.Infof("found %d session(s) due for a proactive message", len(sessions))
	for i, sess := range sessions {
		if i > 0 {
			s.pace()
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.sendProactive(ctx, sess); err != nil {
			logging.Errorf("proactive message for session %s failed: %v", sess.ID, err)
		}
	}
}

// sendProactive generates an opener for one idle session, persists it, and
// pushes it over the hub.
func (s *Scheduler) sendProactive(ctx context.Context, sess *db.ChatSession) error {
	recent, err := s.store.GetRecentMessages(ctx, sess.ID, historyDepth)
	if err != nil {
		return fmt.Errorf("load recent messages: %w", err)
	}
	char := sess.Character()

	reply := s.orch.GenerateProactive(ctx, char, db.Turns(recent))
	content := strings.TrimSpace(reply.Text)
	emotion := reply.Emotion

	// The emergency fallback text apologizes for an outage, which is the
	// wrong way to reopen a quiet conversation. Substitute a rule-based
	// opener instead.
	if reply.Metadata.Emergency || content == "" {
		content = ruleBasedMessage(sess, char, recent, s.now(), s.rng)
		emotion = moodEmotion(char.CurrentMood)
	}

	msg := &db.ChatMessage{
		SessionID:   sess.ID,
		Sender:      db.SenderAI,
		MessageType: "text",
		Content:     content,
		Emotion:     emotion,
		IsProactive: true,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist proactive message: %w", err)
	}

	s.hub.BroadcastProactiveMessage(sess.ID, realtime.ProactiveMessage{
		Content:       content,
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		CharacterName: sess.CharacterName,
		SessionID:     sess.ID,
	})

	logging.Infof("sent proactive message to session %s (%s)", sess.ID, sess.CharacterName)
	return nil
}
