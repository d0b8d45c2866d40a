package svc

import (
	"fmt"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/config"
	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/proactive"
	"github.com/soulchat/soulchat/internal/provider"
	"github.com/soulchat/soulchat/internal/realtime"
)

// ServiceContext carries the shared dependencies every handler needs.
type ServiceContext struct {
	Config config.Config

	Store        *db.Store
	Models       *provider.Store
	Registry     *ai.Registry
	Orchestrator *ai.Orchestrator
	Hub          *realtime.Hub
	Scheduler    *proactive.Scheduler
}

// NewServiceContext opens storage, loads the model catalog, and wires the
// inference and proactive layers together.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	store, err := db.NewSQLite(c.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	models := provider.NewStore(c.Providers.ModelsPath)
	if err := models.Watch(); err != nil {
		logging.Warnf("model catalog watch disabled: %v", err)
	}

	registry := ai.BuildRegistry(c, models)
	orch := ai.NewOrchestrator(registry, c.IsFallbackEnabled(), c.Providers.DefaultMaxTokens)
	hub := realtime.NewHub()

	scheduler := proactive.NewScheduler(store, orch, hub, proactive.Config{
		Enabled:             c.IsProactiveEnabled(),
		IntervalMinutes:     c.Proactive.IntervalMinutes,
		InactivityThreshold: c.Proactive.InactivityThreshold,
		MaxMessagesPerDay:   c.Proactive.MaxMessagesPerDay,
	})

	return &ServiceContext{
		Config:       c,
		Store:        store,
		Models:       models,
		Registry:     registry,
		Orchestrator: orch,
		Hub:          hub,
		Scheduler:    scheduler,
	}, nil
}

// Close releases everything the context holds.
func (sc *ServiceContext) Close() {
	if sc.Scheduler != nil {
		sc.Scheduler.Close()
	}
	if sc.Models != nil {
		sc.Models.Close()
	}
	if sc.Store != nil {
		if err := sc.Store.Close(); err != nil {
			logging.Errorf("closing database: %v", err)
		}
	}
}
