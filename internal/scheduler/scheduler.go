// Package scheduler drives recurring import runs: a cron-backed trigger per
// workspace and an ordered chain so dependent imports run after categories.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ChainBuilder produces the import chain for one workspace at trigger time,
// so configuration changes between ticks are picked up.
type ChainBuilder func(workspaceID int64) (*Chain, error)

// Scheduler runs each registered workspace's import chain on a fixed
// interval. One chain runs at a time per workspace; overlapping ticks are
// absorbed by the import log's in-progress guard.
type Scheduler struct {
	cron    *cron.Cron
	build   ChainBuilder
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

func New(build ChainBuilder, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		build:   build,
		logger:  logger,
		entries: make(map[int64]cron.EntryID),
	}
}

// ScheduleImports registers or replaces the recurring trigger for a
// workspace.
func (s *Scheduler) ScheduleImports(workspaceID int64, every time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[workspaceID]; ok {
		s.cron.Remove(entryID)
	}
	entryID := s.cron.Schedule(cron.Every(every), cron.FuncJob(func() {
		s.runWorkspace(workspaceID)
	}))
	s.entries[workspaceID] = entryID
	s.logger.Info("scheduled workspace imports", "workspace_id", workspaceID, "every", every)
}

func (s *Scheduler) Unschedule(workspaceID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[workspaceID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, workspaceID)
		s.logger.Info("unscheduled workspace imports", "workspace_id", workspaceID)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns once in-flight jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runWorkspace(workspaceID int64) {
	chain, err := s.build(workspaceID)
	if err != nil {
		s.logger.Error("failed to build import chain", "workspace_id", workspaceID, "error", err)
		return
	}
	if chain.Len() == 0 {
		s.logger.Debug("no imports configured", "workspace_id", workspaceID)
		return
	}
	chain.Run(context.Background())
}
