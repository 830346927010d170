package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers recurring search runs on a fixed interval. It is
// optional; when disabled the pipeline only runs on demand.
type Scheduler interface {
	Start() error
	Stop()
}

type scheduler struct {
	cron          *cron.Cron
	orchestrator  OrchestratorService
	sources       []string
	intervalHours int
	maxPages      int
	autoScore     bool
	autoEmbed     bool
}

func NewScheduler(orchestrator OrchestratorService, sources []string, intervalHours, maxPages int, autoScore, autoEmbed bool) Scheduler {
	if intervalHours < 1 {
		intervalHours = 1
	}
	return &scheduler{
		cron:          cron.New(),
		orchestrator:  orchestrator,
		sources:       sources,
		intervalHours: intervalHours,
		maxPages:      maxPages,
		autoScore:     autoScore,
		autoEmbed:     autoEmbed,
	}
}

// Start registers the recurring run and launches the cron loop.
func (s *scheduler) Start() error {
	spec := fmt.Sprintf("@every %dh", s.intervalHours)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("failed to register scheduled search: %w", err)
	}

	s.cron.Start()
	log.Printf("⏰ Scheduler started: searching %v every %dh\n", s.sources, s.intervalHours)
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✅ Scheduler stopped")
}

func (s *scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	run, err := s.orchestrator.Run(ctx, RunParams{
		Sources:   s.sources,
		MaxPages:  s.maxPages,
		AutoScore: s.autoScore,
		AutoEmbed: s.autoEmbed,
	})
	if err != nil {
		log.Printf("❌ Scheduled search run failed: %v\n", err)
		return
	}
	log.Printf("⏰ Scheduled run %s: found=%d new=%d\n", run.ID, run.JobsFound, run.NewJobs)
}
