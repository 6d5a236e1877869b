package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/fusionn-scout/internal/service/discovery"
	"github.com/fusionn-scout/pkg/logger"
)

// Runner is the job the scheduler triggers.
type Runner interface {
	ProcessDiscovery(ctx context.Context) (*discovery.Run, error)
}

type Scheduler struct {
	cron      *cron.Cron
	discovery Runner
	entry     cron.EntryID
	expr      string
	mu        sync.Mutex
	running   bool

	// ctx is cancelled by Stop so in-flight runs end early.
	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup
}

func New(discoveryService Runner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		discovery: discoveryService,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the scheduled job
func (s *Scheduler) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := s.schedule(cronExpr); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	logger.Infof("⏰ Scheduler: %s", cronExpr)

	return nil
}

// Reschedule replaces the cron expression, e.g. after a config reload.
func (s *Scheduler) Reschedule(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cronExpr == s.expr {
		return nil
	}

	old := s.entry
	if err := s.schedule(cronExpr); err != nil {
		return err
	}
	s.cron.Remove(old)

	logger.Infof("⏰ Scheduler: %s", cronExpr)
	return nil
}

func (s *Scheduler) schedule(cronExpr string) error {
	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	cronWithSeconds := "0 " + cronExpr

	entry, err := s.cron.AddFunc(cronWithSeconds, func() {
		s.runJob()
	})
	if err != nil {
		return err
	}

	s.entry = entry
	s.expr = cronExpr
	return nil
}

// Stop gracefully stops the scheduler and cancels running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()

	if s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
	}

	s.jobs.Wait()
}

// RunNow triggers a discovery run in the background
func (s *Scheduler) RunNow() {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.run()
	}()
}

func (s *Scheduler) runJob() {
	s.jobs.Add(1)
	defer s.jobs.Done()
	s.run()
}

func (s *Scheduler) run() {
	if s.discovery == nil {
		return
	}
	if _, err := s.discovery.ProcessDiscovery(s.ctx); err != nil {
		logger.Errorf("❌ Discovery job failed: %v", err)
	}
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
