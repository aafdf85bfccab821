package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is a named function run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs maintenance jobs. A job still running when its next
// tick arrives is skipped rather than run twice.
type Scheduler struct {
	cron *cron.Cron

	mu         sync.Mutex
	entries    map[string]cron.EntryID
	ctx        context.Context
	cancelFunc context.CancelFunc
	isRunning  bool
}

func New() *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}
}

// ValidateSchedule reports whether expr is a five-field cron expression or descriptor.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return errors.New("schedule is empty")
	}
	_, err := parser.Parse(expr)
	return err
}

// Add registers a job. Jobs may be added before or after Start.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no function", job.Name)
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("job %q already scheduled", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Printf("Scheduler: %s failed: %v", job.Name, err)
			return
		}
		log.Printf("Scheduler: %s finished in %v", job.Name, time.Since(started).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
	}
	s.entries[job.Name] = id
	return nil
}

// Start begins running jobs until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.isRunning = true
	runCtx := s.ctx
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.Unlock()

	s.cron.Start()
	for _, name := range names {
		log.Printf("Scheduler: %s next run at %v", name, s.NextRun(name))
	}

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()
	log.Printf("Scheduler: stopped")
}

// NextRun returns when the named job runs next, or the zero time if it is
// unknown or the scheduler is not running.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}
