package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soundcrew/houston/internal/clock"
	"github.com/soundcrew/houston/internal/ticket"
)

// runTimeout bounds one firing of a report job across all its chats.
const runTimeout = 2 * time.Minute

// ReportSender delivers a ticket report to a chat.
type ReportSender interface {
	DeliverReport(ctx context.Context, chatID int64, f ticket.Filter) error
}

// Scheduler manages cron-based report deliveries.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   map[string]cron.EntryID // job name → entry ID
	sender ReportSender
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new scheduler.
func New(sender ReportSender, clk clock.Clock, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]cron.EntryID),
		sender: sender,
		clock:  clk,
		logger: logger,
	}
}

// Start begins the cron scheduler. Blocks until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.JobCount())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// AddMonthlyReport schedules a digest of the previous calendar month's
// tickets, delivered to every chat in chats. The schedule is a standard
// 5-field cron expression or a descriptor like @monthly. Adding a job
// under an existing name replaces it.
func (s *Scheduler) AddMonthlyReport(name, schedule string, chats []int64) error {
	if len(chats) == 0 {
		return fmt.Errorf("scheduler: job %q has no chats", name)
	}
	chats = append([]int64(nil), chats...)
	return s.addJob(name, schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunMonthlyReport(ctx, chats)
	})
}

// RunMonthlyReport delivers the previous month's report to chats now. A
// failing chat does not stop delivery to the rest.
func (s *Scheduler) RunMonthlyReport(ctx context.Context, chats []int64) {
	month := PreviousMonth(s.clock.Now())
	f := ticket.ByMonth(month)
	for _, chatID := range chats {
		if err := s.sender.DeliverReport(ctx, chatID, f); err != nil {
			s.logger.Error("monthly report failed", "chat_id", chatID, "month", month, "error", err)
			continue
		}
		s.logger.Info("monthly report sent", "chat_id", chatID, "month", month)
	}
}

func (s *Scheduler) addJob(name, schedule string, run func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked", "job", name, "panic", fmt.Sprintf("%v", r))
			}
		}()
		s.logger.Info("cron fired", "job", name)
		run()
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}

	if prev, ok := s.jobs[name]; ok {
		s.cron.Remove(prev)
		s.logger.Info("job replaced", "job", name)
	}
	s.jobs[name] = id
	s.logger.Info("job registered", "job", name, "schedule", schedule)
	return nil
}

// JobCount returns the number of scheduled jobs.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// PreviousMonth returns the YYYY-MM month before t's month.
func PreviousMonth(t time.Time) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, -1, 0).Format("2006-01")
}
