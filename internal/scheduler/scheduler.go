package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	invoicedomain "github.com/montessori/ecole/internal/invoice/domain"
	"github.com/montessori/ecole/internal/lock"
	obsmetrics "github.com/montessori/ecole/internal/observability/metrics"
	"github.com/montessori/ecole/internal/scheduler/guard"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     Config `optional:"true"`
	AppConfig  config.Config
	School     *config.SchoolConfigHolder
	InvoiceSvc invoicedomain.Service
	FamilySvc  familydomain.Service
	Notifier   *events.Notifier `optional:"true"`
	Locker     *lock.Locker     `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	school     *config.SchoolConfigHolder
	startMonth time.Month
	invoiceSvc invoicedomain.Service
	familySvc  familydomain.Service
	notifier   *events.Notifier
	locker     *lock.Locker

	mu           sync.Mutex
	lastReminder string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.School == nil || p.InvoiceSvc == nil || p.FamilySvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		school:     p.School,
		startMonth: time.Month(p.AppConfig.SchoolYearStartMonth),
		invoiceSvc: p.InvoiceSvc,
		familySvc:  p.FamilySvc,
		notifier:   p.Notifier,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.beginRun(ctx, name)
	log := s.logger(ctx).With(run.fields()...)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.failures == 0 {
			run.IncError()
		}
		s.endRun(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout, the next tick retries
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobOverdueInvoices, s.OverdueInvoicesJob},
		{JobDailyReminders, s.DailyRemindersJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// OverdueInvoicesJob moves sent or partially paid invoices past their due date to EN_RETARD.
func (s *Scheduler) OverdueInvoicesJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobOverdueInvoices)
	if owner {
		defer s.endRun(ctx, run)
	}

	updated, err := s.invoiceSvc.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		s.failRun(ctx, run, "scheduler.overdue.failed", err)
		return err
	}
	run.AddProcessed(int(updated))
	obsmetrics.Scheduler().AddBatchProcessed(JobOverdueInvoices, "invoices", int(updated))
	if updated > 0 {
		s.logger(ctx).Info("scheduler.overdue.marked", zap.Int64("count", updated))
	}
	return nil
}

// DailyRemindersJob announces the rentrée on the configured reminder day. It
// fires at most once per day per process, and once across instances when a
// redis lock is available.
func (s *Scheduler) DailyRemindersJob(ctx context.Context) (err error) {
	ctx, run, owner := s.beginRun(ctx, JobDailyReminders)
	if owner {
		defer s.endRun(ctx, run)
	}

	now := s.clock.Now()
	reminder := s.school.Get().Reminder
	if err := guard.EnsureReminderDay(now, reminder.Month, reminder.Day); err != nil {
		if errors.Is(err, guard.ErrNotReminderDay) {
			return nil
		}
		return err
	}

	day := now.Format("2006-01-02")
	if s.remindedOn(day) {
		return nil
	}

	if s.locker.Enabled() {
		key := lock.Key("scheduler", JobDailyReminders, day)
		token, ok, lockErr := s.locker.TryLock(ctx, key, s.cfg.ReminderLockTTL)
		if lockErr != nil {
			return lockErr
		}
		if !ok {
			obsmetrics.Scheduler().IncLockSkipped(JobDailyReminders)
			s.markReminded(day)
			return nil
		}
		// the lock is kept on success so other instances skip the day
		defer func() {
			if err != nil {
				if releaseErr := s.locker.Release(context.WithoutCancel(ctx), key, token); releaseErr != nil {
					s.logger(ctx).Warn("scheduler.lock.release_failed", zap.Error(releaseErr))
				}
			}
		}()
	}

	year := guard.UpcomingSchoolYear(now, s.startMonth)
	children, err := s.familySvc.ChildrenAwaitingEnrollment(ctx, year.String())
	if err != nil {
		s.failRun(ctx, run, "scheduler.reminder.failed", err, zap.String("school_year", year.String()))
		return err
	}

	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, child.FullName())
	}
	s.notifier.Notify(ctx, events.TypeRentreeReminder, map[string]any{
		"school_year": year.String(),
		"count":       len(children),
		"children":    names,
	})
	s.markReminded(day)

	run.AddProcessed(len(children))
	obsmetrics.Scheduler().AddBatchProcessed(JobDailyReminders, "children", len(children))
	s.logger(ctx).Info("scheduler.reminder.sent",
		zap.String("school_year", year.String()),
		zap.Int("children", len(children)),
	)
	return nil
}

func (s *Scheduler) remindedOn(day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReminder == day
}

func (s *Scheduler) markReminded(day string) {
	s.mu.Lock()
	s.lastReminder = day
	s.mu.Unlock()
}
