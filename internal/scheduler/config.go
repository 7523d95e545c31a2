package scheduler

import (
	"strings"
	"time"

	"github.com/montessori/ecole/internal/config"
)

const (
	JobDailyReminders  = "daily_reminders"
	JobOverdueInvoices = "overdue_invoices"
)

// Config controls scheduler intervals and which jobs run in this process.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	// ReminderLockTTL outlives the reminder day so a second instance that
	// ticks later the same day still finds the lock.
	ReminderLockTTL time.Duration
	EnabledJobs     []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:     time.Minute,
		JobTimeout:      30 * time.Second,
		ReminderLockTTL: 26 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.ReminderLockTTL <= 0 {
		c.ReminderLockTTL = defaults.ReminderLockTTL
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	if cfg.Scheduler.RunInterval > 0 {
		out.RunInterval = cfg.Scheduler.RunInterval
	}
	for _, job := range strings.Split(cfg.Scheduler.EnabledJobs, ",") {
		if job = strings.TrimSpace(job); job != "" {
			out.EnabledJobs = append(out.EnabledJobs, job)
		}
	}
	return out
}
