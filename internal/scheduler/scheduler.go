package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/crowquill/internal/types"
)

// Handler is the callback invoked when an account's session schedule fires.
type Handler func(account types.AccountID)

// Entry binds one account to its cron schedule.
type Entry struct {
	Account  types.AccountID
	Schedule string
}

// Scheduler fires account engagement sessions on cron schedules.
type Scheduler struct {
	entries []Entry
	handler Handler
	cron    *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler for the given entries. The handler is called
// each time an account's schedule fires.
func New(entries []Entry, handler Handler) *Scheduler {
	return &Scheduler{
		entries: entries,
		handler: handler,
		cron:    cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers every entry with a valid schedule and starts the cron
// ticker. Invalid schedules are logged and skipped so one bad account
// never blocks the rest.
func (s *Scheduler) Start() error {
	for _, entry := range s.entries {
		if entry.Schedule == "" {
			continue
		}

		account := entry.Account
		_, err := s.cron.AddFunc(entry.Schedule, func() {
			slog.Info("cron firing session", "account", account)
			s.handler(account)
		})
		if err != nil {
			slog.Error("invalid cron schedule", "account", account, "schedule", entry.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled account sessions", "account", account, "schedule", entry.Schedule)
	}

	s.cron.Start()
	return nil
}

// Reload stops the existing cron, creates a new one, and calls Start() again.
func (s *Scheduler) Reload(entries []Entry) error {
	s.cron.Stop()
	s.entries = entries
	s.cron = cron.New(cron.WithParser(cronParser))
	return s.Start()
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
