package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/floracafe/cafesite/store"
	"github.com/robfig/cron/v3"
)

// IsOpen reports whether now falls inside the schedule's opening hours.
// Hours that wrap past midnight are supported. A disabled schedule is
// always open.
func IsOpen(schedule *store.Schedule, now time.Time) (bool, error) {
	if !schedule.Enabled {
		return true, nil
	}

	startTime, err := time.Parse("15:04", schedule.Start)
	if err != nil {
		return false, fmt.Errorf("start time with invalid format %q: %w", schedule.Start, err)
	}
	endTime, err := time.Parse("15:04", schedule.End)
	if err != nil {
		return false, fmt.Errorf("end time with invalid format %q: %w", schedule.End, err)
	}

	minutes := now.Hour()*60 + now.Minute()
	start := startTime.Hour()*60 + startTime.Minute()
	end := endTime.Hour()*60 + endTime.Minute()

	switch {
	case start == end:
		return true, nil
	case start < end:
		return minutes >= start && minutes < end, nil
	default:
		return minutes >= start || minutes < end, nil
	}
}

// ScheduleManager runs the periodic housekeeping jobs: it keeps the open flag
// in line with the opening hours, expires stale reservations and prunes
// sessions.
type ScheduleManager struct {
	db      *store.Database
	loc     *time.Location
	setOpen func(bool)
	prune   func() int
	now     func() time.Time

	lastOpen *bool

	keepToken string
	keepTTL   time.Duration
}

func NewScheduleManager(db *store.Database, loc *time.Location, setOpen func(bool), prune func() int) (*ScheduleManager, error) {
	if db == nil {
		return nil, errors.New("no database provided for scheduler")
	}
	if loc == nil {
		loc = time.UTC
	}
	if setOpen == nil {
		setOpen = func(bool) {}
	}
	if prune == nil {
		prune = func() int { return 0 }
	}
	return &ScheduleManager{
		db:      db,
		loc:     loc,
		setOpen: setOpen,
		prune:   prune,
		now:     time.Now,
	}, nil
}

func (s *ScheduleManager) checkSchedule() {
	schedule, err := s.db.GetSchedule()
	if err != nil {
		slog.Error("unable to get schedule", "error", err)
		return
	}

	now := s.now().In(s.loc)
	open, err := IsOpen(schedule, now)
	if err != nil {
		slog.Warn("unable to evaluate schedule", "error", err)
		return
	}

	if s.lastOpen == nil || *s.lastOpen != open {
		if open {
			slog.Info("café is open", "time", now.Format(time.DateTime))
		} else {
			slog.Info("café is closed", "time", now.Format(time.DateTime))
		}
	}
	s.lastOpen = &open
	s.setOpen(open)
}

// expireReservations cancels pending reservations whose time has passed.
func (s *ScheduleManager) expireReservations() {
	n, err := s.db.ExpireReservations(s.now().In(s.loc))
	if err != nil {
		slog.Error("unable to expire reservations", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired past reservations", "count", n)
	}
}

// KeepSessionAlive renews the session for token by ttl every time sessions
// are pruned, so a long running credential never lapses. Call it before Run.
func (s *ScheduleManager) KeepSessionAlive(token string, ttl time.Duration) {
	s.keepToken = token
	s.keepTTL = ttl
}

func (s *ScheduleManager) renewSession() {
	if s.keepToken == "" {
		return
	}
	session, err := s.db.ExtendSession(s.keepToken, s.keepTTL)
	if err != nil {
		slog.Error("unable to renew manager session", "error", err)
		return
	}
	slog.Debug("renewed manager session", "expires_at", session.ExpiresAt)
}

func (s *ScheduleManager) pruneSessions() {
	s.renewSession()

	n, err := s.db.DeleteExpiredSessions()
	if err != nil {
		slog.Error("unable to prune sessions", "error", err)
		return
	}
	clients := s.prune()
	if n > 0 || clients > 0 {
		slog.Debug("pruned expired state", "sessions", n, "rate_limit_clients", clients)
	}
}

// Run starts the jobs and blocks until ctx is cancelled.
func (s *ScheduleManager) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))

	jobs := []struct {
		spec string
		fn   func()
	}{
		{"@every 1m", s.checkSchedule},
		{"5 0 * * *", s.expireReservations},
		{"@hourly", s.pruneSessions},
	}
	for _, job := range jobs {
		if _, err := c.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("unable to schedule %q: %w", job.spec, err)
		}
	}

	s.checkSchedule()
	s.expireReservations()
	s.renewSession()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
