package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "bdaybot/pkg/logx"
)

type Config struct {
	Enabled bool
	// At is the daily fire time, "HH:MM".
	At string
	// Timezone is an IANA name. Empty falls back to the process-local zone.
	Timezone string
}

// Job is the work fired once per day. Its error is logged, never escalated:
// the trigger stays armed for the next day regardless of the outcome.
type Job func(ctx context.Context) error

// Service owns the single daily cron entry. A fire that arrives while the
// previous job is still running is delayed behind it (never run concurrently),
// via cron's DelayIfStillRunning chain.
type Service struct {
	mu sync.Mutex

	cfg Config
	log logx.Logger
	job Job

	loc    *time.Location
	c      *cron.Cron
	runCtx context.Context
}

func New(cfg Config, job Job, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if _, _, err := ParseHHMM(atOrDefault(cfg.At)); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, job: job, log: log}, nil
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.runCtx = ctx
	s.startLocked()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	// cron.Stop lets an in-flight job finish; bound the wait by ctx.
	done := s.c.Stop().Done()
	s.c = nil
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out waiting for running job")
	}
	s.log.Info("scheduler stopped")
}

// Apply restarts the cron entry when the schedule changed. Safe for hot
// reload; a running job is not interrupted.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := ParseHHMM(atOrDefault(cfg.At)); err != nil {
		s.log.Warn("invalid broadcast time, keeping previous schedule", logx.Err(err))
		return
	}

	changed := s.cfg.At != cfg.At || s.cfg.Timezone != cfg.Timezone || s.cfg.Enabled != cfg.Enabled
	s.cfg = cfg
	if !changed || s.runCtx == nil {
		return
	}

	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if cfg.Enabled {
		s.startLocked()
		s.log.Info("scheduler restarted", logx.String("at", atOrDefault(cfg.At)), logx.String("tz", s.loc.String()))
	} else {
		s.log.Info("scheduler disabled via config")
	}
}

func (s *Service) startLocked() {
	hour, minute, _ := ParseHHMM(atOrDefault(s.cfg.At))
	s.loc = s.loadLocationLocked()

	clog := cronLog{log: s.log}
	s.c = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.DelayIfStillRunning(clog)),
	)

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err := s.c.AddFunc(spec, s.fire)
	if err != nil {
		// spec is built from validated HH:MM, so this is unreachable in practice
		s.log.Error("cron registration failed", logx.Err(err), logx.String("spec", spec))
		return
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.String("at", atOrDefault(s.cfg.At)),
		logx.String("tz", s.loc.String()),
		logx.Time("next_fire", NextFire(time.Now(), hour, minute, s.loc)),
	)
}

func (s *Service) fire() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.Warn("daily job failed", logx.Err(err), logx.Duration("took", time.Since(start)))
		return
	}
	s.log.Info("daily job ok", logx.Duration("took", time.Since(start)))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func atOrDefault(at string) string {
	if strings.TrimSpace(at) == "" {
		return "08:00"
	}
	return at
}

// NextFire returns the next daily fire instant strictly after now for a
// HH:MM-in-location schedule. Pure; used for startup logging and tests.
func NextFire(now time.Time, hour, minute int, loc *time.Location) time.Time {
	n := now.In(loc)
	next := time.Date(n.Year(), n.Month(), n.Day(), hour, minute, 0, 0, loc)
	if !next.After(n) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func ParseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// cronLog bridges cron's logger to logx.
type cronLog struct{ log logx.Logger }

func (l cronLog) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (l cronLog) Error(err error, msg string, kv ...interface{}) {
	l.log.Warn("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}
