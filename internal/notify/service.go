package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	kit "bdaybot/internal/transport"
	logx "bdaybot/pkg/logx"
)

type Config struct {
	// Workers bounds delivery parallelism. <=0 means 4.
	Workers int
	// RatePerSec caps outbound sends across all workers. <=0 means 10.
	RatePerSec int
	// SendTimeout bounds one recipient delivery; an unresponsive recipient is
	// recorded as failed, not waited for. <=0 means 30s.
	SendTimeout time.Duration
	// Location is the timezone "today" is computed in.
	Location *time.Location
}

// Subscribers is the slice of the registry the notifier needs.
type Subscribers interface {
	List() []int64
	Contains(id int64) bool
}

// Birthdays answers the day+month lookup.
type Birthdays interface {
	Today(ctx context.Context, day int, month time.Month) ([]string, error)
}

// Report is the outcome of one broadcast cycle. Failures are counted, never
// escalated: one blocked chat must not starve the rest.
type Report struct {
	Total     int
	OK        int
	Failed    int
	FailedIDs []int64
	Names     int
	Took      time.Duration
}

// Service runs the daily broadcast and answers interactive queries.
type Service struct {
	cfg     Config
	adapter kit.Adapter
	subs    Subscribers
	bds     Birthdays
	log     logx.Logger

	limiter *rate.Limiter

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg Config, adapter kit.Adapter, subs Subscribers, bds Birthdays, log logx.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		adapter: adapter,
		subs:    subs,
		bds:     bds,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		now:     time.Now,
	}
}

// BroadcastToday computes today's birthdays and delivers the message to every
// subscriber independently. The returned error covers only the lookup stage;
// per-recipient delivery failures land in the Report.
func (s *Service) BroadcastToday(ctx context.Context) (Report, error) {
	start := s.now()
	today := start.In(s.cfg.Location)

	names, err := s.bds.Today(ctx, today.Day(), today.Month())
	if err != nil {
		return Report{}, err
	}
	msg := FormatToday(names)
	targets := s.subs.List()

	rep := s.fanOut(ctx, targets, msg)
	rep.Names = len(names)
	rep.Took = time.Since(start)

	s.log.Info("broadcast cycle done",
		logx.Int("names", rep.Names),
		logx.Int("recipients", rep.Total),
		logx.Int("ok", rep.OK),
		logx.Int("failed", rep.Failed),
		logx.Duration("took", rep.Took),
	)
	return rep, nil
}

// QueryToday is the interactive one-shot lookup. The second return is false
// when id is not subscribed; the birthday list is never revealed to
// non-subscribers.
func (s *Service) QueryToday(ctx context.Context, id int64) (string, bool, error) {
	if !s.subs.Contains(id) {
		return "", false, nil
	}
	today := s.now().In(s.cfg.Location)
	names, err := s.bds.Today(ctx, today.Day(), today.Month())
	if err != nil {
		return "", true, err
	}
	return FormatToday(names), true, nil
}

// fanOut delivers text to every target with bounded parallelism. Each target
// gets its own timeout and its own failure accounting; sibling deliveries are
// never cancelled by one failure.
func (s *Service) fanOut(ctx context.Context, targets []int64, text string) Report {
	rep := Report{Total: len(targets)}
	if len(targets) == 0 {
		return rep
	}

	workers := s.cfg.Workers
	if workers > len(targets) {
		workers = len(targets)
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		queue = make(chan int64)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				if err := s.sendOne(ctx, id, text); err != nil {
					s.log.Warn("delivery failed", logx.Int64("chat_id", id), logx.Err(err))
					mu.Lock()
					rep.Failed++
					rep.FailedIDs = append(rep.FailedIDs, id)
					mu.Unlock()
					continue
				}
				mu.Lock()
				rep.OK++
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range targets {
		select {
		case queue <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	// Targets never handed to a worker (shutdown mid-cycle) count as failed.
	if done := rep.OK + rep.Failed; done < rep.Total {
		rep.Failed += rep.Total - done
	}
	return rep
}

func (s *Service) sendOne(parent context.Context, id int64, text string) error {
	if err := s.limiter.Wait(parent); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(parent, s.cfg.SendTimeout)
	defer cancel()
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: id}, text, nil)
	return err
}
