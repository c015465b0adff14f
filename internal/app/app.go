package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bdaybot/internal/birthday"
	"bdaybot/internal/config"
	"bdaybot/internal/notify"
	"bdaybot/internal/registry"
	"bdaybot/internal/scheduler"
	kit "bdaybot/internal/transport"
	telegram "bdaybot/internal/transport/telegram/adapter"
	"bdaybot/internal/transport/telegram/router"
	logx "bdaybot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	store   registry.Store
	reg     *registry.Registry
	index   *birthday.Index
	notif   *notify.Service
	sched   *scheduler.Service
	router  *router.Router

	updates chan kit.Update

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	regCfg, err := mapRegistryConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := registry.OpenStore(regCfg, logSvc.Logger().With(logx.String("comp", "registry")))
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(context.Background(), store, logSvc.Logger().With(logx.String("comp", "registry")))
	if err != nil {
		store.Close()
		return nil, err
	}
	log.Info("subscriber registry loaded", logx.Int("subscribers", reg.Len()))

	src := birthday.NewXLSXSource(cfg.Data.Path, cfg.Data.Sheet, logSvc.Logger().With(logx.String("comp", "birthday")))
	index := birthday.NewIndex(src, logSvc.Logger().With(logx.String("comp", "birthday")))

	ncfg, scfg, err := mapBroadcastConfig(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	notif := notify.New(ncfg, ad, reg, index, logSvc.Logger().With(logx.String("comp", "notify")))

	sched, err := scheduler.New(scfg, func(c context.Context) error {
		_, err := notif.BroadcastToday(c)
		return err
	}, logSvc.Logger().With(logx.String("comp", "scheduler")))
	if err != nil {
		store.Close()
		return nil, err
	}

	rtr := router.New(logSvc.Logger().With(logx.String("comp", "router")), ad)
	rtr.SetRegistry(router.Commands(reg, notif))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		adapter: ad,
		store:   store,
		reg:     reg,
		index:   index,
		notif:   notif,
		sched:   sched,
		router:  rtr,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app run context is cancelled (Stop or fatal error).
func (a *App) Done() <-chan struct{} {
	if a.runCtx == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.runCtx.Done()
}

func (a *App) Start(ctx context.Context) error {
	a.runCtx, a.cancel = context.WithCancel(ctx)

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.runCtx, a.updates); err != nil {
		return err
	}

	if a.sched.Enabled() {
		a.sched.Start(a.runCtx)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.router.DispatchLoop(a.runCtx, a.updates)
	}()

	// hot reload fan-out
	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-a.runCtx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(newCfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(a.runCtx); err != nil {
			a.log.Warn("config watcher exited", logx.Err(err))
		}
	}()

	a.log.Info("app started")
	return nil
}

// applyConfig applies a validated hot-reloaded config. Logging and the
// broadcast schedule update live; everything else needs a restart.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	// Delivery tuning (workers/rate/timeout) applies on restart; the schedule
	// itself updates live.
	_, scfg, err := mapBroadcastConfig(cfg)
	if err != nil {
		// validateConfig runs before publish, so this should not happen.
		a.log.Warn("invalid broadcast config; keeping previous", logx.Err(err))
		return
	}
	a.sched.Apply(scfg)

	a.log.Info("config reloaded",
		logx.Bool("broadcast_enabled", scfg.Enabled),
		logx.String("broadcast_at", scfg.At),
		logx.String("broadcast_tz", scfg.Timezone),
	)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.cancel == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so background loops start unwinding.
	a.cancel()

	// step bounds one shutdown stage so a stuck component can't stall the rest.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem > 0 && rem < max {
					max = rem
				}
			}
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("loops", 2*time.Second, func(c context.Context) error {
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-c.Done():
			return c.Err()
		}
	})
	step("registry", 1*time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

func mapRegistryConfig(cfg *config.Config) (registry.Config, error) {
	busy, err := config.ParseDurationField("registry.busy_timeout", cfg.Registry.BusyTimeout)
	if err != nil {
		return registry.Config{}, err
	}
	return registry.Config{
		Driver:      cfg.Registry.Driver,
		Path:        cfg.Registry.Path,
		BusyTimeout: busy,
	}, nil
}

// mapBroadcastConfig resolves the broadcast section with its stock defaults:
// enabled, 08:00, Europe/Moscow.
func mapBroadcastConfig(cfg *config.Config) (notify.Config, scheduler.Config, error) {
	bc := cfg.Broadcast
	if bc == nil {
		bc = &config.BroadcastConfig{}
	}

	enabled := true
	if bc.Enabled != nil {
		enabled = *bc.Enabled
	}
	at := strings.TrimSpace(bc.At)
	if at == "" {
		at = "08:00"
	}
	tz := strings.TrimSpace(bc.Timezone)
	if tz == "" {
		tz = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return notify.Config{}, scheduler.Config{}, fmt.Errorf("broadcast.timezone: invalid %q: %w", tz, err)
	}
	if _, _, err := scheduler.ParseHHMM(at); err != nil {
		return notify.Config{}, scheduler.Config{}, fmt.Errorf("broadcast.at: %w", err)
	}
	sendTimeout, err := config.ParseDurationField("broadcast.send_timeout", bc.SendTimeout)
	if err != nil {
		return notify.Config{}, scheduler.Config{}, err
	}
	if bc.Workers < 0 {
		return notify.Config{}, scheduler.Config{}, fmt.Errorf("broadcast.workers must be >= 0")
	}
	if bc.RatePerSec < 0 {
		return notify.Config{}, scheduler.Config{}, fmt.Errorf("broadcast.rate_per_sec must be >= 0")
	}

	ncfg := notify.Config{
		Workers:     bc.Workers,
		RatePerSec:  bc.RatePerSec,
		SendTimeout: sendTimeout,
		Location:    loc,
	}
	scfg := scheduler.Config{
		Enabled:  enabled,
		At:       at,
		Timezone: tz,
	}
	return ncfg, scfg, nil
}

func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is empty")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, _, err := mapBroadcastConfig(cfg); err != nil {
		return err
	}
	if _, err := mapRegistryConfig(cfg); err != nil {
		return err
	}
	return nil
}
