package router

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	kit "bdaybot/internal/transport"
	logx "bdaybot/pkg/logx"
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger := log
					if req != nil && !req.Logger.IsZero() {
						logger = req.Logger
					}
					logger.Error("panic recovered",
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			logger := log
			if req != nil && !req.Logger.IsZero() {
				logger = req.Logger
			}
			err := next(ctx, req)
			d := time.Since(start)

			fields := []logx.Field{
				logx.Int64("chat_id", req.Chat.ChatID),
				logx.Int64("from_id", req.FromID),
				logx.String("cmd", req.Command),
				logx.Duration("dur", d),
			}
			if err != nil {
				logger.Warn("request failed", append(fields, logx.Err(err))...)
			} else {
				logger.Debug("request ok", fields...)
			}
			return err
		}
	}
}

var ridSeq uint64

func newReqID() string {
	n := atomic.AddUint64(&ridSeq, 1)
	return base36(time.Now().UnixNano()) + "-" + base36(int64(n)) + randSuffix(2)
}

func randSuffix(n int) string {
	const alpha = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alpha[rand.Intn(len(alpha))])
	}
	return b.String()
}

func base36(v int64) string {
	const chars = "0123456789abcdefghijklmnopqrstuvwxyz"
	if v < 0 {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var out [32]byte
	i := len(out)
	for v > 0 {
		i--
		out[i] = chars[v%36]
		v /= 36
	}
	return string(out[i:])
}

// Command is one routable bot command.
type Command struct {
	Route       string
	Description string
	// ButtonLabel makes the command reachable from a persistent reply-keyboard
	// button with this exact text.
	ButtonLabel string
	Timeout     time.Duration
	Handle      HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	ReqID   string

	Adapter kit.Adapter
	Logger  logx.Logger
}

// Router dispatches incoming updates to a flat command table. Matching is by
// leading /command token or by exact reply-keyboard button text.
type Router struct {
	mu      sync.RWMutex
	byRoute map[string]Command
	byLabel map[string]Command
	menu    []kit.BotCommand

	log     logx.Logger
	adapter kit.Adapter

	jobs chan func()
}

func New(log logx.Logger, adapter kit.Adapter) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		byRoute: map[string]Command{},
		byLabel: map[string]Command{},
		log:     log,
		adapter: adapter,
		jobs:    make(chan func(), 64),
	}
}

// SetRegistry replaces the command table and (best-effort) pushes the
// command list to the platform menu.
func (r *Router) SetRegistry(cmds []Command) {
	byRoute := map[string]Command{}
	byLabel := map[string]Command{}
	menu := make([]kit.BotCommand, 0, len(cmds))

	for _, c := range cmds {
		route := strings.TrimSpace(strings.TrimPrefix(c.Route, "/"))
		if route == "" || c.Handle == nil {
			continue
		}
		cc := c
		cc.Route = route
		byRoute[route] = cc
		if label := strings.TrimSpace(c.ButtonLabel); label != "" {
			byLabel[label] = cc
		}
		menu = append(menu, kit.BotCommand{Command: route, Description: c.Description})
	}

	r.mu.Lock()
	r.byRoute = byRoute
	r.byLabel = byLabel
	r.menu = menu
	r.mu.Unlock()

	if up, ok := r.adapter.(kit.CommandMenuUpdater); ok {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := up.UpdateMenuCommands(ctx, menu); err != nil {
				r.log.Warn("menu update failed", logx.Err(err))
			}
		}()
	}
}

// tryEnqueue is panic-safe against the jobs channel being closed mid-shutdown.
func (r *Router) tryEnqueue(fn func()) (ok bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	select {
	case r.jobs <- fn:
		return true
	default:
		return false
	}
}

// DispatchLoop consumes updates until ctx is cancelled or the channel closes.
// Handlers run on a single worker goroutine: intake stays decoupled from
// handler latency, and subscribe/unsubscribe replies keep update order.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for job := range r.jobs {
			if job == nil {
				continue
			}
			job()
		}
	}()

	r.log.Info("dispatcher started", logx.Int("job_queue_cap", cap(r.jobs)))

	defer func() {
		close(r.jobs)
		wg.Wait()
		r.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.routeMessage(ctx, up)
		}
	}
}

func (r *Router) routeMessage(root context.Context, up kit.Update) {
	if up.Message == nil {
		return
	}
	msg := up.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	r.mu.RLock()
	byRoute := r.byRoute
	byLabel := r.byLabel
	r.mu.RUnlock()

	var (
		cmd Command
		hit bool
	)
	if strings.HasPrefix(text, "/") {
		word := strings.TrimPrefix(strings.Fields(text)[0], "/")
		if i := strings.IndexByte(word, '@'); i >= 0 {
			word = word[:i]
		}
		cmd, hit = byRoute[word]
		if !hit {
			_, _ = r.adapter.SendText(root, kit.ChatTarget{ChatID: msg.ChatID}, msgUnknownCommand, nil)
			return
		}
	} else {
		// Reply-keyboard buttons arrive as plain text; anything else is noise.
		if cmd, hit = byLabel[text]; !hit {
			return
		}
	}

	rid := newReqID()
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID},
		FromID:  msg.FromID,
		Command: cmd.Route,
		ReqID:   rid,
		Adapter: r.adapter,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.String("cmd", cmd.Route),
		),
	}

	final := Chain(
		cmd.Handle,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(cmd.Timeout),
	)

	if !r.tryEnqueue(func() { _ = final(root, req) }) {
		r.log.Warn("job queue full, update dropped", logx.Int64("chat_id", msg.ChatID), logx.String("cmd", cmd.Route))
	}
}
