// Package core wires C1-C8 into the one handle a server process shares
// across connections (the "Core handle" row of SPEC_FULL.md §2): the session
// manager, the parameter table, and telemetry providers, plus a bounded
// worker pool and a supervised session reaper loop. The lifecycle mirrors
// the teacher's internal/rpc.Server: a shutdown channel closed once
// (Stop/stopOnce), supervised background goroutines (runCleanupLoop's
// ticker-select shape), and a cleanup pass that shuts telemetry down on the
// way out.
package core

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/cubrid/qxengine/internal/lfring/lfqueue"
	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/session"
	"github.com/cubrid/qxengine/internal/sysparam"
	"github.com/cubrid/qxengine/internal/telemetry"
)

// Config controls how a Core is built. Every field has a usable zero value;
// withDefaults fills the rest the way the teacher's daemon config applies
// compiled-in defaults before a YAML file is loaded.
type Config struct {
	SessionTableSize  int
	WorkerPoolSize    int
	TaskQueueCapacity int
	ReaperInterval    time.Duration
	ServiceName       string
	Params            *sysparam.Manager
	Logger            *telemetry.Logger
}

func (c Config) withDefaults() Config {
	if c.SessionTableSize <= 0 {
		c.SessionTableSize = 1024
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 8
	}
	if c.TaskQueueCapacity <= 0 {
		c.TaskQueueCapacity = 256
	}
	if c.ReaperInterval <= 0 {
		c.ReaperInterval = 60 * time.Second
	}
	if c.ServiceName == "" {
		c.ServiceName = "qxengine"
	}
	if c.Params == nil {
		c.Params = sysparam.NewManager()
	}
	if c.Logger == nil {
		c.Logger = telemetry.NewLogger(os.Stderr, c.Params.Get().ErLogDebug)
	}
	return c
}

type task struct {
	sessionID uint32
	fn        func(context.Context) error
}

// Core is the process-wide wiring handle. A zero Core is not usable; build
// one with New.
type Core struct {
	cfg Config

	Params   *sysparam.Manager
	Sessions *session.Manager
	Log      *telemetry.Logger
	Tel      *telemetry.Providers

	queue *lfqueue.Queue[task]

	g        *errgroup.Group
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  atomic.Bool
}

// New builds a Core from cfg: the session registry, the parameter table,
// and the OpenTelemetry tracer/meter providers, wiring er_log_debug's
// hot-reload to the logger's level the way internal/sysparam.Manager.OnChange
// is meant to be used.
func New(ctx context.Context, cfg Config) (*Core, error) {
	cfg = cfg.withDefaults()

	tel, err := telemetry.NewProviders(ctx, cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("core: telemetry: %w", err)
	}

	c := &Core{
		cfg:      cfg,
		Params:   cfg.Params,
		Sessions: session.NewManager(cfg.SessionTableSize, cfg.Params),
		Log:      cfg.Logger,
		Tel:      tel,
		queue:    lfqueue.New[task](cfg.TaskQueueCapacity),
	}

	cfg.Params.OnChange(func(p *sysparam.Params) { c.Log.SetDebug(p.ErLogDebug) })

	return c, nil
}

// Start launches the worker pool and the session reaper as errgroup-
// supervised goroutines, matching the teacher's Start spawning
// handleSignals/runCleanupLoop. It returns immediately; call Wait or Stop
// to block on shutdown.
func (c *Core) Start(ctx context.Context) {
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	c.cancel = cancel
	c.g = g

	for i := 0; i < c.cfg.WorkerPoolSize; i++ {
		g.Go(func() error { return c.runWorker(gctx) })
	}
	g.Go(func() error { return c.runReaper(gctx) })
}

// Wait blocks until every supervised goroutine has exited, returning the
// first non-nil error any of them returned.
func (c *Core) Wait() error {
	if c.g == nil {
		return nil
	}
	return c.g.Wait()
}

// Stop cancels every supervised goroutine, waits for them to exit, and
// flushes telemetry. Safe to call more than once.
func (c *Core) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		if c.cancel != nil {
			c.cancel()
		}
		err = c.Wait()
		if c.Tel != nil {
			if shutdownErr := c.Tel.Shutdown(context.Background()); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}
	})
	return err
}

// Submit enqueues fn to run on the worker pool under sessionID's identity,
// matching "a worker pulled from a bounded pool holding one session
// reference" (SPEC_FULL.md §5). It fails fast rather than blocking the
// caller when the queue is full or the Core is shutting down.
func (c *Core) Submit(sessionID uint32, fn func(context.Context) error) error {
	if c.stopped.Load() {
		return qxerr.New(qxerr.Failed, "core.Submit")
	}
	if !c.queue.Produce(task{sessionID: sessionID, fn: fn}) {
		return qxerr.New(qxerr.Failed, "core.Submit")
	}
	return nil
}

func (c *Core) runWorker(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t, ok := c.queue.Consume()
		if !ok {
			d := b.NextBackOff()
			if d == backoff.Stop {
				b.Reset()
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d):
			}
			continue
		}
		b.Reset()

		if err := t.fn(ctx); err != nil {
			c.Log.Error("worker task failed", "session_id", t.sessionID, "error", err)
		}
	}
}

func (c *Core) runReaper(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := c.Sessions.Sweep(ctx, nil)
			if err != nil {
				c.Log.Error("session reaper sweep failed", "error", err)
				continue
			}
			if n > 0 {
				c.Log.Debug("session reaper swept expired sessions", "count", n)
			}
		}
	}
}
