package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	imsm "github.com/pkhuong/direct-mode-fsm"
	"github.com/pkhuong/direct-mode-fsm/internal/metrics"
)

// PollFunc is the user's poll function: straight-line code that sweeps
// whatever Machines it owns, typically via repeated [imsm.StageIO]
// calls keyed off package-level [imsm.Site] variables, using ctx and
// cache for this frame's program-point tracking and scratch lists.
// PollFunc is the one thing this package treats as an opaque
// collaborator — its body is out of this module's scope, same as the
// user connections/protocol state it drives.
type PollFunc func(ctx *imsm.Ctx, cache *imsm.Cache) error

// Driver runs the per-frame loop: drain the [Notifier] (bounded wait),
// call the [PollFunc], recycle the frame's [imsm.Cache], reset the
// frame's [imsm.Ctx]. A Driver is not safe for concurrent use — frames
// run one at a time, typically from a single dedicated goroutine.
type Driver struct {
	notifier Notifier
	pollFn   PollFunc
	cfg      *config

	ctx   *imsm.Ctx
	cache *imsm.Cache
	stats *metrics.FrameStats

	frameIndex int
	cookieBuf  []uint64
}

// New builds a Driver. notifier and pollFn must both be non-nil.
func New(notifier Notifier, pollFn PollFunc, opts ...Option) (*Driver, error) {
	if notifier == nil {
		return nil, errors.New("harness: notifier must not be nil")
	}
	if pollFn == nil {
		return nil, errors.New("harness: poll function must not be nil")
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		notifier: notifier,
		pollFn:   pollFn,
		cfg:      cfg,
		ctx:      imsm.NewCtx(),
		cache:    &imsm.Cache{},
	}
	if cfg.metricsEnabled {
		d.stats = metrics.NewFrameStats()
	}
	return d, nil
}

// RunFrame runs exactly one frame: bounded notifier wait, notify every
// ready cookie, invoke the poll function, then — on every exit path,
// including a PollFunc error or panic — recycle the cache and reset
// ctx. The poll function's error, if any, is returned after that
// cleanup runs.
func (d *Driver) RunFrame(ctx context.Context) error {
	start := time.Now()
	d.frameIndex++

	waitCtx := ctx
	if d.cfg.notifyTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.cfg.notifyTimeout)
		defer cancel()
	}

	cookies, err := d.notifier.Wait(waitCtx, d.cookieBuf[:0])
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("harness: notifier wait: %w", err)
		}
		cookies = cookies[:0]
	}
	d.cookieBuf = cookies

	for _, c := range cookies {
		imsm.Notify(imsm.Ref(c))
	}

	defer func() {
		d.cache.Recycle()
		d.ctx.Reset()
	}()

	pollErr := d.pollFn(d.ctx, d.cache)

	duration := time.Since(start)
	if d.stats != nil {
		d.stats.Observe(duration, len(cookies))
	}
	if d.cfg.frameHook != nil {
		d.cfg.frameHook(snapshot(d.frameIndex, len(cookies), duration, d.stats))
	}
	logInfo(d.cfg.logger, d.frameIndex, len(cookies), duration)

	return pollErr
}

// Run calls RunFrame in a loop until ctx is done or pollFn returns an
// error, returning that error (nil if ctx simply ended).
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := d.RunFrame(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Stats returns the number of frames run so far and, if [WithMetrics]
// is enabled, the running percentile estimates (zero otherwise). Its
// Notifications and Duration fields are always zero; per-frame values
// are handed to the [WithFrameHook] callback.
func (d *Driver) Stats() FrameStats {
	return snapshot(d.frameIndex, 0, 0, d.stats)
}
