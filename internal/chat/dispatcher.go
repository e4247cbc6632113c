package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvcampos/vendabot/core/logger"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("chat sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("chat sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	// MinInterval is the minimum gap between consecutive sends. It replaces
	// ad-hoc sleeps between chained messages with one pacing point.
	MinInterval  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher executes outbound sends on a single worker in FIFO order with
// bounded pacing, so multi-message replies keep their order and never burst.
// It wraps the raw transport Sender and satisfies Sender itself.
type Dispatcher struct {
	raw  Sender
	opts Options
	jobs chan job
	stop chan struct{}
	done chan struct{}
	once sync.Once
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(raw Sender, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MinInterval < 0 {
		opts.MinInterval = 0
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}

	d := &Dispatcher{
		raw:  raw,
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.worker()
	return d
}

// SendText queues a text send; on queue saturation it degrades to a direct
// synchronous send so no reply is dropped.
func (d *Dispatcher) SendText(ctx context.Context, to, text string) error {
	return d.submit(ctx, "send.text", func() error {
		return d.raw.SendText(ctx, to, text)
	})
}

// SendMedia queues a media send with the same fallback behaviour as SendText.
func (d *Dispatcher) SendMedia(ctx context.Context, to string, m Media, caption string) error {
	return d.submit(ctx, "send.media", func() error {
		return d.raw.SendMedia(ctx, to, m, caption)
	})
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops the worker and waits for queued jobs to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		close(d.jobs)
		<-d.done
	})
}

func (d *Dispatcher) submit(ctx context.Context, action string, run func() error) error {
	if err := d.enqueue(ctx, action, run); err != nil {
		if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
			logger.Warn(ctx, "chat.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, action string, run func() error) error {
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}

	j := job{ctx: ctx, action: action, run: run}
	select {
	case d.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	var lastSend time.Time
	for j := range d.jobs {
		if d.opts.MinInterval > 0 && !lastSend.IsZero() {
			if wait := d.opts.MinInterval - time.Since(lastSend); wait > 0 {
				time.Sleep(wait)
			}
		}
		d.handleJob(j)
		lastSend = time.Now()
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	attempts := d.opts.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := j.run()
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "chat.sender", "send.retry.success",
					slog.String("action", j.action),
					slog.Int("attempt", attempt),
					slog.Duration("elapsed", logger.Took(start)),
				)
			}
			return
		}
		lastErr = err
		if !shouldRetry(err) || attempt == attempts {
			break
		}
		time.Sleep(d.opts.RetryBackoff * time.Duration(attempt))
	}

	d.errs.Add(1)
	logger.Error(ctx, "chat.sender", "send.fail",
		slog.String("action", j.action),
		slog.String("err", lastErr.Error()),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", logger.Took(start)),
	)
}
