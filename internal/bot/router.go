// Package bot routes inbound chat messages to command handlers, drives the
// admin wizards, and orchestrates purchases.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/ledger"
	"github.com/mvcampos/vendabot/internal/payment"
)

// Options wires the router's collaborators.
type Options struct {
	// AdminAddr is the one privileged sender address; the check is exact
	// string equality, there is no role system.
	AdminAddr string

	Sender  chat.Sender
	Catalog catalog.Store
	Ledger  ledger.Store
	Gateway payment.Gateway

	// FallbackContact is offered to buyers when charge creation fails.
	FallbackContact string

	// RateLimit drops messages arriving faster than this per sender.
	// Zero disables the limiter.
	RateLimit             time.Duration
	RateLimitExcludeAdmin bool
}

// Router classifies each inbound message into a command or a wizard
// continuation. A process-wide mutex serializes handling so every message is
// processed to completion before the next, keeping wizard state transitions
// race-free.
type Router struct {
	opts     Options
	sessions *Sessions

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func New(opts Options) *Router {
	return &Router{
		opts:     opts,
		sessions: NewSessions(),
		lastSeen: make(map[string]time.Time),
	}
}

// Handle is the chat.Handler entry point.
func (r *Router) Handle(ctx context.Context, msg chat.Inbound) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx = logger.WithRID(ctx, logger.NewRID())
	ctx = logger.WithSender(ctx, msg.Sender)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "bot", "handler.panic",
				slog.Any("panic", rec),
			)
		}
	}()

	if r.limited(msg) {
		logger.Debug(ctx, "bot", "rate.limited",
			slog.Bool("rate_limited", true),
		)
		return
	}

	r.dispatch(ctx, msg)
}

// dispatch order is behavior-defining: universal commands match before wizard
// continuations, so a mid-wizard "!contas" escapes the wizard without
// clearing it.
func (r *Router) dispatch(ctx context.Context, msg chat.Inbound) {
	lower := strings.ToLower(strings.TrimSpace(msg.Text))
	isAdmin := msg.Sender == r.opts.AdminAddr

	switch {
	case is(lower, "!ajuda"):
		r.run(ctx, "help", func(ctx context.Context) error {
			return r.handleHelp(ctx, msg, isAdmin)
		})
		return
	case is(lower, "!contas"):
		r.run(ctx, "list_items", func(ctx context.Context) error {
			return r.handleListItems(ctx, msg)
		})
		return
	case is(lower, "!comprar"):
		r.run(ctx, "purchase", func(ctx context.Context) error {
			return r.handlePurchase(ctx, msg)
		})
		return
	}

	// everything below is admin-only; others are silently ignored
	if !isAdmin {
		return
	}

	sess := r.sessions.Get(msg.Sender)

	switch {
	case is(lower, "!addimagem"):
		r.run(ctx, "add_image_start", func(ctx context.Context) error {
			return r.handleAddImageStart(ctx, msg)
		})
		return
	case is(lower, "!broadcast"):
		r.run(ctx, "broadcast_start", func(ctx context.Context) error {
			return r.handleBroadcastStart(ctx, msg)
		})
		return
	}

	if sess != nil && sess.Kind == KindBroadcast && lower == "cancelar" {
		r.run(ctx, "broadcast_cancel", func(ctx context.Context) error {
			return r.handleBroadcastCancel(ctx, msg)
		})
		return
	}

	if is(lower, "!addconta") {
		r.run(ctx, "add_item_start", func(ctx context.Context) error {
			return r.handleAddItemStart(ctx, msg)
		})
		return
	}

	if sess != nil && (sess.Kind == KindAddItem || sess.Kind == KindAddImage) {
		name := "add_item_step"
		if sess.Kind == KindAddImage {
			name = "add_image_step"
		}
		r.run(ctx, name, func(ctx context.Context) error {
			return r.continueWizard(ctx, msg, sess, lower)
		})
		return
	}

	switch {
	case is(lower, "!confirmar"):
		r.run(ctx, "confirm_payment", func(ctx context.Context) error {
			return r.handleConfirm(ctx, msg)
		})
		return
	case is(lower, "!listarcontas"):
		r.run(ctx, "list_all", func(ctx context.Context) error {
			return r.handleListAll(ctx, msg)
		})
		return
	case is(lower, "!removerconta"):
		r.run(ctx, "remove_item", func(ctx context.Context) error {
			return r.handleRemoveItem(ctx, msg)
		})
		return
	}

	if sess != nil && sess.Kind == KindBroadcast {
		r.run(ctx, "broadcast_step", func(ctx context.Context) error {
			return r.continueBroadcast(ctx, msg, sess, lower)
		})
		return
	}

	// fallback: ignored, no reply
}

// run executes a handler with summary logging in the router's standard shape.
func (r *Router) run(ctx context.Context, name string, fn func(context.Context) error) {
	start := time.Now()
	ctx = logger.WithHandler(ctx, name)

	err := fn(ctx)

	status, outcome := "ok", "ok"
	if err != nil {
		status, outcome = "fail", "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.String("outcome", outcome),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errCode(err)),
			slog.String("cause", name),
		)
	}
	logger.LogEvent(ctx, logger.Bot, slog.LevelInfo, "handler.handled", attrs...)
}

func is(lower, name string) bool {
	c, ok := lookupCommand(name)
	return ok && c.matches(lower)
}

func (r *Router) limited(msg chat.Inbound) bool {
	if r.opts.RateLimit <= 0 {
		return false
	}
	if r.opts.RateLimitExcludeAdmin && msg.Sender == r.opts.AdminAddr {
		return false
	}
	now := time.Now()
	if last, ok := r.lastSeen[msg.Sender]; ok && now.Sub(last) < r.opts.RateLimit {
		return true
	}
	r.lastSeen[msg.Sender] = now
	return false
}
