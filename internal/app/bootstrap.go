// Package app wires configuration, logging, stores, the payment gateway, the
// chat transport, and the router into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	coreconfig "github.com/mvcampos/vendabot/core/config"
	"github.com/mvcampos/vendabot/core/database"
	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/bot"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/chat/telegram"
	"github.com/mvcampos/vendabot/internal/ledger"
	"github.com/mvcampos/vendabot/internal/payment"
)

// App holds the wired components for one bot process.
type App struct {
	Config     *coreconfig.Config
	Router     *bot.Router
	Transport  *telegram.Transport
	Dispatcher *chat.Dispatcher

	db *sqlx.DB
}

// Bootstrap builds the full application from loaded configuration. The
// logger must be initialized before any component logs, so it goes first.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init: %w", err)
	}

	catalogStore, ledgerStore, db, err := buildStores(cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := payment.NewMercadoPago(payment.MercadoPagoOptions{
		AccessToken:     cfg.Payment.AccessToken,
		PayerEmail:      cfg.Payment.PayerEmail,
		NotificationURL: cfg.Payment.NotificationURL,
		QRSize:          cfg.Payment.QRSize,
	})
	if err != nil {
		return nil, err
	}

	transport, err := telegram.New(telegram.Options{
		Token:                  cfg.Chat.Token,
		RunMode:                cfg.Chat.RunMode,
		LongPollTimeoutSeconds: cfg.Chat.LongPollTimeoutSeconds,
		Webhook: telegram.WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})
	if err != nil {
		return nil, err
	}

	dispatcher := chat.NewDispatcher(transport, chat.Options{
		QueueSize:    cfg.Send.QueueSize,
		MinInterval:  time.Duration(cfg.Send.MinIntervalMS) * time.Millisecond,
		MaxRetries:   cfg.Send.MaxRetries,
		RetryBackoff: time.Duration(cfg.Send.RetryBackoffMS) * time.Millisecond,
	})

	router := bot.New(bot.Options{
		AdminAddr:             cfg.Chat.AdminAddr,
		Sender:                dispatcher,
		Catalog:               catalogStore,
		Ledger:                ledgerStore,
		Gateway:               gateway,
		FallbackContact:       cfg.Payment.FallbackContact,
		RateLimit:             time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		RateLimitExcludeAdmin: cfg.RateLimit.ExcludeAdmin,
	})

	return &App{
		Config:     cfg,
		Router:     router,
		Transport:  transport,
		Dispatcher: dispatcher,
		db:         db,
	}, nil
}

// Run delivers inbound messages into the router until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	logger.Info(ctx, "app", "ready",
		slog.String("mode", a.Config.Chat.RunMode),
		slog.String("db", a.Config.Store.Driver),
	)
	return a.Transport.Run(ctx, a.Router.Handle)
}

// Close flushes the outbound queue and releases the database pool.
func (a *App) Close() {
	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func buildStores(cfg *coreconfig.Config) (catalog.Store, ledger.Store, *sqlx.DB, error) {
	switch cfg.Store.Driver {
	case coreconfig.StoreDriverPostgres:
		dbCfg := database.Config{
			Host:           cfg.Store.Database.Host,
			Port:           cfg.Store.Database.Port,
			User:           cfg.Store.Database.User,
			Password:       cfg.Store.Database.Password,
			Name:           cfg.Store.Database.Name,
			SSLMode:        cfg.Store.Database.SSLMode,
			MaxConnections: cfg.Store.Database.MaxConnections,
		}
		if err := database.RunMigrations(dbCfg); err != nil {
			return nil, nil, nil, fmt.Errorf("app: migrations: %w", err)
		}
		db, err := database.Connect(dbCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("app: db connect: %w", err)
		}
		return catalog.NewSQLStore(db), ledger.NewSQLStore(db), db, nil
	default:
		return catalog.NewFileStore(cfg.Store.CatalogPath),
			ledger.NewFileStore(cfg.Store.LedgerPath), nil, nil
	}
}
