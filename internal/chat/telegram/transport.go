// Package telegram adapts the Telegram Bot API to the chat transport
// boundary. Chat addresses are decimal chat IDs.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/chat"
)

// Options configures the transport.
type Options struct {
	Token                  string
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions

	// DisableWebhookCleanup skips the deleteWebhook call made before long
	// polling starts. A stale webhook silently starves the poller otherwise.
	DisableWebhookCleanup bool
}

// Transport is a running Telegram connection implementing chat.Transport.
type Transport struct {
	bot  *tele.Bot
	opts Options
}

// New builds the bot client. It does not start polling; call Run.
func New(opts Options) (*Transport, error) {
	poller := buildPoller(PollerOptions{
		RunMode:                opts.RunMode,
		LongPollTimeoutSeconds: opts.LongPollTimeoutSeconds,
		Webhook:                opts.Webhook,
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  opts.Token,
		Poller: poller,
		Client: buildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Chat.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	default:
		logger.Chat.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}

	return &Transport{bot: bot, opts: opts}, nil
}

// Run registers update handlers and blocks until ctx is done or the poller
// stops on its own.
func (t *Transport) Run(ctx context.Context, h chat.Handler) error {
	deliver := func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || c.Chat() == nil {
			return nil
		}
		h(ctx, t.toInbound(msg, c.Chat().ID))
		return nil
	}

	t.bot.Handle(tele.OnText, deliver)
	t.bot.Handle(tele.OnPhoto, deliver)
	t.bot.Handle(tele.OnVideo, deliver)
	t.bot.Handle(tele.OnDocument, deliver)

	if !t.opts.DisableWebhookCleanup && !strings.EqualFold(t.opts.RunMode, "webhook") {
		if err := deleteWebhook(t.opts.Token); err != nil {
			logger.Chat.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}

	runDone := make(chan struct{})
	go func() {
		t.bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		t.bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// SendText delivers a plain text message to the given chat address.
func (t *Transport) SendText(_ context.Context, to, text string) error {
	rcpt, err := recipient(to)
	if err != nil {
		return err
	}
	_, err = t.bot.Send(rcpt, text)
	return err
}

// SendMedia delivers an attachment with an optional caption. The sendable
// kind follows the media MIME type.
func (t *Transport) SendMedia(_ context.Context, to string, m chat.Media, caption string) error {
	rcpt, err := recipient(to)
	if err != nil {
		return err
	}

	file := tele.FromReader(bytes.NewReader(m.Data))

	var what any
	switch {
	case m.IsImage():
		what = &tele.Photo{File: file, Caption: caption}
	case strings.HasPrefix(m.MIME, "video/"):
		what = &tele.Video{File: file, Caption: caption, FileName: m.Filename}
	default:
		what = &tele.Document{File: file, Caption: caption, MIME: m.MIME, FileName: m.Filename}
	}

	_, err = t.bot.Send(rcpt, what)
	return err
}

func (t *Transport) toInbound(msg *tele.Message, chatID int64) chat.Inbound {
	in := chat.Inbound{
		Sender: strconv.FormatInt(chatID, 10),
		Text:   strings.TrimSpace(msg.Text),
	}
	if in.Text == "" {
		in.Text = strings.TrimSpace(msg.Caption)
	}

	switch {
	case msg.Photo != nil:
		// Bot API re-encodes photos as JPEG.
		in.HasMedia = true
		in.Download = t.downloader(msg.Photo.MediaFile(), "image/jpeg", "photo.jpg")
	case msg.Video != nil:
		mime := msg.Video.MIME
		if mime == "" {
			mime = "video/mp4"
		}
		in.HasMedia = true
		in.Download = t.downloader(msg.Video.MediaFile(), mime, msg.Video.FileName)
	case msg.Document != nil:
		in.HasMedia = true
		in.Download = t.downloader(msg.Document.MediaFile(), msg.Document.MIME, msg.Document.FileName)
	}

	return in
}

func (t *Transport) downloader(file *tele.File, mime, name string) func(context.Context) (chat.Media, error) {
	return func(ctx context.Context) (chat.Media, error) {
		start := time.Now()
		rc, err := t.bot.File(file)
		if err != nil {
			return chat.Media{}, fmt.Errorf("telegram: fetch file: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return chat.Media{}, fmt.Errorf("telegram: read file: %w", err)
		}

		logger.Debug(ctx, "chat", "media.download",
			slog.Int("count", len(data)),
			slog.Duration("duration", logger.Took(start)),
		)
		return chat.Media{MIME: mime, Data: data, Filename: name}, nil
	}
}

func recipient(to string) (tele.Recipient, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: bad chat address %q: %w", to, err)
	}
	return tele.ChatID(id), nil
}

func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
