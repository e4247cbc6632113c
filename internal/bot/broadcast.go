package bot

import (
	"context"
	"sort"
	"strings"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/chat"
)

func (r *Router) handleBroadcastStart(ctx context.Context, msg chat.Inbound) error {
	r.sessions.Put(msg.Sender, &Session{Kind: KindBroadcast, Step: 1})
	r.reply(ctx, msg.Sender, renderBroadcastStart())
	return nil
}

func (r *Router) handleBroadcastCancel(ctx context.Context, msg chat.Inbound) error {
	r.sessions.Clear(msg.Sender)
	r.reply(ctx, msg.Sender, msgBroadcastCancelled)
	return nil
}

// continueBroadcast drives steps 1..3: collect media, collect caption, then
// confirm and fan out to every distinct buyer in the ledger.
func (r *Router) continueBroadcast(ctx context.Context, msg chat.Inbound, sess *Session, lower string) error {
	switch sess.Step {
	case 1:
		return r.broadcastCollectMedia(ctx, msg, sess)
	case 2:
		if lower != keywordSkip {
			sess.Caption = msg.Text
		}
		sess.Step = 3
		recipients, err := r.broadcastRecipients(ctx)
		if err != nil {
			return err
		}
		r.reply(ctx, msg.Sender, renderBroadcastConfirm(len(recipients)))
		return nil
	case 3:
		if lower != "enviar" {
			recipients, err := r.broadcastRecipients(ctx)
			if err != nil {
				return err
			}
			r.reply(ctx, msg.Sender, renderBroadcastConfirm(len(recipients)))
			return nil
		}
		return r.broadcastSend(ctx, msg, sess)
	}
	return nil
}

func (r *Router) broadcastCollectMedia(ctx context.Context, msg chat.Inbound, sess *Session) error {
	if !msg.HasMedia {
		r.reply(ctx, msg.Sender, msgBroadcastBadMedia)
		return ErrMissingMedia
	}
	r.reply(ctx, msg.Sender, msgProcessingImage)

	media, err := msg.Download(ctx)
	if err != nil {
		logger.Warn(ctx, "bot", "broadcast.download",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.reply(ctx, msg.Sender, msgBroadcastBadMedia)
		return err
	}
	if !media.IsImage() && !strings.HasPrefix(media.MIME, "video/") {
		r.reply(ctx, msg.Sender, msgBroadcastBadMedia)
		return ErrNotImage
	}

	sess.Media = &media
	sess.Step = 2
	r.reply(ctx, msg.Sender, msgBroadcastCaption)
	return nil
}

func (r *Router) broadcastSend(ctx context.Context, msg chat.Inbound, sess *Session) error {
	recipients, err := r.broadcastRecipients(ctx)
	if err != nil {
		return err
	}

	sent, failed := 0, 0
	for _, to := range recipients {
		if err := r.opts.Sender.SendMedia(ctx, to, *sess.Media, sess.Caption); err != nil {
			failed++
			logger.Warn(ctx, "bot", "broadcast.send.fail",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			continue
		}
		sent++
	}

	r.sessions.Clear(msg.Sender)
	logger.Info(ctx, "bot", "broadcast.done",
		slog.Int("recipients", len(recipients)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	r.reply(ctx, msg.Sender, renderBroadcastDone(sent, failed))
	return nil
}

// broadcastRecipients is every distinct buyer address in the ledger, in
// stable order. The admin is excluded; they get the completion report.
func (r *Router) broadcastRecipients(ctx context.Context) ([]string, error) {
	payments, err := r.opts.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range payments {
		if p.BuyerPhone == "" || p.BuyerPhone == r.opts.AdminAddr || seen[p.BuyerPhone] {
			continue
		}
		seen[p.BuyerPhone] = true
		out = append(out, p.BuyerPhone)
	}
	sort.Strings(out)
	return out, nil
}
