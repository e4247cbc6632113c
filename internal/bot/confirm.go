package bot

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/ledger"
)

// handleConfirm approves a payment by gateway id and releases the account
// credentials to the buyer. Confirmation is manual and out-of-band; there is
// no webhook feeding this flow.
func (r *Router) handleConfirm(ctx context.Context, msg chat.Inbound) error {
	arg := commandArg(msg.Text)
	if arg == "" {
		r.reply(ctx, msg.Sender, renderUsage("!confirmar"))
		return nil
	}

	p, err := r.opts.Ledger.UpdateStatus(ctx, arg, ledger.StatusApproved)
	if errors.Is(err, ledger.ErrNotFound) {
		r.reply(ctx, msg.Sender, "❌ Pagamento não encontrado!")
		return err
	}
	if err != nil {
		return err
	}

	logger.Info(ctx, "bot", "payment.approved",
		slog.String("gateway_id", p.PreferenceID),
		slog.Int64("payment_id", p.ID),
		slog.Int("item_id", p.AccountID),
		slog.String("buyer", p.BuyerPhone),
	)

	it, err := r.opts.Catalog.FindByID(ctx, p.AccountID)
	if errors.Is(err, catalog.ErrNotFound) {
		// status stays approved; the admin resolves delivery by hand
		r.reply(ctx, msg.Sender, fmt.Sprintf(
			"⚠️ Pagamento aprovado, mas a conta %d não está mais no catálogo.", p.AccountID))
		return err
	}
	if err != nil {
		return err
	}

	r.reply(ctx, p.BuyerPhone, renderPaymentApproved(it))
	r.sendBuyerImage(ctx, p.BuyerPhone, it)
	r.reply(ctx, msg.Sender, fmt.Sprintf(
		"✅ Pagamento %s aprovado e dados enviados ao comprador.", p.PreferenceID))
	return nil
}

// sendBuyerImage attaches the stored item image after credential delivery,
// best-effort.
func (r *Router) sendBuyerImage(ctx context.Context, to string, it catalog.Item) {
	if it.Image == nil {
		return
	}
	var m chat.Media
	data, err := decodeImage(it.Image)
	if err != nil {
		logger.Warn(ctx, "bot", "confirm.image.decode",
			slog.Int("item_id", it.ID),
			slog.String("err", err.Error()),
		)
		return
	}
	m = chat.Media{MIME: it.Image.Mimetype, Data: data, Filename: fmt.Sprintf("conta_%d", it.ID)}
	if err := r.opts.Sender.SendMedia(ctx, to, m, ""); err != nil {
		logger.Warn(ctx, "bot", "confirm.image.send",
			slog.Int("item_id", it.ID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
