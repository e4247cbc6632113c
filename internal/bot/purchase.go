package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/payment"
)

// handlePurchase runs the purchase sequence for "!comprar <id>":
// lookup, charge creation, ledger append, admin alert, buyer delivery.
// A gateway failure never writes the ledger; a ledger write happens exactly
// once per successful charge.
func (r *Router) handlePurchase(ctx context.Context, msg chat.Inbound) error {
	arg := commandArg(msg.Text)
	if arg == "" {
		r.reply(ctx, msg.Sender, renderUsage("!comprar"))
		return nil
	}
	id, convErr := strconv.Atoi(arg)
	if convErr != nil {
		r.reply(ctx, msg.Sender, renderUsage("!comprar"))
		return nil
	}

	it, err := r.opts.Catalog.FindByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		r.reply(ctx, msg.Sender, msgBuyItemNotFound)
		return err
	}
	if err != nil {
		return err
	}

	r.reply(ctx, msg.Sender, msgGeneratingPix)

	amount, err := it.PriceAmount()
	if err != nil {
		r.reply(ctx, msg.Sender, renderPaymentFallback(r.opts.FallbackContact))
		return err
	}

	charge, err := r.opts.Gateway.CreateCharge(ctx, payment.ChargeRequest{
		Amount:      amount,
		Description: fmt.Sprintf("Conta Valorant - %s | Skins: %s", it.Elo, it.Skins),
		BuyerRef:    msg.Sender,
		AccountID:   it.ID,
	})
	if err != nil {
		r.reply(ctx, msg.Sender, renderPaymentFallback(r.opts.FallbackContact))
		return err
	}

	prior, err := r.opts.Ledger.PendingByBuyer(ctx, msg.Sender)
	if err != nil {
		logger.Warn(ctx, "bot", "purchase.pending.lookup",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		prior = nil
	}

	rec, err := r.opts.Ledger.AddPending(ctx, it.ID, msg.Sender, charge.PaymentID, charge.Code)
	if err != nil {
		return err
	}

	logger.Info(ctx, "bot", "purchase.pending",
		slog.Int("item_id", it.ID),
		slog.String("buyer", msg.Sender),
		slog.String("gateway_id", charge.PaymentID),
		slog.Int64("payment_id", rec.ID),
	)

	// admin alert is best-effort; its failure never rolls back the record
	r.reply(ctx, r.opts.AdminAddr, renderAdminPurchaseAlert(msg.Sender, it, charge.PaymentID, len(prior)))

	r.sendItemDetail(ctx, msg.Sender, it, false)
	r.reply(ctx, msg.Sender, renderPixGenerated(r.opts.FallbackContact))
	r.reply(ctx, msg.Sender, renderPixCode(charge.Code))

	if len(charge.QRImage) > 0 {
		qr := chat.Media{MIME: "image/png", Data: charge.QRImage, Filename: "pix.png"}
		if err := r.opts.Sender.SendMedia(ctx, msg.Sender, qr, qrCaption); err != nil {
			logger.Warn(ctx, "bot", "purchase.qr.send",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
	return nil
}
