package payment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
)

// MercadoPagoOptions configures the PIX gateway.
type MercadoPagoOptions struct {
	AccessToken     string
	PayerEmail      string
	NotificationURL string
	QRSize          int
}

// MercadoPago creates PIX charges through the Mercado Pago payments API.
type MercadoPago struct {
	client mppayment.Client
	opts   MercadoPagoOptions
}

// NewMercadoPago builds the gateway client from the access token.
func NewMercadoPago(opts MercadoPagoOptions) (*MercadoPago, error) {
	cfg, err := mpconfig.New(opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("payment: mercadopago config: %w", err)
	}
	if opts.PayerEmail == "" {
		opts.PayerEmail = "cliente@email.com"
	}
	return &MercadoPago{client: mppayment.NewClient(cfg), opts: opts}, nil
}

func (g *MercadoPago) CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	start := time.Now()

	request := mppayment.Request{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		Payer: &mppayment.PayerRequest{
			Email:     g.opts.PayerEmail,
			FirstName: "Cliente",
			LastName:  "Valorant",
			Identification: &mppayment.IdentificationRequest{
				Type:   "CPF",
				Number: "12345678909",
			},
		},
		NotificationURL: g.opts.NotificationURL,
		Metadata: map[string]any{
			"account_id":  req.AccountID,
			"buyer_phone": req.BuyerRef,
		},
	}

	resp, err := g.client.Create(ctx, request)
	if err != nil {
		logger.Pay.Error("pix charge failed",
			slog.String("event", "charge.create"),
			slog.Int("item_id", req.AccountID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return Charge{}, &CreationError{cause: err}
	}

	code := resp.PointOfInteraction.TransactionData.QRCode
	if code == "" {
		err := fmt.Errorf("payment: pix code missing in gateway response %d", resp.ID)
		logger.Pay.Error("pix code missing",
			slog.String("event", "charge.create"),
			slog.String("gateway_id", strconv.Itoa(resp.ID)),
		)
		return Charge{}, &CreationError{cause: err}
	}

	img, err := RenderQR(code, g.opts.QRSize)
	if err != nil {
		// The copyable code still works without the image.
		logger.Pay.Warn("qr render failed",
			slog.String("event", "charge.qr"),
			slog.String("gateway_id", strconv.Itoa(resp.ID)),
			slog.String("err", err.Error()),
		)
		img = nil
	}

	charge := Charge{
		PaymentID: strconv.Itoa(resp.ID),
		Code:      code,
		QRImage:   img,
		ExpiresAt: &resp.DateOfExpiration,
	}

	logger.Pay.Info("pix charge created",
		slog.String("event", "charge.create"),
		slog.String("gateway_id", charge.PaymentID),
		slog.Int("item_id", req.AccountID),
		slog.Float64("amount", req.Amount),
		slog.Duration("duration", logger.Took(start)),
	)
	return charge, nil
}
