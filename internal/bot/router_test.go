package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/ledger"
	"github.com/mvcampos/vendabot/internal/payment"
)

const (
	testAdmin = "100001"
	testBuyer = "200002"
)

type sentText struct {
	to   string
	text string
}

type sentMedia struct {
	to      string
	media   chat.Media
	caption string
}

type fakeSender struct {
	texts     []sentText
	medias    []sentMedia
	failMedia bool
}

func (f *fakeSender) SendText(_ context.Context, to, text string) error {
	f.texts = append(f.texts, sentText{to: to, text: text})
	return nil
}

func (f *fakeSender) SendMedia(_ context.Context, to string, m chat.Media, caption string) error {
	if f.failMedia {
		return errors.New("media rejected")
	}
	f.medias = append(f.medias, sentMedia{to: to, media: m, caption: caption})
	return nil
}

func (f *fakeSender) textsTo(to string) string {
	var b strings.Builder
	for _, s := range f.texts {
		if s.to == to {
			b.WriteString(s.text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

type fakeGateway struct {
	calls  int
	fail   bool
	charge payment.Charge
}

func (g *fakeGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	g.calls++
	g.charge.Code = "PIX-" + req.Description
	if g.fail {
		return payment.Charge{}, errors.New("gateway unavailable")
	}
	return g.charge, nil
}

type fixture struct {
	router  *Router
	sender  *fakeSender
	gateway *fakeGateway
	catalog catalog.Store
	ledger  ledger.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.NewFileStore(filepath.Join(dir, "contas.json"))
	led := ledger.NewFileStore(filepath.Join(dir, "pagamentos.json"))
	snd := &fakeSender{}
	gw := &fakeGateway{charge: payment.Charge{PaymentID: "mp-777", QRImage: []byte{0x89, 0x50}}}

	r := New(Options{
		AdminAddr:       testAdmin,
		Sender:          snd,
		Catalog:         cat,
		Ledger:          led,
		Gateway:         gw,
		FallbackContact: "wa.me/5592999652961",
	})
	return &fixture{router: r, sender: snd, gateway: gw, catalog: cat, ledger: led}
}

func (f *fixture) text(from, body string) {
	f.router.Handle(context.Background(), chat.Inbound{Sender: from, Text: body})
}

func (f *fixture) media(from, body, mime string, data []byte) {
	f.router.Handle(context.Background(), chat.Inbound{
		Sender:   from,
		Text:     body,
		HasMedia: true,
		Download: func(context.Context) (chat.Media, error) {
			return chat.Media{MIME: mime, Data: data, Filename: "upload"}, nil
		},
	})
}

func (f *fixture) items(t *testing.T) []catalog.Item {
	t.Helper()
	items, err := f.catalog.List(context.Background())
	require.NoError(t, err)
	return items
}

func (f *fixture) payments(t *testing.T) []ledger.Payment {
	t.Helper()
	payments, err := f.ledger.List(context.Background())
	require.NoError(t, err)
	return payments
}

func (f *fixture) seedItem(t *testing.T, it catalog.Item) {
	t.Helper()
	items := f.items(t)
	if it.AddedAt == "" {
		it.AddedAt = catalog.Now()
	}
	require.NoError(t, f.catalog.Save(context.Background(), append(items, it)))
}

func TestHelpShowsAdminSectionOnlyToAdmin(t *testing.T) {
	f := newFixture(t)

	f.text(testBuyer, "!ajuda")
	buyerHelp := f.sender.textsTo(testBuyer)
	assert.Contains(t, buyerHelp, "!contas")
	assert.NotContains(t, buyerHelp, "!addconta")

	f.text(testAdmin, "!help")
	adminHelp := f.sender.textsTo(testAdmin)
	assert.Contains(t, adminHelp, "!addconta")
	assert.Contains(t, adminHelp, "!broadcast")
}

func TestNonAdminCommandsSilentlyIgnored(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []string{"!addconta", "!broadcast", "!listarcontas", "!removerconta 1", "!addimagem 1", "!confirmar mp-1"} {
		f.text(testBuyer, cmd)
	}

	assert.Empty(t, f.sender.texts)
	assert.Nil(t, f.router.sessions.Get(testBuyer))
}

func TestListItemsEmptyAndPopulated(t *testing.T) {
	f := newFixture(t)

	f.text(testBuyer, "!contas")
	assert.Contains(t, f.sender.textsTo(testBuyer), msgNoItems)

	f.seedItem(t, catalog.Item{ID: 1, Elo: "Ouro 2", Skins: "Prime Vandal", Price: "80.00", Email: "e@x.com", Password: "segredo"})
	f.sender.texts = nil

	f.text(testBuyer, "!contas")
	out := f.sender.textsTo(testBuyer)
	assert.Contains(t, out, "Ouro 2")
	assert.Contains(t, out, "!comprar [ID]")
	assert.NotContains(t, out, "segredo", "public listing never shows credentials")
}

func TestListAllShowsCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Ouro 2", Skins: "Prime Vandal", Price: "80.00", Email: "e@x.com", Password: "segredo"})

	f.text(testAdmin, "!listarcontas")
	out := f.sender.textsTo(testAdmin)
	assert.Contains(t, out, "e@x.com")
	assert.Contains(t, out, "segredo")
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Ouro 2", Skins: "s", Price: "80.00"})
	f.seedItem(t, catalog.Item{ID: 2, Elo: "Prata 1", Skins: "s", Price: "40.00"})

	f.text(testAdmin, "!removerconta 1")
	items := f.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ID)
	assert.Contains(t, f.sender.textsTo(testAdmin), "removida com sucesso")

	f.text(testAdmin, "!removerconta 9")
	assert.Contains(t, f.sender.textsTo(testAdmin), msgItemNotFound)

	f.text(testAdmin, "!removerconta")
	assert.Contains(t, f.sender.textsTo(testAdmin), "❌ Use: !removerconta")
}

func TestPurchaseUnknownIDNeverCallsGateway(t *testing.T) {
	f := newFixture(t)

	f.text(testBuyer, "!comprar 5")

	assert.Zero(t, f.gateway.calls)
	assert.Empty(t, f.payments(t))
	assert.Contains(t, f.sender.textsTo(testBuyer), msgBuyItemNotFound)
}

func TestPurchaseMissingArgument(t *testing.T) {
	f := newFixture(t)

	f.text(testBuyer, "!comprar")

	assert.Zero(t, f.gateway.calls)
	assert.Contains(t, f.sender.textsTo(testBuyer), "❌ Use: !comprar [ID]")
}

func TestPurchaseGatewayFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Diamante 2", Skins: "Reaver Vandal", Price: "150.00"})
	f.gateway.fail = true

	f.text(testBuyer, "!comprar 1")

	assert.Equal(t, 1, f.gateway.calls)
	assert.Empty(t, f.payments(t), "gateway failure must not write the ledger")
	assert.Contains(t, f.sender.textsTo(testBuyer), "wa.me/5592999652961")
	assert.Empty(t, f.sender.textsTo(testAdmin), "no admin alert on failure")
}

func TestPurchaseSuccess(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Diamante 2", Skins: "Reaver Vandal", Price: "150.00", Email: "e@x.com", Password: "segredo"})

	f.text(testBuyer, "!comprar 1")

	require.Equal(t, 1, f.gateway.calls)

	payments := f.payments(t)
	require.Len(t, payments, 1, "exactly one pending record per successful charge")
	p := payments[0]
	assert.Equal(t, 1, p.AccountID)
	assert.Equal(t, testBuyer, p.BuyerPhone)
	assert.Equal(t, "mp-777", p.PreferenceID)
	assert.Equal(t, ledger.StatusPending, p.Status)
	assert.Equal(t, "PIX-Conta Valorant - Diamante 2 | Skins: Reaver Vandal", p.PaymentLink)

	adminOut := f.sender.textsTo(testAdmin)
	assert.Contains(t, adminOut, "NOVA COMPRA INICIADA")
	assert.Contains(t, adminOut, "mp-777")

	buyerOut := f.sender.textsTo(testBuyer)
	assert.Contains(t, buyerOut, "Diamante 2")
	assert.Contains(t, buyerOut, "CÓDIGO PIX COPIA E COLA")
	assert.NotContains(t, buyerOut, "segredo", "credentials never reach the buyer before confirmation")

	require.Len(t, f.sender.medias, 1)
	assert.Equal(t, testBuyer, f.sender.medias[0].to)
	assert.Equal(t, "image/png", f.sender.medias[0].media.MIME)
}

func TestMidWizardUniversalCommandEscapes(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!addconta")
	f.text(testAdmin, "Diamante 2")
	require.NotNil(t, f.router.sessions.Get(testAdmin))

	f.text(testAdmin, "!contas")
	assert.Contains(t, f.sender.textsTo(testAdmin), msgNoItems)

	sess := f.router.sessions.Get(testAdmin)
	require.NotNil(t, sess, "wizard survives a universal command")
	assert.Equal(t, 2, sess.Step)

	// the wizard resumes exactly where it stopped
	f.text(testAdmin, "Reaver Vandal")
	assert.Equal(t, 3, f.router.sessions.Get(testAdmin).Step)
}

func TestRateLimitDropsRapidMessages(t *testing.T) {
	f := newFixture(t)
	f.router.opts.RateLimit = time.Minute
	f.router.opts.RateLimitExcludeAdmin = true

	f.text(testBuyer, "!ajuda")
	f.text(testBuyer, "!ajuda")
	assert.Len(t, f.sender.texts, 1, "second rapid message dropped")

	f.text(testAdmin, "!ajuda")
	f.text(testAdmin, "!ajuda")
	assert.Len(t, f.sender.texts, 3, "admin excluded from the limiter")
}
