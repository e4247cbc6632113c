package bot

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
	"github.com/mvcampos/vendabot/internal/ledger"
)

func TestAddItemWizardAllSkipped(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!addconta")
	for _, body := range []string{"Diamante 2", "Reaver Vandal", "150.00", "pular", "pular", "pular", "pular"} {
		f.text(testAdmin, body)
	}

	items := f.items(t)
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, 1, it.ID)
	assert.Equal(t, "Diamante 2", it.Elo)
	assert.Equal(t, "Reaver Vandal", it.Skins)
	assert.Equal(t, "150.00", it.Price)
	assert.Empty(t, it.Email)
	assert.Empty(t, it.Password)
	assert.Empty(t, it.Obs)
	assert.Nil(t, it.Image)
	assert.NotEmpty(t, it.AddedAt)

	assert.Nil(t, f.router.sessions.Get(testAdmin), "session cleared on completion")
	assert.Contains(t, f.sender.textsTo(testAdmin), "CONTA ADICIONADA COM SUCESSO")
}

func TestAddItemWizardWithCredentialsAndImage(t *testing.T) {
	f := newFixture(t)
	img := []byte{0xff, 0xd8, 0xff}

	f.text(testAdmin, "!addconta")
	for _, body := range []string{"Imortal 1", "Elderflame Operator", "300,00", "conta@x.com", "s3nh4", "full acesso"} {
		f.text(testAdmin, body)
	}
	f.media(testAdmin, "", "image/jpeg", img)

	items := f.items(t)
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "conta@x.com", it.Email)
	assert.Equal(t, "s3nh4", it.Password)
	assert.Equal(t, "full acesso", it.Obs)
	require.NotNil(t, it.Image)
	assert.Equal(t, "image/jpeg", it.Image.Mimetype)
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), it.Image.Data)
}

func TestAddItemStepMonotonicity(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!addconta")
	assert.Equal(t, 1, f.router.sessions.Get(testAdmin).Step)

	steps := []string{"Diamante 2", "Reaver Vandal", "150.00"}
	for i, body := range steps {
		f.text(testAdmin, body)
		assert.Equal(t, i+2, f.router.sessions.Get(testAdmin).Step, "each valid input advances by exactly 1")
	}

	f.text(testAdmin, "pular") // email
	f.text(testAdmin, "pular") // password
	f.text(testAdmin, "pular") // obs
	require.Equal(t, 7, f.router.sessions.Get(testAdmin).Step)

	// text without media at the image step: no advance, no save
	f.text(testAdmin, "aqui está")
	assert.Equal(t, 7, f.router.sessions.Get(testAdmin).Step)
	assert.Empty(t, f.items(t))

	// wrong media type: no advance, no save
	f.media(testAdmin, "", "application/pdf", []byte{1})
	assert.Equal(t, 7, f.router.sessions.Get(testAdmin).Step)
	assert.Empty(t, f.items(t))
	assert.Contains(t, f.sender.textsTo(testAdmin), msgBadImageFormat)

	f.media(testAdmin, "", "image/png", []byte{2})
	assert.Nil(t, f.router.sessions.Get(testAdmin))
	require.Len(t, f.items(t), 1)
}

func TestAddItemDownloadFailureSavesWithoutImage(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!addconta")
	for _, body := range []string{"Ouro 1", "Prime", "90.00", "pular", "pular", "pular"} {
		f.text(testAdmin, body)
	}

	f.router.Handle(context.Background(), chat.Inbound{
		Sender:   testAdmin,
		HasMedia: true,
		Download: func(context.Context) (chat.Media, error) {
			return chat.Media{}, context.DeadlineExceeded
		},
	})

	items := f.items(t)
	require.Len(t, items, 1, "download failure finalizes the wizard without an image")
	assert.Nil(t, items[0].Image)
	assert.Nil(t, f.router.sessions.Get(testAdmin))
	assert.Contains(t, f.sender.textsTo(testAdmin), "Conta será salva sem imagem")
}

func TestCancellation(t *testing.T) {
	f := newFixture(t)

	// no session: silent no-op
	f.text(testAdmin, "cancelar")
	assert.Empty(t, f.sender.texts)

	f.text(testAdmin, "!addconta")
	f.text(testAdmin, "Diamante 2")
	f.text(testAdmin, "CANCELAR")

	assert.Nil(t, f.router.sessions.Get(testAdmin))
	assert.Empty(t, f.items(t), "nothing partial persisted")
	assert.Contains(t, f.sender.textsTo(testAdmin), msgCancelled)
}

func TestAddImageWizard(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Ouro 2", Skins: "s", Price: "80.00"})

	f.text(testAdmin, "!addimagem 9")
	assert.Contains(t, f.sender.textsTo(testAdmin), msgItemNotFound)
	assert.Nil(t, f.router.sessions.Get(testAdmin))

	f.text(testAdmin, "!addimagem 1")
	sess := f.router.sessions.Get(testAdmin)
	require.NotNil(t, sess)
	assert.Equal(t, KindAddImage, sess.Kind)
	assert.Equal(t, 1, sess.TargetID)

	// text without media: re-prompt, state kept
	f.text(testAdmin, "segue a foto")
	require.NotNil(t, f.router.sessions.Get(testAdmin))

	// wrong type: state kept
	f.media(testAdmin, "", "video/mp4", []byte{1})
	require.NotNil(t, f.router.sessions.Get(testAdmin))

	img := []byte{0x89, 0x50, 0x4e}
	f.media(testAdmin, "", "image/png", img)
	assert.Nil(t, f.router.sessions.Get(testAdmin))

	it, err := f.catalog.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, it.Image)
	assert.Equal(t, "image/png", it.Image.Mimetype)
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), it.Image.Data)
	assert.Contains(t, f.sender.textsTo(testAdmin), "IMAGEM ADICIONADA COM SUCESSO")
}

func TestBroadcastWizard(t *testing.T) {
	f := newFixture(t)

	// two distinct buyers plus a duplicate in the ledger
	for _, buyer := range []string{"300003", "300004", "300003"} {
		_, err := f.ledger.AddPending(context.Background(), 1, buyer, "mp-"+buyer, "pix")
		require.NoError(t, err)
	}

	f.text(testAdmin, "!broadcast")
	sess := f.router.sessions.Get(testAdmin)
	require.NotNil(t, sess)
	assert.Equal(t, KindBroadcast, sess.Kind)

	// text before media: re-prompt, step kept
	f.text(testAdmin, "minha promo")
	assert.Equal(t, 1, f.router.sessions.Get(testAdmin).Step)

	f.media(testAdmin, "", "image/jpeg", []byte{1, 2})
	assert.Equal(t, 2, f.router.sessions.Get(testAdmin).Step)

	f.text(testAdmin, "Promoção de contas!")
	assert.Equal(t, 3, f.router.sessions.Get(testAdmin).Step)

	f.text(testAdmin, "enviar")
	assert.Nil(t, f.router.sessions.Get(testAdmin))

	require.Len(t, f.sender.medias, 2, "one send per distinct buyer")
	for _, m := range f.sender.medias {
		assert.Equal(t, "Promoção de contas!", m.caption)
	}
	assert.Contains(t, f.sender.textsTo(testAdmin), "Broadcast concluído")
	assert.Contains(t, f.sender.textsTo(testAdmin), "✅ Enviados: 2")
}

func TestBroadcastCancelKeyword(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!broadcast")
	f.text(testAdmin, "cancelar")

	assert.Nil(t, f.router.sessions.Get(testAdmin))
	assert.Contains(t, f.sender.textsTo(testAdmin), msgBroadcastCancelled)
}

func TestConfirmPaymentDeliversCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Diamante 2", Skins: "Reaver", Price: "150.00", Email: "e@x.com", Password: "segredo"})

	f.text(testBuyer, "!comprar 1")
	f.sender.texts = nil
	f.sender.medias = nil

	f.text(testAdmin, "!confirmar mp-777")

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, ledger.StatusApproved, payments[0].Status)
	assert.NotEmpty(t, payments[0].UpdatedAt)

	buyerOut := f.sender.textsTo(testBuyer)
	assert.Contains(t, buyerOut, "PAGAMENTO APROVADO")
	assert.Contains(t, buyerOut, "e@x.com")
	assert.Contains(t, buyerOut, "segredo")

	assert.Contains(t, f.sender.textsTo(testAdmin), "aprovado e dados enviados")
}

func TestConfirmUnknownPayment(t *testing.T) {
	f := newFixture(t)

	f.text(testAdmin, "!confirmar mp-000")
	assert.Contains(t, f.sender.textsTo(testAdmin), "Pagamento não encontrado")

	f.text(testAdmin, "!confirmar")
	assert.Contains(t, f.sender.textsTo(testAdmin), "❌ Use: !confirmar")
}

func TestConfirmItemGoneKeepsApproval(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, catalog.Item{ID: 1, Elo: "Ouro", Skins: "s", Price: "50.00"})

	f.text(testBuyer, "!comprar 1")
	f.text(testAdmin, "!removerconta 1")
	f.sender.texts = nil

	f.text(testAdmin, "!confirmar mp-777")

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, ledger.StatusApproved, payments[0].Status)
	assert.Contains(t, f.sender.textsTo(testAdmin), "não está mais no catálogo")
	assert.Empty(t, f.sender.textsTo(testBuyer), "no delivery without the item")
}
