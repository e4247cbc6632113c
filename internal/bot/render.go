package bot

import (
	"fmt"
	"strings"

	"github.com/mvcampos/vendabot/internal/catalog"
)

const detailRule = "━━━━━━━━━━━━━━━━━━━"

const (
	msgNoItems         = "❌ Nenhuma conta disponível no momento."
	msgItemNotFound    = "❌ Conta não encontrada!"
	msgBuyItemNotFound = "❌ Conta não encontrada! Use !contas para ver as disponíveis."
	msgListHeader      = "🎮 *CONTAS VALORANT DISPONÍVEIS* 🎮\n\n"
	msgListAllHeader   = "🎮 *TODAS AS CONTAS* 🎮\n\n"
	msgPurchaseHint    = "\n💬 Para comprar, envie: *!comprar [ID]*\nExemplo: !comprar 1"
	msgGeneratingPix   = "⏳ Gerando pagamento PIX..."
	msgProcessingImage = "⏳ Processando imagem..."
	msgBadImageFormat  = "❌ Formato não suportado. Envie apenas imagens (JPG/PNG)."
	msgCancelled       = "❌ Operação cancelada."
	msgImageLoadFail   = "\n\n⚠️ Erro ao carregar imagem"
)

func renderHelp(isAdmin bool) string {
	var b strings.Builder
	b.WriteString("📋 *COMANDOS DISPONÍVEIS*\n\n")
	b.WriteString("👥 *Para todos:*\n")
	for _, c := range commandList {
		if c.AdminOnly {
			continue
		}
		b.WriteString(fmt.Sprintf("• %s - %s\n", usageOrName(c), c.Description))
	}
	if isAdmin {
		b.WriteString("\n👑 *Admin apenas:*\n")
		for _, c := range commandList {
			if !c.AdminOnly {
				continue
			}
			b.WriteString(fmt.Sprintf("• %s - %s\n", usageOrName(c), c.Description))
		}
	}
	return b.String()
}

func usageOrName(c Command) string {
	if c.Usage != "" {
		return c.Usage
	}
	return c.Name
}

func renderUsage(name string) string {
	c, ok := lookupCommand(name)
	if !ok || c.Usage == "" {
		return "❌ Comando inválido."
	}
	return fmt.Sprintf("❌ Use: %s\nExemplo: %s 1", c.Usage, c.Name)
}

// renderItemDetail builds the framed account card. Credentials appear only
// on admin views and on post-confirmation delivery.
func renderItemDetail(it catalog.Item, showCredentials bool) string {
	var b strings.Builder
	b.WriteString(detailRule + "\n")
	b.WriteString(fmt.Sprintf("📌 *ID:* %d\n", it.ID))
	b.WriteString(fmt.Sprintf("⭐ *ELO:* %s\n", it.Elo))
	b.WriteString(fmt.Sprintf("🔫 *Skins:* %s\n", it.Skins))
	b.WriteString(fmt.Sprintf("💰 *Preço:* R$ %s\n", it.Price))
	if showCredentials {
		b.WriteString(fmt.Sprintf("📧 *Email:* %s\n", orUnset(it.Email)))
		b.WriteString(fmt.Sprintf("🔑 *Senha:* %s\n", orUnset(it.Password)))
	}
	if it.Obs != "" {
		b.WriteString(fmt.Sprintf("📝 *Obs:* %s\n", it.Obs))
	}
	b.WriteString(detailRule)
	return b.String()
}

func orUnset(v string) string {
	if v == "" {
		return "Não informado"
	}
	return v
}

func renderAdminPurchaseAlert(buyer string, it catalog.Item, paymentID string, priorPending int) string {
	msg := "🔔 *NOVA COMPRA INICIADA*\n\n" +
		fmt.Sprintf("👤 Cliente: %s\n", buyer) +
		fmt.Sprintf("📌 Conta ID: %d\n", it.ID) +
		fmt.Sprintf("⭐ ELO: %s\n", it.Elo) +
		fmt.Sprintf("💰 Valor: R$ %s\n", it.Price) +
		fmt.Sprintf("🆔 Payment ID: %s", paymentID)
	if priorPending > 0 {
		msg += fmt.Sprintf("\n⏳ Pagamentos pendentes anteriores: %d", priorPending)
	}
	return msg
}

func renderPixGenerated(contact string) string {
	return "\n✅ *PAGAMENTO PIX GERADO*\n\n" +
		"🔐 *Pagamento 100% Seguro via PIX*\n\n" +
		"⚠️ Após o pagamento ser aprovado, você receberá os dados da conta automaticamente!\n\n" +
		"❓ Dúvidas? " + contact
}

func renderPixCode(code string) string {
	return fmt.Sprintf("📋 *CÓDIGO PIX COPIA E COLA:*\n\n%s\n\n", code) +
		"👆 Copie o código acima e cole no seu app de pagamento\n\n" +
		"⏰ Aguardando pagamento..."
}

const qrCaption = "📱 *QR CODE PIX*\n\n" +
	"Escaneie este QR Code com seu app de pagamento\n\n" +
	"✅ Pagamento instantâneo\n" +
	"🔒 100% seguro via Mercado Pago"

func renderPaymentFallback(contact string) string {
	return "❌ Erro ao gerar pagamento. Entre em contato com o vendedor:\n" + contact
}

func renderAddItemStart() string {
	return "➕ *ADICIONAR NOVA CONTA*\n\nPasso 1/7\n📝 Digite o *ELO* da conta:\nExemplo: Diamante 2"
}

var addItemPrompts = map[int]string{
	2: "Passo 2/7\n🔫 Digite as *SKINS* principais:\nExemplo: Reaver Vandal, Prime Phantom, Elderflame Operator",
	3: "Passo 3/7\n💰 Digite o *PREÇO*:\nExemplo: 150.00",
	4: "Passo 4/7\n📧 Digite o *EMAIL* da conta:\n(ou envie \"pular\" para adicionar depois)",
	5: "Passo 5/7\n🔑 Digite a *SENHA* da conta:\n(ou envie \"pular\" para adicionar depois)",
	6: "Passo 6/7\n📝 Digite *OBSERVAÇÕES* adicionais:\n(ou envie \"pular\" para continuar)",
	7: "Passo 7/7\n📸 Envie uma *IMAGEM* da conta:\n(ou envie \"pular\" para finalizar sem imagem)",
}

func renderAddImageStart(it catalog.Item) string {
	return fmt.Sprintf("📸 *ADICIONAR IMAGEM À CONTA %d*\n\n", it.ID) +
		fmt.Sprintf("⭐ ELO: %s\n\n", it.Elo) +
		"📤 Envie a *IMAGEM* da conta\n\n" +
		"⚠️ Formatos aceitos: JPG, PNG\n" +
		"💡 Envie \"cancelar\" para cancelar"
}

func renderImageAdded(it catalog.Item) string {
	return "✅ *IMAGEM ADICIONADA COM SUCESSO!*\n\n" +
		fmt.Sprintf("📌 Conta ID: %d\n", it.ID) +
		fmt.Sprintf("⭐ ELO: %s", it.Elo)
}

func renderItemRemoved(it catalog.Item) string {
	return fmt.Sprintf("✅ Conta removida com sucesso!\n\n📌 ID: %d\n⭐ ELO: %s", it.ID, it.Elo)
}

func renderBroadcastStart() string {
	return "📢 *ENVIAR MÍDIA EM BROADCAST*\n\n" +
		"Esta função envia mídia em alta qualidade para todos os compradores registrados.\n\n" +
		"Passo 1/3\n" +
		"📤 Envie a *IMAGEM* ou *VÍDEO* que deseja enviar\n\n" +
		"⚠️ *Requisitos:*\n" +
		"• Imagens: JPG, PNG (alta qualidade)\n" +
		"• Vídeos: MP4, até 60 segundos\n" +
		"• Tamanho máximo: 16MB\n\n" +
		"💡 Envie \"cancelar\" para cancelar"
}

const (
	msgBroadcastCancelled = "❌ Broadcast cancelado."
	msgBroadcastCaption   = "Passo 2/3\n📝 Digite a *LEGENDA* da mídia:\n(ou envie \"pular\" para enviar sem legenda)"
	msgBroadcastBadMedia  = "❌ Envie uma *imagem* ou *vídeo*\n\n💡 Ou envie \"cancelar\" para cancelar"
)

func renderBroadcastConfirm(recipients int) string {
	return fmt.Sprintf("Passo 3/3\n📢 Pronto para enviar a %d contato(s).\n\n", recipients) +
		"✅ Envie \"enviar\" para confirmar\n" +
		"💡 Ou envie \"cancelar\" para cancelar"
}

func renderBroadcastDone(sent, failed int) string {
	return fmt.Sprintf("📢 Broadcast concluído!\n\n✅ Enviados: %d\n❌ Falhas: %d", sent, failed)
}

func renderPaymentApproved(it catalog.Item) string {
	return "✅ *PAGAMENTO APROVADO!*\n\n" +
		"🎉 Obrigado pela compra! Aqui estão os dados da sua conta:\n\n" +
		renderItemDetail(it, true)
}
