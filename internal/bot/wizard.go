package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
)

const keywordSkip = "pular"

func (r *Router) handleAddItemStart(ctx context.Context, msg chat.Inbound) error {
	r.sessions.Put(msg.Sender, &Session{Kind: KindAddItem, Step: 1})
	r.reply(ctx, msg.Sender, renderAddItemStart())
	return nil
}

func (r *Router) handleAddImageStart(ctx context.Context, msg chat.Inbound) error {
	arg := commandArg(msg.Text)
	if arg == "" {
		r.reply(ctx, msg.Sender, renderUsage("!addimagem"))
		return nil
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		r.reply(ctx, msg.Sender, renderUsage("!addimagem"))
		return nil
	}

	it, err := r.opts.Catalog.FindByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		r.reply(ctx, msg.Sender, msgItemNotFound)
		return err
	}
	if err != nil {
		return err
	}

	r.sessions.Put(msg.Sender, &Session{Kind: KindAddImage, TargetID: it.ID})
	r.reply(ctx, msg.Sender, renderAddImageStart(it))
	return nil
}

// continueWizard advances the add-item or add-image wizard by one message.
func (r *Router) continueWizard(ctx context.Context, msg chat.Inbound, sess *Session, lower string) error {
	if lower == "cancelar" {
		r.sessions.Clear(msg.Sender)
		r.reply(ctx, msg.Sender, msgCancelled)
		return nil
	}
	if sess.Kind == KindAddImage {
		return r.stepAddImage(ctx, msg, sess)
	}
	return r.stepAddItem(ctx, msg, sess, lower)
}

func (r *Router) stepAddItem(ctx context.Context, msg chat.Inbound, sess *Session, lower string) error {
	skip := lower == keywordSkip

	switch sess.Step {
	case 1:
		sess.Draft.Elo = msg.Text
	case 2:
		sess.Draft.Skins = msg.Text
	case 3:
		sess.Draft.Price = msg.Text
	case 4:
		if !skip {
			sess.Draft.Email = msg.Text
		}
	case 5:
		if !skip {
			sess.Draft.Password = msg.Text
		}
	case 6:
		if !skip {
			sess.Draft.Obs = msg.Text
		}
	case 7:
		return r.finishAddItem(ctx, msg, sess, skip)
	}

	sess.Step++
	logger.Debug(ctx, "bot", "wizard.step",
		slog.String("wizard", "add_item"),
		slog.Int("step", sess.Step),
	)
	r.reply(ctx, msg.Sender, addItemPrompts[sess.Step])
	return nil
}

// finishAddItem handles step 7: an optional image, then the save. Invalid
// input never advances the step; a download failure saves without image
// rather than losing the whole wizard.
func (r *Router) finishAddItem(ctx context.Context, msg chat.Inbound, sess *Session, skip bool) error {
	var img *catalog.Image
	var stepErr error

	if !skip {
		if !msg.HasMedia {
			r.reply(ctx, msg.Sender, "❌ Por favor, envie uma *imagem* ou \"pular\" para continuar")
			return ErrMissingMedia
		}
		r.reply(ctx, msg.Sender, msgProcessingImage)

		media, err := msg.Download(ctx)
		if err != nil {
			logger.Warn(ctx, "bot", "wizard.image.download",
				slog.String("wizard", "add_item"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			r.reply(ctx, msg.Sender, "❌ Erro ao processar imagem. Conta será salva sem imagem.")
			stepErr = err
		} else if !media.IsImage() {
			r.reply(ctx, msg.Sender, msgBadImageFormat)
			return ErrNotImage
		} else {
			img = &catalog.Image{
				Mimetype: media.MIME,
				Data:     base64.StdEncoding.EncodeToString(media.Data),
			}
		}
	}

	items, err := r.opts.Catalog.List(ctx)
	if err != nil {
		return err
	}

	item := sess.Draft
	item.ID = catalog.NextID(items)
	item.Image = img
	item.AddedAt = catalog.Now()

	if err := r.opts.Catalog.Save(ctx, append(items, item)); err != nil {
		return err
	}
	r.sessions.Clear(msg.Sender)

	logger.Info(ctx, "bot", "item.added",
		slog.Int("item_id", item.ID),
	)
	r.reply(ctx, msg.Sender, "✅ *CONTA ADICIONADA COM SUCESSO!*\n")
	r.sendItemDetail(ctx, msg.Sender, item, true)
	return stepErr
}

func (r *Router) stepAddImage(ctx context.Context, msg chat.Inbound, sess *Session) error {
	if !msg.HasMedia {
		r.reply(ctx, msg.Sender, "❌ Por favor, envie uma *imagem*\n\n💡 Ou envie \"cancelar\" para cancelar")
		return ErrMissingMedia
	}
	r.reply(ctx, msg.Sender, msgProcessingImage)

	media, err := msg.Download(ctx)
	if err != nil {
		logger.Warn(ctx, "bot", "wizard.image.download",
			slog.String("wizard", "add_image"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		r.sessions.Clear(msg.Sender)
		r.reply(ctx, msg.Sender, "❌ Erro ao processar imagem. Tente novamente.")
		return err
	}
	if !media.IsImage() {
		r.reply(ctx, msg.Sender, msgBadImageFormat)
		return ErrNotImage
	}

	items, err := r.opts.Catalog.List(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range items {
		if items[i].ID == sess.TargetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.sessions.Clear(msg.Sender)
		r.reply(ctx, msg.Sender, msgItemNotFound)
		return catalog.ErrNotFound
	}

	items[idx].Image = &catalog.Image{
		Mimetype: media.MIME,
		Data:     base64.StdEncoding.EncodeToString(media.Data),
	}
	if err := r.opts.Catalog.Save(ctx, items); err != nil {
		return err
	}
	r.sessions.Clear(msg.Sender)

	logger.Info(ctx, "bot", "item.image.added",
		slog.Int("item_id", sess.TargetID),
	)
	r.reply(ctx, msg.Sender, renderImageAdded(items[idx]))
	r.sendItemDetail(ctx, msg.Sender, items[idx], true)
	return nil
}
