package bot

import (
	"context"
	"encoding/base64"
	"fmt"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
)

// reply sends text best-effort; transport failures are logged, never fatal.
func (r *Router) reply(ctx context.Context, to, text string) {
	if err := r.opts.Sender.SendText(ctx, to, text); err != nil {
		logger.Warn(ctx, "bot", "send.text.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// sendItemDetail delivers the account card, attaching the stored image when
// present. A broken image degrades to text rather than dropping the reply.
func (r *Router) sendItemDetail(ctx context.Context, to string, it catalog.Item, showCredentials bool) {
	text := renderItemDetail(it, showCredentials)
	if it.Image == nil {
		r.reply(ctx, to, text)
		return
	}

	data, err := decodeImage(it.Image)
	if err == nil {
		m := chat.Media{
			MIME:     it.Image.Mimetype,
			Data:     data,
			Filename: fmt.Sprintf("conta_%d", it.ID),
		}
		if err = r.opts.Sender.SendMedia(ctx, to, m, text); err == nil {
			return
		}
	}

	logger.Warn(ctx, "bot", "send.image.fail",
		slog.Int("item_id", it.ID),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	r.reply(ctx, to, text+msgImageLoadFail)
}

func decodeImage(img *catalog.Image) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("bot: decode item image: %w", err)
	}
	return data, nil
}
