package bot

import (
	"context"
	"strconv"

	"github.com/mvcampos/vendabot/internal/chat"
)

func (r *Router) handleHelp(ctx context.Context, msg chat.Inbound, isAdmin bool) error {
	r.reply(ctx, msg.Sender, renderHelp(isAdmin))
	return nil
}

// handleListItems shows the public catalog: header, one card per item (no
// credentials), then the purchase hint. Pacing between cards comes from the
// outbound dispatcher.
func (r *Router) handleListItems(ctx context.Context, msg chat.Inbound) error {
	items, err := r.opts.Catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		r.reply(ctx, msg.Sender, msgNoItems)
		return nil
	}

	r.reply(ctx, msg.Sender, msgListHeader)
	for _, it := range items {
		r.sendItemDetail(ctx, msg.Sender, it, false)
	}
	r.reply(ctx, msg.Sender, msgPurchaseHint)
	return nil
}

// handleListAll is the admin view: every item with credentials.
func (r *Router) handleListAll(ctx context.Context, msg chat.Inbound) error {
	items, err := r.opts.Catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		r.reply(ctx, msg.Sender, msgNoItems)
		return nil
	}

	r.reply(ctx, msg.Sender, msgListAllHeader)
	for _, it := range items {
		r.sendItemDetail(ctx, msg.Sender, it, true)
	}
	return nil
}

func (r *Router) handleRemoveItem(ctx context.Context, msg chat.Inbound) error {
	arg := commandArg(msg.Text)
	if arg == "" {
		r.reply(ctx, msg.Sender, renderUsage("!removerconta"))
		return nil
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		r.reply(ctx, msg.Sender, renderUsage("!removerconta"))
		return nil
	}

	items, err := r.opts.Catalog.List(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, it := range items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.reply(ctx, msg.Sender, msgItemNotFound)
		return nil
	}

	removed := items[idx]
	items = append(items[:idx], items[idx+1:]...)
	if err := r.opts.Catalog.Save(ctx, items); err != nil {
		return err
	}

	r.reply(ctx, msg.Sender, renderItemRemoved(removed))
	return nil
}
