package catalog

import "context"

// ErrNotFound is returned by FindByID when no item carries the id.
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "catalog: item not found" }

// Code identifies the error class in handler summary logs.
func (*notFoundError) Code() string { return "item_not_found" }

// Store persists the catalog as a whole document: readers always see either
// the previous or the next full record set, never a partial write.
type Store interface {
	// List returns all items in persisted order.
	List(ctx context.Context) ([]Item, error)
	// Save replaces the entire record set.
	Save(ctx context.Context, items []Item) error
	// FindByID returns the item or ErrNotFound.
	FindByID(ctx context.Context, id int) (Item, error)
}
