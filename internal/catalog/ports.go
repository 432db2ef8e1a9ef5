package catalog

import (
	"context"
	"regexp"
)

// ProductFilter is ANDed by every store. NamePattern is a case-insensitive
// regular expression (see NamePattern); Size must match a sizes[].size
// entry exactly.
type ProductFilter struct {
	NamePattern string
	Size        string
}

type ProductStore interface {
	InsertProduct(ctx context.Context, p Product) error
	CountProducts(ctx context.Context, f ProductFilter) (int, error)
	// FindProducts returns matches in insertion order.
	FindProducts(ctx context.Context, f ProductFilter, offset, limit int) ([]Product, error)
	FindProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o Order) error
	CountOrdersByUser(ctx context.Context, userID string) (int, error)
	// FindOrdersByUser returns the user's orders in insertion order.
	FindOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]Order, error)
}

// Store is a document store holding both collections.
type Store interface {
	ProductStore
	OrderStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Publisher receives domain events after a document has been persisted.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, ev Envelope) error
}

// NamePattern turns a user supplied name filter into a case-insensitive
// pattern. Text that does not compile as a regular expression is matched
// literally.
func NamePattern(name string) string {
	if name == "" {
		return ""
	}
	if _, err := regexp.Compile("(?i)" + name); err != nil {
		return regexp.QuoteMeta(name)
	}
	return name
}
