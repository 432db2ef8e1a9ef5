// Package catalogtest provides in-memory doubles for the catalog ports.
package catalogtest

import (
	"context"
	"regexp"
	"sync"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

// Store keeps documents in insertion order. When Err is set every call
// fails with it; PingErr only affects Ping.
type Store struct {
	mu       sync.Mutex
	products []catalog.Product
	orders   []catalog.Order

	Err     error
	PingErr error
	// Queries counts FindProductsByIDs calls.
	Queries int
}

func NewStore() *Store { return &Store{} }

func (s *Store) InsertProduct(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.products = append(s.products, p)
	return nil
}

func (s *Store) CountProducts(_ context.Context, f catalog.ProductFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.match(f)), nil
}

func (s *Store) FindProducts(_ context.Context, f catalog.ProductFilter, offset, limit int) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return window(s.match(f), offset, limit), nil
}

func (s *Store) FindProductsByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++
	if s.Err != nil {
		return nil, s.Err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.Product
	for _, p := range s.products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) InsertOrder(_ context.Context, o catalog.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.orders = append(s.orders, o)
	return nil
}

func (s *Store) CountOrdersByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.ordersOf(userID)), nil
}

func (s *Store) FindOrdersByUser(_ context.Context, userID string, offset, limit int) ([]catalog.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return window(s.ordersOf(userID), offset, limit), nil
}

func (s *Store) Ping(context.Context) error  { return s.PingErr }
func (s *Store) Close(context.Context) error { return nil }

// Orders returns a copy of every stored order.
func (s *Store) Orders() []catalog.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Order(nil), s.orders...)
}

// DeleteProduct drops a product so tests can simulate a dangling reference.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
}

func (s *Store) match(f catalog.ProductFilter) []catalog.Product {
	var re *regexp.Regexp
	if f.NamePattern != "" {
		re = regexp.MustCompile("(?i)" + f.NamePattern)
	}
	var out []catalog.Product
	for _, p := range s.products {
		if re != nil && !re.MatchString(p.Name) {
			continue
		}
		if f.Size != "" && !hasSize(p, f.Size) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Store) ordersOf(userID string) []catalog.Order {
	var out []catalog.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

func hasSize(p catalog.Product, size string) bool {
	for _, sz := range p.Sizes {
		if sz.Size == size {
			return true
		}
	}
	return false
}

func window[T any](in []T, offset, limit int) []T {
	if offset >= len(in) {
		return nil
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
