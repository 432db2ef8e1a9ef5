package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	// ErrNotFound is reserved. Unknown users and unmatched filters yield
	// empty pages instead.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")
)

// MissingProductsError lists the distinct product ids an order referenced
// that do not exist.
type MissingProductsError struct {
	IDs []string
}

func (e *MissingProductsError) Error() string {
	return fmt.Sprintf("Products not found: [%s]", strings.Join(e.IDs, ", "))
}

func (e *MissingProductsError) Unwrap() error { return ErrValidation }

// StorageErr tags a driver error as a storage failure while keeping it
// reachable through errors.Is/As.
func StorageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
