package catalog

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var validate = validator.New()

// Page is the pagination block returned next to every list.
// Next travels as a string on the wire, Previous as a number.
type Page struct {
	Next     *string `json:"next"`
	Limit    int     `json:"limit"`
	Previous *int    `json:"previous"`
}

type ListParams struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`
}

func DefaultListParams() ListParams {
	return ListParams{Limit: DefaultLimit}
}

func (p ListParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: limit must be 1..%d and offset >= 0 (got limit=%d offset=%d)",
			ErrValidation, MaxLimit, p.Limit, p.Offset)
	}
	return nil
}

// NewPage builds the page block. Limit reports the number of rows actually
// returned. Previous is offset-limit whenever offset > 0 and is not clamped,
// so it goes negative when offset < limit.
func NewPage(p ListParams, returned, total int) Page {
	page := Page{Limit: returned}
	if p.Offset+p.Limit < total {
		next := strconv.Itoa(p.Offset + p.Limit)
		page.Next = &next
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		page.Previous = &prev
	}
	return page
}
