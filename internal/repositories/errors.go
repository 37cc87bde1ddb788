package repositories

import "errors"

var (
	// ErrProductNotFound is returned when no product matches the given ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when another product already uses the name.
	ErrDuplicateName = errors.New("product name already exists")
	// ErrInvalidInput is returned when a field does not fit its column.
	ErrInvalidInput = errors.New("invalid product input")
)

// Column widths of the product table, in characters.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 200
)
