package repositories

import (
	"fmt"
	"unicode/utf8"

	"productapi/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) (*models.Product, error)
}

// checkLengths enforces the column widths, which sqlite does not.
func checkLengths(product *models.Product) error {
	if n := utf8.RuneCountInString(product.Name); n > MaxNameLength {
		return fmt.Errorf("%w: name is %d characters, limit is %d", ErrInvalidInput, n, MaxNameLength)
	}
	if n := utf8.RuneCountInString(product.Description); n > MaxDescriptionLength {
		return fmt.Errorf("%w: description is %d characters, limit is %d", ErrInvalidInput, n, MaxDescriptionLength)
	}
	return nil
}
