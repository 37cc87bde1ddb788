package repositories

import (
	"errors"
	"fmt"

	"productapi/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// The gorm.DB must be opened with TranslateError enabled so unique index
// violations surface as gorm.ErrDuplicatedKey.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database in insertion order.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product and fills in its assigned ID.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := checkLengths(product); err != nil {
		return err
	}
	product.ID = 0
	if err := r.db.Create(product).Error; err != nil {
		return translate(err, "failed to create product")
	}
	return nil
}

// Update overwrites every field of an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	if err := checkLengths(product); err != nil {
		return err
	}
	res := r.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "price", "qty").
		Updates(product)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("failed to update product %d", product.ID))
	}
	if res.RowsAffected == 0 {
		// Updates with an explicit Select writes even unchanged values, so no
		// affected row means the ID does not exist.
		return fmt.Errorf("product with ID %d not found for update: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete removes a product by its ID and returns its last stored state.
func (r *GORMProductRepository) Delete(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d not found for deletion: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return &product, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", msg, ErrDuplicateName)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
