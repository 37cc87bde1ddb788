package services

import (
	"time"

	"productapi/internal/metrics"
	"productapi/internal/models"
	"productapi/internal/repositories"

	"github.com/rs/zerolog"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewProductService creates a new ProductService. A nil publisher disables
// events.
func NewProductService(repo repositories.ProductRepository, publisher Publisher, log zerolog.Logger) *ProductService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct stores a new product. On success product.ID holds the
// assigned ID.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.emit(EventProductCreated, *product)
	return nil
}

// UpdateProduct overwrites all fields of the product identified by product.ID.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.emit(EventProductUpdated, *product)
	return nil
}

// DeleteProduct deletes a product by its ID and returns its last state.
func (s *ProductService) DeleteProduct(id uint) (*models.Product, error) {
	product, err := s.repo.Delete(id)
	if err != nil {
		return nil, err
	}
	s.emit(EventProductDeleted, *product)
	return product, nil
}

// emit publishes an event; failures are logged and never reach the caller.
func (s *ProductService) emit(eventType string, product models.Product) {
	metrics.ProductMutations.WithLabelValues(eventType).Inc()
	event := ProductEvent{
		Type:       eventType,
		Product:    product,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Uint("product_id", product.ID).Msg("failed to publish product event")
	}
}
