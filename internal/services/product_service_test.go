package services_test

import (
	"errors"
	"fmt"
	"testing"

	"productapi/internal/logger"
	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id uint) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// MockPublisher is a mock implementation of services.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

func eventOfType(eventType string, id uint) interface{} {
	return mock.MatchedBy(func(e services.ProductEvent) bool {
		return e.Type == eventType && e.Product.ID == id && !e.OccurredAt.IsZero()
	})
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, logger.Nop())

	expectedProducts := []models.Product{
		{ID: 1, Name: "Product A", Price: 10.0, Qty: 100},
		{ID: 2, Name: "Product B", Price: 20.0, Qty: 50},
	}
	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, logger.Nop())

	expectedProduct := &models.Product{ID: 1, Name: "Product A", Price: 10.0, Qty: 100}
	mockRepo.On("GetByID", uint(1)).Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(1)
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", uint(99)).Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	product, err = service.GetProductByID(99)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockPub, logger.Nop())

	newProduct := &models.Product{Name: "New Product", Price: 50.0, Qty: 20}
	mockRepo.On("Create", newProduct).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = 7
	}).Return(nil).Once()
	mockPub.On("Publish", eventOfType(services.EventProductCreated, 7)).Return(nil).Once()

	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), newProduct.ID)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestProductService_CreateProductDuplicateDoesNotPublish(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockPub, logger.Nop())

	dup := &models.Product{Name: "Taken"}
	mockRepo.On("Create", dup).Return(fmt.Errorf("failed to create product: %w", repositories.ErrDuplicateName)).Once()

	err := service.CreateProduct(dup)
	assert.ErrorIs(t, err, repositories.ErrDuplicateName)
	mockPub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestProductService_PublishFailureIsNotFatal(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockPub, logger.Nop())

	product := &models.Product{ID: 3, Name: "Product C"}
	mockRepo.On("Update", product).Return(nil).Once()
	mockPub.On("Publish", eventOfType(services.EventProductUpdated, 3)).Return(errors.New("broker down")).Once()

	assert.NoError(t, service.UpdateProduct(product))
	mockPub.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, logger.Nop())

	updatedProduct := &models.Product{ID: 1, Name: "Product A Updated", Price: 12.0, Qty: 95}
	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	assert.NoError(t, service.UpdateProduct(updatedProduct))

	missing := &models.Product{ID: 99, Name: "NonExistent", Price: 1.0, Qty: 1}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product with ID 99 not found for update: %w", repositories.ErrProductNotFound)).Once()
	err := service.UpdateProduct(missing)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockPub, logger.Nop())

	stored := &models.Product{ID: 1, Name: "Product A", Price: 10.0, Qty: 100}
	mockRepo.On("Delete", uint(1)).Return(stored, nil).Once()
	mockPub.On("Publish", eventOfType(services.EventProductDeleted, 1)).Return(nil).Once()

	deleted, err := service.DeleteProduct(1)
	assert.NoError(t, err)
	assert.Equal(t, stored, deleted)

	mockRepo.On("Delete", uint(99)).Return(nil, fmt.Errorf("product with ID 99 not found for deletion: %w", repositories.ErrProductNotFound)).Once()
	deleted, err = service.DeleteProduct(99)
	assert.Nil(t, deleted)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}
