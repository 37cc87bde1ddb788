package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"productapi/internal/middleware"
	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrMissingField is returned when a required JSON key is absent.
var ErrMissingField = errors.New("missing required field")

// ProductRequest is the body accepted by POST and PUT. Pointer fields let a
// key that is present with a zero value be told apart from a missing key.
type ProductRequest struct {
	Name        *string  `json:"name" validate:"required"`
	Description *string  `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required"`
	Qty         *int     `json:"qty" validate:"required"`
}

// toModel assumes the request passed validation.
func (r ProductRequest) toModel() models.Product {
	return models.Product{
		Name:        *r.Name,
		Description: *r.Description,
		Price:       *r.Price,
		Qty:         *r.Qty,
	}
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log zerolog.Logger) *ProductHandler {
	validate := validator.New()
	// Report fields by their JSON key rather than the Go field name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ProductHandler{
		service:  service,
		validate: validate,
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/product")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return h.requestError(c, err)
	}

	product := req.toModel()
	if err := h.service.CreateProduct(&product); err != nil {
		return h.storeError(c, err, "Could not create product")
	}
	return c.JSON(product)
}

// HandleGetProducts returns every product wrapped in {"data": [...]}.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return h.storeError(c, err, "Could not retrieve products")
	}
	return c.JSON(models.ProductList{Data: products})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return h.requestError(c, err)
	}

	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.storeError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleUpdateProduct replaces all fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return h.requestError(c, err)
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.requestError(c, err)
	}

	product := req.toModel()
	product.ID = id
	if err := h.service.UpdateProduct(&product); err != nil {
		return h.storeError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and returns its last state.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return h.requestError(c, err)
	}

	product, err := h.service.DeleteProduct(id)
	if err != nil {
		return h.storeError(c, err, "Could not delete product")
	}
	return c.JSON(product)
}

// productFields are the keys a POST or PUT body must carry, spelled exactly.
var productFields = []string{"name", "description", "price", "qty"}

// parseRequest decodes the body strictly. Keys are matched case-sensitively
// against productFields before the typed decode, because encoding/json folds
// case when mapping keys onto struct tags.
func (h *ProductHandler) parseRequest(c *fiber.Ctx) (ProductRequest, error) {
	var req ProductRequest

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	if err := dec.Decode(&raw); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return req, errors.New("invalid request body: unexpected data after JSON object")
	}

	var missing []string
	for _, key := range productFields {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return req, &missingFieldsError{fields: missing}
	}
	for key := range raw {
		if !isProductField(key) {
			return req, fmt.Errorf("invalid request body: unknown field %q", key)
		}
	}

	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	// A key sent as null decodes to a nil pointer and is treated as missing.
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				fields = append(fields, e.Field())
			}
			return req, &missingFieldsError{fields: fields}
		}
		return req, err
	}
	return req, nil
}

func isProductField(key string) bool {
	for _, f := range productFields {
		if f == key {
			return true
		}
	}
	return false
}

// productID accepts plain decimal digits only; signs and zero are rejected.
func productID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid product ID %q", c.Params("id"))
	}
	return uint(id), nil
}

type missingFieldsError struct {
	fields []string
}

func (e *missingFieldsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingField, strings.Join(e.fields, ", "))
}

func (e *missingFieldsError) Unwrap() error { return ErrMissingField }

// requestError answers 400 for anything wrong with the request itself.
func (h *ProductHandler) requestError(c *fiber.Ctx, err error) error {
	var missing *missingFieldsError
	if errors.As(err, &missing) {
		errorMessages := make(map[string]string)
		for _, field := range missing.fields {
			errorMessages[field] = fmt.Sprintf("Field '%s' is required", field)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   ErrMissingField.Error(),
			"errors":  errorMessages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request",
		"error":   err.Error(),
	})
}

// storeError maps store errors onto HTTP statuses.
func (h *ProductHandler) storeError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", c.Params("id")),
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrDuplicateName), errors.Is(err, repositories.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}

	h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
