package transport

import (
	"net/http"
	"net/url"
	"strconv"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/middleware"
	"transport-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
}

// CreateUserRequest represents the user creation payload
type CreateUserRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone,omitempty"`
}

// DeletedResponse reports whether a delete removed a document
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// CatalogHandler handles HTTP requests for products and users
type CatalogHandler struct {
	service service.ConsistencyService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc service.ConsistencyService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// RegisterRoutes registers product and user routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.FilterProducts)
		r.Get("/{name}", h.GetProduct)
		r.Delete("/{name}", h.DeleteProduct)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/{email}", h.GetUser)
		r.Delete("/{email}", h.DeleteUser)
	})
}

// CreateProduct handles product creation
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.service.CreateProduct(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    domain.Category(req.Category),
	})
	if err != nil {
		h.logger.Debug("Product creation rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProduct retrieves a single product by name
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), pathParam(r, "name"))
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product by name. Deleting a missing product
// is not an error; the response carries deleted=false.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteProduct(r.Context(), pathParam(r, "name"))
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// FilterProducts lists products matching the supplied query predicates
func (h *CatalogHandler) FilterProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.service.FilterProducts(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateUser handles user registration
func (h *CatalogHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), service.CreateUserInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.logger.Debug("User creation rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// GetUser retrieves a single user by email
func (h *CatalogHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), pathParam(r, "email"))
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user by email
func (h *CatalogHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteUser(r.Context(), pathParam(r, "email"))
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// pathParam returns a chi URL parameter with percent-encoding undone,
// so product names with spaces round-trip through the path.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{}
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		c := domain.Category(v)
		filter.Category = &c
	}
	if v := q.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, err
		}
		filter.MinPrice = &f
	}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, err
		}
		filter.MaxPrice = &f
	}
	if v := q.Get("min_popularity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.MinPopularity = &n
	}
	if v := q.Get("min_stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.MinStock = &n
	}

	return filter, nil
}
