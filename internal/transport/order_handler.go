package transport

import (
	"context"
	"net/http"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/middleware"
	"transport-catalog/internal/notify"
	"transport-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateCartRequest represents the cart creation payload
type CreateCartRequest struct {
	UserEmail  string         `json:"user_email" validate:"required,email"`
	Quantities map[string]int `json:"quantities" validate:"required"`
}

// CreateOrderRequest represents the order creation payload
type CreateOrderRequest struct {
	UserEmail      string         `json:"user_email" validate:"required,email"`
	Quantities     map[string]int `json:"quantities" validate:"required"`
	PaymentStatus  string         `json:"payment_status" validate:"required"`
	DeliveryStatus string         `json:"delivery_status" validate:"required"`
}

// CreateReviewRequest represents the review creation payload
type CreateReviewRequest struct {
	ProductName string `json:"product_name" validate:"required"`
	UserEmail   string `json:"user_email" validate:"required,email"`
	Comment     string `json:"comment" validate:"required"`
	Rating      int    `json:"rating" validate:"gte=0,lte=5"`
}

// UpdateStatusRequest carries a single status value
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for carts, orders, and reviews
type OrderHandler struct {
	service  service.ConsistencyService
	notifier notify.OrderNotifier
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(svc service.ConsistencyService, notifier notify.OrderNotifier, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  svc,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterRoutes registers cart, order, and review routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/carts", func(r chi.Router) {
		r.Post("/", h.CreateCart)
		r.Get("/", h.ListCarts)
		r.Get("/{id}", h.GetCart)
		r.Delete("/{id}", h.DeleteCart)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Patch("/{id}/payment", h.UpdatePaymentStatus)
		r.Patch("/{id}/delivery", h.UpdateDeliveryStatus)
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Post("/", h.CreateReview)
		r.Get("/", h.ListReviews)
		r.Delete("/{id}", h.DeleteReview)
	})
}

// CreateCart snapshots a cart for a user
func (h *OrderHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.service.CreateCart(r.Context(), req.UserEmail, req.Quantities)
	if err != nil {
		h.logger.Debug("Cart creation rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, cart)
}

// GetCart retrieves a cart snapshot by id
func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// ListCarts lists the carts saved by the user given in user_email
func (h *OrderHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("user_email")
	if email == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "user_email is required")
		return
	}

	carts, err := h.service.ListCarts(r.Context(), email)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, carts)
}

// DeleteCart discards a saved cart snapshot
func (h *OrderHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteCart(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// CreateOrder places a new order and sends the confirmation
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), service.CreateOrderInput{
		UserEmail:      req.UserEmail,
		Quantities:     req.Quantities,
		PaymentStatus:  domain.PaymentStatus(req.PaymentStatus),
		DeliveryStatus: domain.DeliveryStatus(req.DeliveryStatus),
	})
	if err != nil {
		h.logger.Error("Order creation failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	// Confirmation is best effort and never blocks the response.
	// The request context dies with the response, so the lookup runs
	// on its own context.
	go func(order *domain.Order) {
		user, err := h.service.GetUser(context.Background(), order.UserEmail)
		if err != nil {
			return
		}
		if err := h.notifier.OrderPlaced(user, order); err != nil {
			h.logger.Warn("Order confirmation not sent",
				zap.String("order_id", order.ID.Hex()),
				zap.Error(err),
			)
		}
	}(order)

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// GetOrder retrieves an order by id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListOrders lists the orders placed by the user given in user_email
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("user_email")
	if email == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "user_email is required")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), email)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// DeleteOrder removes an order and its purchase-history back-reference
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteOrder(r.Context(), id)
	if err != nil {
		h.logger.Error("Order deletion failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// UpdatePaymentStatus sets the payment status of an order
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, func(id primitive.ObjectID, status string) error {
		return h.service.UpdatePaymentStatus(r.Context(), id, domain.PaymentStatus(status))
	})
}

// UpdateDeliveryStatus sets the delivery status of an order
func (h *OrderHandler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, func(id primitive.ObjectID, status string) error {
		return h.service.UpdateDeliveryStatus(r.Context(), id, domain.DeliveryStatus(status))
	})
}

// CreateReview adds a review and bumps the product's popularity
func (h *OrderHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.service.CreateReview(r.Context(), service.CreateReviewInput{
		ProductName: req.ProductName,
		UserEmail:   req.UserEmail,
		Comment:     req.Comment,
		Rating:      req.Rating,
	})
	if err != nil {
		h.logger.Debug("Review creation rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// ListReviews lists the reviews left on the product given in product
func (h *OrderHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("product")
	if name == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "product is required")
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), name)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// DeleteReview removes a review and rolls its popularity bump back
func (h *OrderHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteReview(r.Context(), id)
	if err != nil {
		h.logger.Error("Review deletion failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, apply func(primitive.ObjectID, string) error) {
	id, ok := h.objectIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := apply(id, req.Status); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) objectIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
