package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConsistencyService is the only sanctioned mutation path for the five
// catalog collections. It owns the validation contract and guarantees
// that every cross-entity side effect (stock decrement, purchase-history
// append, popularity counter) happens exactly once, or is compensated.
type ConsistencyService interface {
	CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, name string) (bool, error)
	GetProduct(ctx context.Context, name string) (*domain.Product, error)
	FilterProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)

	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, email string) (bool, error)
	GetUser(ctx context.Context, email string) (*domain.User, error)

	CreateCart(ctx context.Context, userEmail string, quantities map[string]int) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID primitive.ObjectID) (*domain.Cart, error)
	ListCarts(ctx context.Context, userEmail string) ([]*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID primitive.ObjectID) (bool, error)

	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error)
	GetOrder(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error)
	ListOrders(ctx context.Context, userEmail string) ([]*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID primitive.ObjectID, status domain.PaymentStatus) error
	UpdateDeliveryStatus(ctx context.Context, orderID primitive.ObjectID, status domain.DeliveryStatus) error

	CreateReview(ctx context.Context, in CreateReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, reviewID primitive.ObjectID) (bool, error)
	ListReviews(ctx context.Context, productName string) ([]*domain.Review, error)

	// RepairIncomplete rolls back stale partially applied mutations left
	// in the journal and returns how many entries were resolved. It runs
	// at startup and may be invoked again at any time.
	RepairIncomplete(ctx context.Context) (int, error)
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    domain.Category
}

// CreateUserInput carries the fields of a new user. Phone is optional.
type CreateUserInput struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

// CreateOrderInput carries the fields of a new order. Quantities maps
// product names to ordered quantities.
type CreateOrderInput struct {
	UserEmail      string
	Quantities     map[string]int
	PaymentStatus  domain.PaymentStatus
	DeliveryStatus domain.DeliveryStatus
}

// CreateReviewInput carries the fields of a new review.
type CreateReviewInput struct {
	ProductName string
	UserEmail   string
	Comment     string
	Rating      int
}

type consistencyService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	reviews  repository.ReviewRepository
	journal  repository.JournalRepository
}

// NewConsistencyService creates a new instance of ConsistencyService
func NewConsistencyService(
	products repository.ProductRepository,
	users repository.UserRepository,
	carts repository.CartRepository,
	orders repository.OrderRepository,
	reviews repository.ReviewRepository,
	journal repository.JournalRepository,
) ConsistencyService {
	return &consistencyService{
		products: products,
		users:    users,
		carts:    carts,
		orders:   orders,
		reviews:  reviews,
		journal:  journal,
	}
}

// CreateProduct validates the input and inserts the product with
// popularity 0 and the creation timestamp set.
func (s *consistencyService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Popularity:  0,
		CreatedAt:   time.Now(),
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes the product and reports whether a document was
// removed. Carts, orders, and reviews referencing the name are left in
// place; read paths tolerate the dangling references.
func (s *consistencyService) DeleteProduct(ctx context.Context, name string) (bool, error) {
	return s.products.DeleteByName(ctx, name)
}

// GetProduct retrieves a product by name.
func (s *consistencyService) GetProduct(ctx context.Context, name string) (*domain.Product, error) {
	return s.products.FindByName(ctx, name)
}

// FilterProducts is a pure read returning every product matching all
// supplied predicates.
func (s *consistencyService) FilterProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, &domain.ValidationError{Field: "price_range", Reason: "minimum exceeds maximum"}
	}
	return s.products.Filter(ctx, filter)
}

// CreateUser validates the input and inserts the user with an empty
// purchase history. A taken email fails with domain.ErrDuplicateEmail.
func (s *consistencyService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Address:      strings.TrimSpace(in.Address),
		Phone:        strings.TrimSpace(in.Phone),
		RegisteredAt: time.Now(),
		OrderHistory: []primitive.ObjectID{},
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and reports whether a document was
// removed. The user's carts, orders, and reviews are not cascaded.
func (s *consistencyService) DeleteUser(ctx context.Context, email string) (bool, error) {
	return s.users.DeleteByEmail(ctx, email)
}

// GetUser retrieves a user by email.
func (s *consistencyService) GetUser(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// CreateCart snapshots the given quantities against current prices.
// The total is frozen and never recomputed on later price changes.
func (s *consistencyService) CreateCart(ctx context.Context, userEmail string, quantities map[string]int) (*domain.Cart, error) {
	user, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	items, total, err := s.resolveItems(ctx, quantities, false)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		UserEmail: user.Email,
		Items:     items,
		Total:     total,
		CreatedAt: time.Now(),
	}

	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart retrieves a cart snapshot by id
func (s *consistencyService) GetCart(ctx context.Context, cartID primitive.ObjectID) (*domain.Cart, error) {
	return s.carts.FindByID(ctx, cartID)
}

// ListCarts retrieves every cart saved by a user
func (s *consistencyService) ListCarts(ctx context.Context, userEmail string) ([]*domain.Cart, error) {
	user, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.carts.ListByUser(ctx, user.ID)
}

// DeleteCart discards a saved cart snapshot. Carts reference nothing
// and nothing references them, so this is a plain single-document
// delete. Returns whether a cart was removed.
func (s *consistencyService) DeleteCart(ctx context.Context, cartID primitive.ObjectID) (bool, error) {
	return s.carts.Delete(ctx, cartID)
}

// resolveItems turns a product-name to quantity mapping into priced
// items and the snapshot total. Names are resolved in sorted order so
// multi-step mutations built from the result are deterministic. With
// checkStock set, a quantity above current stock fails the whole call.
func (s *consistencyService) resolveItems(ctx context.Context, quantities map[string]int, checkStock bool) ([]domain.Item, float64, error) {
	if len(quantities) == 0 {
		return nil, 0, &domain.ValidationError{Field: "quantities", Reason: "must not be empty"}
	}

	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]domain.Item, 0, len(names))
	total := 0.0
	for _, name := range names {
		qty := quantities[name]
		if qty <= 0 {
			return nil, 0, &domain.ValidationError{
				Field:  "quantities",
				Reason: fmt.Sprintf("quantity for %q must be positive", name),
			}
		}

		product, err := s.products.FindByName(ctx, name)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return nil, 0, fmt.Errorf("product %q: %w", name, repository.ErrProductNotFound)
			}
			return nil, 0, err
		}

		if checkStock && product.Stock < qty {
			return nil, 0, fmt.Errorf("product %q: %w", name, domain.ErrInsufficientStock)
		}

		items = append(items, domain.Item{
			ProductName: product.Name,
			Quantity:    qty,
			UnitPrice:   product.Price,
		})
		total += product.Price * float64(qty)
	}

	return items, total, nil
}

func validateProductInput(in CreateProductInput) error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return &domain.ValidationError{Field: "name", Reason: "must be at least 2 characters"}
	}
	if in.Price <= 0 {
		return &domain.ValidationError{Field: "price", Reason: "must be positive"}
	}
	if in.Stock < 0 {
		return &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		return &domain.ValidationError{Field: "description", Reason: "must be at least 10 characters"}
	}
	if !in.Category.IsValid() {
		return &domain.ValidationError{Field: "category", Reason: "unknown category"}
	}
	return nil
}

func validateUserInput(in CreateUserInput) error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return &domain.ValidationError{Field: "name", Reason: "must be at least 2 characters"}
	}
	email := strings.TrimSpace(in.Email)
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return &domain.ValidationError{Field: "email", Reason: "must contain @ and ."}
	}
	if len(strings.TrimSpace(in.Address)) < 5 {
		return &domain.ValidationError{Field: "address", Reason: "must be at least 5 characters"}
	}
	return nil
}
