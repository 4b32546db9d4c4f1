package service

import (
	"context"
	"fmt"
	"time"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories mirroring the semantics of the mongo-backed
// ones, including the stock and popularity guards.

type mockProductRepository struct {
	products map[string]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[string]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.Name]; exists {
		return &domain.ValidationError{Field: "name", Reason: "product with this name already exists"}
	}
	m.products[product.Name] = product
	return nil
}

func (m *mockProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	product, exists := m.products[name]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copy := *product
	return &copy, nil
}

func (m *mockProductRepository) DeleteByName(ctx context.Context, name string) (bool, error) {
	if _, exists := m.products[name]; !exists {
		return false, nil
	}
	delete(m.products, name)
	return true, nil
}

func (m *mockProductRepository) Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	results := []*domain.Product{}
	for _, p := range m.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.MinPopularity != nil && p.Popularity < *filter.MinPopularity {
			continue
		}
		if filter.MinStock != nil && p.Stock < *filter.MinStock {
			continue
		}
		copy := *p
		results = append(results, &copy)
	}
	return results, nil
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, name string, delta int) error {
	product, exists := m.products[name]
	if !exists {
		return repository.ErrProductNotFound
	}
	if product.Stock+delta < 0 {
		return fmt.Errorf("product %q: %w", name, domain.ErrInsufficientStock)
	}
	product.Stock += delta
	return nil
}

func (m *mockProductRepository) IncrementPopularity(ctx context.Context, name string) error {
	product, exists := m.products[name]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.Popularity++
	return nil
}

func (m *mockProductRepository) DecrementPopularity(ctx context.Context, name string) error {
	product, exists := m.products[name]
	if !exists || product.Popularity == 0 {
		return nil
	}
	product.Popularity--
	return nil
}

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	if _, exists := m.users[email]; !exists {
		return false, nil
	}
	delete(m.users, email)
	return true, nil
}

func (m *mockUserRepository) AppendOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	for _, user := range m.users {
		if user.ID == userID {
			user.OrderHistory = append(user.OrderHistory, orderID)
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) RemoveOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	for _, user := range m.users {
		if user.ID != userID {
			continue
		}
		kept := user.OrderHistory[:0]
		for _, id := range user.OrderHistory {
			if id != orderID {
				kept = append(kept, id)
			}
		}
		user.OrderHistory = kept
	}
	// Missing user is a no-op, matching the $pull semantics.
	return nil
}

type mockCartRepository struct {
	carts map[primitive.ObjectID]*domain.Cart
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[primitive.ObjectID]*domain.Cart)}
}

func (m *mockCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	m.carts[cart.ID] = cart
	return nil
}

func (m *mockCartRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	cart, exists := m.carts[id]
	if !exists {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Cart, error) {
	results := []*domain.Cart{}
	for _, c := range m.carts {
		if c.UserID == userID {
			results = append(results, c)
		}
	}
	return results, nil
}

func (m *mockCartRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if _, exists := m.carts[id]; !exists {
		return false, nil
	}
	delete(m.carts, id)
	return true, nil
}

type mockOrderRepository struct {
	orders map[primitive.ObjectID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[primitive.ObjectID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Order, error) {
	results := []*domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			results = append(results, o)
		}
	}
	return results, nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if _, exists := m.orders[id]; !exists {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

func (m *mockOrderRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.PaymentStatus = status
	return nil
}

func (m *mockOrderRepository) UpdateDeliveryStatus(ctx context.Context, id primitive.ObjectID, status domain.DeliveryStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.DeliveryStatus = status
	return nil
}

func (m *mockOrderRepository) UpdateLifecycleStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

type mockReviewRepository struct {
	reviews map[primitive.ObjectID]*domain.Review
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: make(map[primitive.ObjectID]*domain.Review)}
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	review, exists := m.reviews[id]
	if !exists {
		return nil, repository.ErrReviewNotFound
	}
	return review, nil
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productName string) ([]*domain.Review, error) {
	results := []*domain.Review{}
	for _, r := range m.reviews {
		if r.ProductName == productName {
			results = append(results, r)
		}
	}
	return results, nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if _, exists := m.reviews[id]; !exists {
		return false, nil
	}
	delete(m.reviews, id)
	return true, nil
}

type mockJournalRepository struct {
	entries map[primitive.ObjectID]*domain.JournalEntry
}

func newMockJournalRepository() *mockJournalRepository {
	return &mockJournalRepository{entries: make(map[primitive.ObjectID]*domain.JournalEntry)}
}

func (m *mockJournalRepository) Create(ctx context.Context, entry *domain.JournalEntry) error {
	stored := *entry
	stored.Steps = append([]domain.JournalStep(nil), entry.Steps...)
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockJournalRepository) MarkStep(ctx context.Context, entryID primitive.ObjectID, stepIndex int, done bool) error {
	entry, exists := m.entries[entryID]
	if !exists {
		return fmt.Errorf("journal entry %s vanished", entryID.Hex())
	}
	entry.Steps[stepIndex].Done = done
	return nil
}

func (m *mockJournalRepository) Delete(ctx context.Context, entryID primitive.ObjectID) error {
	delete(m.entries, entryID)
	return nil
}

func (m *mockJournalRepository) ListOlderThan(ctx context.Context, age time.Duration) ([]*domain.JournalEntry, error) {
	cutoff := time.Now().Add(-age)
	results := []*domain.JournalEntry{}
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			results = append(results, e)
		}
	}
	return results, nil
}

// fixture wires a service over fresh mocks and hands the mocks back for
// post-condition checks.
type fixture struct {
	products *mockProductRepository
	users    *mockUserRepository
	carts    *mockCartRepository
	orders   *mockOrderRepository
	reviews  *mockReviewRepository
	journal  *mockJournalRepository
	service  ConsistencyService
}

func newFixture() *fixture {
	f := &fixture{
		products: newMockProductRepository(),
		users:    newMockUserRepository(),
		carts:    newMockCartRepository(),
		orders:   newMockOrderRepository(),
		reviews:  newMockReviewRepository(),
		journal:  newMockJournalRepository(),
	}
	f.service = NewConsistencyService(f.products, f.users, f.carts, f.orders, f.reviews, f.journal)
	return f
}

// failingProductRepository fails stock adjustments for selected product
// names, simulating backend errors in the middle of an order sequence.
// failDecrementFor breaks the forward decrement, failRestoreFor breaks
// the compensating increment.
type failingProductRepository struct {
	repository.ProductRepository
	failDecrementFor string
	failRestoreFor   string
}

func (f *failingProductRepository) AdjustStock(ctx context.Context, name string, delta int) error {
	if delta < 0 && name == f.failDecrementFor {
		return fmt.Errorf("write concern error on %q", name)
	}
	if delta > 0 && name == f.failRestoreFor {
		return fmt.Errorf("write concern error on %q", name)
	}
	return f.ProductRepository.AdjustStock(ctx, name, delta)
}
