package service

import (
	"context"
	"errors"
	"testing"

	"transport-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func seedProduct(t *testing.T, f *fixture, name string, price float64, stock int) *domain.Product {
	t.Helper()
	product, err := f.service.CreateProduct(context.Background(), CreateProductInput{
		Name:        name,
		Description: "A ticket valid on the whole network",
		Price:       price,
		Stock:       stock,
		Category:    domain.CategorySingleTicket,
	})
	if err != nil {
		t.Fatalf("seed product %q: %v", name, err)
	}
	return product
}

func seedUser(t *testing.T, f *fixture, email string) *domain.User {
	t.Helper()
	user, err := f.service.CreateUser(context.Background(), CreateUserInput{
		Name:    "Test User",
		Email:   email,
		Address: "12 rue de la Gare, Lyon",
	})
	if err != nil {
		t.Fatalf("seed user %q: %v", email, err)
	}
	return user
}

// Property 1: a freshly created product always starts with popularity 0
// and the stock it was created with, never negative.
func TestProperty_ProductCreationInitializesCounters(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("new products have popularity 0 and non-negative stock", prop.ForAll(
		func(name string, price float64, stock int) bool {
			f := newFixture()
			ctx := context.Background()

			product, err := f.service.CreateProduct(ctx, CreateProductInput{
				Name:        name,
				Description: "A ticket valid on the whole network",
				Price:       price,
				Stock:       stock,
				Category:    domain.CategoryDayTicket,
			})
			if err != nil {
				// Invalid inputs are rejected, not stored
				if len(f.products.products) != 0 {
					t.Logf("FAIL: rejected product was stored anyway")
					return false
				}
				return true
			}

			if product.Popularity != 0 {
				t.Logf("FAIL: popularity starts at %d, want 0", product.Popularity)
				return false
			}
			if product.Stock < 0 {
				t.Logf("FAIL: negative stock %d", product.Stock)
				return false
			}
			if product.Stock != stock {
				t.Logf("FAIL: stock %d, want %d", product.Stock, stock)
				return false
			}
			if product.CreatedAt.IsZero() {
				t.Logf("FAIL: creation timestamp not set")
				return false
			}
			return true
		},
		gen.RegexMatch(`[A-Z][a-z]{2,12}( [a-z]{2,10})?`),
		gen.Float64Range(0.5, 500),
		gen.IntRange(-3, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property 4: a second user with the same email is rejected and the
// user count stays unchanged.
func TestProperty_DuplicateEmailRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("creating the same email twice fails with ErrDuplicateEmail", prop.ForAll(
		func(email string) bool {
			f := newFixture()
			ctx := context.Background()

			if _, err := f.service.CreateUser(ctx, CreateUserInput{
				Name: "First", Email: email, Address: "1 place Bellecour",
			}); err != nil {
				return true
			}

			before := len(f.users.users)
			_, err := f.service.CreateUser(ctx, CreateUserInput{
				Name: "Second", Email: email, Address: "2 place Bellecour",
			})
			if !errors.Is(err, domain.ErrDuplicateEmail) {
				t.Logf("FAIL: expected ErrDuplicateEmail, got %v", err)
				return false
			}
			if len(f.users.users) != before {
				t.Logf("FAIL: user count changed from %d to %d", before, len(f.users.users))
				return false
			}
			return true
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|fr)`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property 5: filtering with no predicates returns every product, and a
// price range returns exactly the products inside it.
func TestProperty_FilterPriceRange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("price range filter returns exactly the matching subset", prop.ForAll(
		func(prices []float64, lo, hi float64) bool {
			if lo > hi {
				lo, hi = hi, lo
			}
			f := newFixture()
			ctx := context.Background()

			for i, price := range prices {
				seedProduct(t, f, productName(i), price, 10)
			}

			all, err := f.service.FilterProducts(ctx, domain.ProductFilter{})
			if err != nil {
				t.Logf("FAIL: unfiltered query: %v", err)
				return false
			}
			if len(all) != len(prices) {
				t.Logf("FAIL: unfiltered query returned %d of %d products", len(all), len(prices))
				return false
			}

			inRange, err := f.service.FilterProducts(ctx, domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
			if err != nil {
				t.Logf("FAIL: ranged query: %v", err)
				return false
			}

			want := 0
			for _, price := range prices {
				if price >= lo && price <= hi {
					want++
				}
			}
			if len(inRange) != want {
				t.Logf("FAIL: range [%v, %v] returned %d products, want %d", lo, hi, len(inRange), want)
				return false
			}
			for _, p := range inRange {
				if p.Price < lo || p.Price > hi {
					t.Logf("FAIL: product %q price %v outside [%v, %v]", p.Name, p.Price, lo, hi)
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 100)),
		gen.Float64Range(1, 100),
		gen.Float64Range(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func productName(i int) string {
	names := []string{
		"Ticket simple", "Ticket journée", "Carnet 10 tickets",
		"Abonnement mensuel", "Abonnement annuel",
	}
	if i < len(names) {
		return names[i]
	}
	return names[i%len(names)] + " " + string(rune('A'+i))
}

func TestFilterProducts_InvertedRangeRejected(t *testing.T) {
	f := newFixture()
	lo, hi := 50.0, 10.0

	_, err := f.service.FilterProducts(context.Background(), domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error for min_price > max_price, got %v", err)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{
			name: "empty name",
			input: CreateProductInput{
				Name: "  ", Description: "A perfectly fine description",
				Price: 10, Stock: 5, Category: domain.CategorySingleTicket,
			},
		},
		{
			name: "zero price",
			input: CreateProductInput{
				Name: "Ticket simple", Description: "A perfectly fine description",
				Price: 0, Stock: 5, Category: domain.CategorySingleTicket,
			},
		},
		{
			name: "negative stock",
			input: CreateProductInput{
				Name: "Ticket simple", Description: "A perfectly fine description",
				Price: 10, Stock: -1, Category: domain.CategorySingleTicket,
			},
		},
		{
			name: "short description",
			input: CreateProductInput{
				Name: "Ticket simple", Description: "nope",
				Price: 10, Stock: 5, Category: domain.CategorySingleTicket,
			},
		},
		{
			name: "unknown category",
			input: CreateProductInput{
				Name: "Ticket simple", Description: "A perfectly fine description",
				Price: 10, Stock: 5, Category: domain.Category("Ticket fantôme"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.CreateProduct(context.Background(), tt.input)
			if !domain.IsValidationError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(f.products.products) != 0 {
				t.Errorf("invalid product was stored")
			}
		})
	}
}

func TestDeleteProduct_Missing(t *testing.T) {
	f := newFixture()

	deleted, err := f.service.DeleteProduct(context.Background(), "Ticket simple")
	if err != nil {
		t.Fatalf("deleting a missing product should not error, got %v", err)
	}
	if deleted {
		t.Fatal("deleting a missing product reported deleted=true")
	}
}

func TestCreateCart_SnapshotsPrices(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	seedProduct(t, f, "Ticket simple", 2.10, 50)
	seedProduct(t, f, "Carnet 10 tickets", 18.50, 20)
	seedUser(t, f, "a@b.com")

	cart, err := f.service.CreateCart(ctx, "a@b.com", map[string]int{
		"Ticket simple":     3,
		"Carnet 10 tickets": 1,
	})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("cart has %d items, want 2", len(cart.Items))
	}
	wantTotal := 3*2.10 + 18.50
	if cart.Total != wantTotal {
		t.Errorf("cart total %v, want %v", cart.Total, wantTotal)
	}

	// Cart creation must not touch stock
	p, err := f.service.GetProduct(ctx, "Ticket simple")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Stock != 50 {
		t.Errorf("cart creation changed stock to %d", p.Stock)
	}
}

func TestCreateCart_UnknownProduct(t *testing.T) {
	f := newFixture()
	seedUser(t, f, "a@b.com")

	_, err := f.service.CreateCart(context.Background(), "a@b.com", map[string]int{"Ticket fantôme": 1})
	if err == nil {
		t.Fatal("expected error for unknown product in cart")
	}
}
