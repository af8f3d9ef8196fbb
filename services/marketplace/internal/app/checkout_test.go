package app

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestCheckoutSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	lamp := env.product(t, "Lamp", 10, 5)
	mug := env.product(t, "Mug", 2.5, 4)
	if _, err := env.app.AddToCart(ctx, alice.ID, lamp.ID, 2); err != nil {
		t.Fatalf("add lamp: %v", err)
	}
	if _, err := env.app.AddToCart(ctx, alice.ID, mug.ID, 4); err != nil {
		t.Fatalf("add mug: %v", err)
	}

	orderID, err := env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 30, RazorpayOrderID: "order_abc"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	orders, err := env.app.ListOrders(ctx, alice.ID)
	if err != nil || len(orders) != 1 {
		t.Fatalf("list orders: %v %d", err, len(orders))
	}
	o := orders[0]
	if o.ID != orderID || o.TotalAmount != 30 || o.RazorpayOrderID != "order_abc" || len(o.Items) != 2 {
		t.Fatalf("unexpected order: %+v", o)
	}
	for _, it := range o.Items {
		if it.ProductID == lamp.ID && (it.Quantity != 2 || it.Price != 10) {
			t.Fatalf("unexpected lamp item: %+v", it)
		}
	}

	got, _ := env.app.GetProduct(ctx, lamp.ID)
	if got.Stock != 3 {
		t.Fatalf("lamp stock = %d, want 3", got.Stock)
	}
	got, _ = env.app.GetProduct(ctx, mug.ID)
	if got.Stock != 0 {
		t.Fatalf("mug stock = %d, want 0", got.Stock)
	}
	lines, _ := env.app.ListCart(ctx, alice.ID)
	if len(lines) != 0 {
		t.Fatalf("cart should be cleared, got %d lines", len(lines))
	}

	notes, err := env.store.ListNotifications(ctx, alice.ID)
	if err != nil || len(notes) != 1 || notes[0].Type != NotificationOrderStatus {
		t.Fatalf("expected order notification, got %+v %v", notes, err)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	lamp := env.product(t, "Lamp", 10, 5)
	mug := env.product(t, "Mug", 3, 1)
	if _, err := env.app.AddToCart(ctx, alice.ID, lamp.ID, 2); err != nil {
		t.Fatalf("add lamp: %v", err)
	}
	if _, err := env.app.AddToCart(ctx, alice.ID, mug.ID, 2); err != nil {
		t.Fatalf("add mug: %v", err)
	}

	_, err := env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 26})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.ProductID != mug.ID {
		t.Fatalf("expected insufficient stock for mug, got %v", err)
	}
	wantKind(t, err, KindBusinessRule)

	got, _ := env.app.GetProduct(ctx, lamp.ID)
	if got.Stock != 5 {
		t.Fatalf("lamp stock changed on failed checkout: %d", got.Stock)
	}
	orders, _ := env.app.ListOrders(ctx, alice.ID)
	if len(orders) != 0 {
		t.Fatalf("no order should persist, got %d", len(orders))
	}
	lines, _ := env.app.ListCart(ctx, alice.ID)
	if len(lines) != 2 {
		t.Fatalf("cart should be intact, got %d lines", len(lines))
	}
}

func TestCheckoutEmptyCartAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	_, err := env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 10})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	orders, _ := env.app.ListOrders(ctx, alice.ID)
	if len(orders) != 0 {
		t.Fatalf("empty checkout must not leave an order")
	}

	_, err = env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 0})
	wantKind(t, err, KindValidation)
}

func TestCheckoutStoresDeclaredTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	lamp := env.product(t, "Lamp", 10, 5)
	if _, err := env.app.AddToCart(ctx, alice.ID, lamp.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 99}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	orders, _ := env.app.ListOrders(ctx, alice.ID)
	if orders[0].TotalAmount != 99 {
		t.Fatalf("declared total should be stored, got %v", orders[0].TotalAmount)
	}
}

func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lamp := env.product(t, "Lamp", 10, 5)
	buyers := []int64{env.register(t, "alice").ID, env.register(t, "bob").ID}
	for _, id := range buyers {
		if _, err := env.app.AddToCart(ctx, id, lamp.ID, 3); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}

	results := make([]error, len(buyers))
	var g errgroup.Group
	for i, id := range buyers {
		g.Go(func() error {
			_, results[i] = env.app.Checkout(ctx, CheckoutRequest{UserID: id, TotalAmount: 30})
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case KindOf(err) != KindBusinessRule:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one checkout should win, got %d", succeeded)
	}
	got, _ := env.app.GetProduct(ctx, lamp.ID)
	if got.Stock != 2 {
		t.Fatalf("stock = %d, want 2", got.Stock)
	}
}

func TestConcurrentCheckoutSameCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	lamp := env.product(t, "Lamp", 10, 5)
	if _, err := env.app.AddToCart(ctx, alice.ID, lamp.ID, 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	results := make([]error, 2)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 20})
			return nil
		})
	}
	_ = g.Wait()

	var ok, empty int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmptyCart):
			empty++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || empty != 1 {
		t.Fatalf("want one success and one empty cart, got ok=%d empty=%d", ok, empty)
	}
	got, _ := env.app.GetProduct(ctx, lamp.ID)
	if got.Stock != 3 {
		t.Fatalf("stock = %d, want 3", got.Stock)
	}
}

func TestCheckoutReportsLowestShortProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	lamp := env.product(t, "Lamp", 10, 1)
	mug := env.product(t, "Mug", 3, 1)
	// Added in reverse product order; lines are still walked by product id.
	if _, err := env.app.AddToCart(ctx, alice.ID, mug.ID, 2); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	if _, err := env.app.AddToCart(ctx, alice.ID, lamp.ID, 2); err != nil {
		t.Fatalf("add lamp: %v", err)
	}

	_, err := env.app.Checkout(ctx, CheckoutRequest{UserID: alice.ID, TotalAmount: 26})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.ProductID != lamp.ID {
		t.Fatalf("expected insufficient stock for lamp %d, got %v", lamp.ID, err)
	}
}
