package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"marketplace/internal/usertoken"
	"marketplace/pkg/auth"
	"marketplace/pkg/domain"
	"marketplace/pkg/payment"
	"marketplace/pkg/store"
)

type testEnv struct {
	app   *App
	store *store.MemoryStore
}

func newTestEnv(t *testing.T, opts ...func(*Config)) testEnv {
	t.Helper()
	tokens, err := usertoken.NewService(usertoken.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	mem := store.NewMemoryStore()
	cfg := Config{
		Store:  mem,
		Tokens: tokens,
		Hasher: auth.NewHasher(4),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return testEnv{app: a, store: mem}
}

func (e testEnv) register(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := e.app.Register(context.Background(), username, "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (e testEnv) product(t *testing.T, name string, price float64, stock int) domain.Product {
	t.Helper()
	p, err := e.store.CreateProduct(context.Background(), domain.Product{
		Name: name, Price: price, Stock: stock, Currency: "INR", Images: []string{},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("kind = %d, want %d (err=%v)", got, kind, err)
	}
}

type fakeGateway struct {
	keyID    string
	secret   string
	receipts []string
	err      error
}

func (g *fakeGateway) KeyID() string { return g.keyID }

func (g *fakeGateway) CreateOrder(_ context.Context, amount float64, currency, receipt string) (payment.Order, error) {
	if g.err != nil {
		return payment.Order{}, g.err
	}
	g.receipts = append(g.receipts, receipt)
	return payment.Order{
		ID:       "order_test1",
		Entity:   "order",
		Amount:   payment.ToMinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(g.secret, orderID, paymentID, signature)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) URL(key string) string { return "https://cdn.example.com/" + key }

func TestNewRequiresTokens(t *testing.T) {
	if _, err := New(Config{Store: store.NewMemoryStore()}); err == nil {
		t.Fatalf("expected error without token service")
	}
}

func TestNewRequiresDatabaseWithoutStore(t *testing.T) {
	tokens, _ := usertoken.NewService(usertoken.Config{Secret: "s"})
	if _, err := New(Config{Tokens: tokens}); err == nil {
		t.Fatalf("expected error without database url")
	}
}

func TestNewDropsGatewayWithoutKey(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Payments = &fakeGateway{} })
	if _, err := env.app.PaymentKey(); !errors.Is(err, ErrPaymentsDisabled) {
		t.Fatalf("expected payments disabled, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	if err := env.app.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestKindOfAndPublicMessage(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}
	if PublicMessage(errors.New("pq: connection refused")) != "internal error" {
		t.Fatalf("internal detail leaked")
	}
	wrapped := errors.Join(errors.New("ctx"), &InsufficientStockError{ProductID: 7})
	if KindOf(wrapped) != KindBusinessRule {
		t.Fatalf("insufficient stock should be a business rule")
	}
	if PublicMessage(wrapped) != "insufficient stock for product 7" {
		t.Fatalf("unexpected message: %q", PublicMessage(wrapped))
	}
	if KindOf(notFound("product")) != KindNotFound || PublicMessage(notFound("product")) != "product not found" {
		t.Fatalf("unexpected not found classification")
	}
}
