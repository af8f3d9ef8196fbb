package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketplace/internal/usertoken"
	"marketplace/pkg/auth"
	"marketplace/pkg/payment"
	"marketplace/pkg/storage"
	"marketplace/pkg/store"
)

// PaymentGateway is the external payment order collaborator.
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PasswordHasher is satisfied by *auth.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	VerifyMissing(password string) bool
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	LockTimeout time.Duration
	Store       store.Store
	Tokens      *usertoken.Service
	Hasher      PasswordHasher
	// Payments and Images are optional; their features report unavailable when nil.
	Payments PaymentGateway
	Images   storage.ObjectStore
	Now      func() time.Time
}

// App wires the store, credential and token services, and external collaborators.
type App struct {
	store    store.Store
	tokens   *usertoken.Service
	hasher   PasswordHasher
	payments PaymentGateway
	images   storage.ObjectStore
	now      func() time.Time
}

// New constructs the application, opening Postgres unless a Store is injected.
func New(cfg Config) (*App, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("token service required")
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var opts []store.GormStoreOption
		if cfg.LockTimeout > 0 {
			opts = append(opts, store.WithLockTimeout(cfg.LockTimeout))
		}
		gormStore, err := store.NewGormStore(cfg.DatabaseURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		dataStore = gormStore
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultCost)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	payments := cfg.Payments
	if payments != nil && payments.KeyID() == "" {
		payments = nil
	}
	return &App{
		store:    dataStore,
		tokens:   cfg.Tokens,
		hasher:   hasher,
		payments: payments,
		images:   cfg.Images,
		now:      now,
	}, nil
}

// Health reports store reachability.
func (a *App) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.store.Ping(ctx)
}

// Authenticate verifies a bearer token.
func (a *App) Authenticate(token string) (usertoken.Identity, error) {
	return a.tokens.Verify(token)
}

// notify records a notification without failing the caller.
func (a *App) notify(ctx context.Context, userID int64, message, kind string) {
	if _, err := a.store.CreateNotification(ctx, domainNotification(userID, message, kind)); err != nil {
		slog.Warn("notification not recorded", "user_id", userID, "type", kind, "err", err)
	}
}

func requireOwnerOrAdmin(caller usertoken.Identity, ownerID int64) error {
	if caller.UserID == ownerID || caller.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
