package app

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindBusinessRule
	KindUnavailable
)

// Error is a classified failure whose Message is safe to show clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrCredentialsRequired = &Error{Kind: KindValidation, Message: "username and password are required"}
	// ErrInvalidCredentials does not reveal whether the username exists.
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid credentials"}
	ErrUsernameTaken      = &Error{Kind: KindConflict, Message: "username already exists"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}

	ErrEmptyCart = &Error{Kind: KindBusinessRule, Message: "cart is empty"}
	// ErrPaymentOrderLinked rejects a checkout reusing a gateway order id.
	ErrPaymentOrderLinked = &Error{Kind: KindConflict, Message: "payment order already linked to an order"}

	ErrAlreadyInWishlist = &Error{Kind: KindConflict, Message: "product already in wishlist"}
	ErrAlreadyRated      = &Error{Kind: KindConflict, Message: "user already rated"}

	ErrPaymentsDisabled = &Error{Kind: KindUnavailable, Message: "payments not configured"}
	ErrImagesDisabled   = &Error{Kind: KindUnavailable, Message: "image storage not configured"}
	ErrInvalidSignature = &Error{Kind: KindValidation, Message: "invalid signature"}
)

// InsufficientStockError aborts a checkout when a product cannot cover its cart line.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

func invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// KindOf classifies err. Anything unclassified is an internal fault.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return KindBusinessRule
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing text for a classified error.
func PublicMessage(err error) string {
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return stock.Error()
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
