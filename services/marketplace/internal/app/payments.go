package app

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"marketplace/internal/util"
	"marketplace/pkg/domain"
	"marketplace/pkg/payment"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// PaymentKey returns the public gateway key id.
func (a *App) PaymentKey() (string, error) {
	if a.payments == nil {
		return "", ErrPaymentsDisabled
	}
	return a.payments.KeyID(), nil
}

// CreatePaymentOrder registers an order with the gateway for amount in major units.
func (a *App) CreatePaymentOrder(ctx context.Context, amount float64, currency string) (payment.Order, error) {
	if a.payments == nil {
		return payment.Order{}, ErrPaymentsDisabled
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return payment.Order{}, invalid("amount must be a positive number")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !currencyCode.MatchString(currency) {
		return payment.Order{}, invalid("currency must be a 3-letter code")
	}
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	order, err := a.payments.CreateOrder(ctx, amount, currency, receipt)
	if err != nil {
		return payment.Order{}, fmt.Errorf("create payment order: %w", err)
	}
	return order, nil
}

// VerifyPayment checks the gateway signature and, when an order references
// the gateway order, records the payment on it.
func (a *App) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	if a.payments == nil {
		return false, ErrPaymentsDisabled
	}
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	if orderID == "" || paymentID == "" || strings.TrimSpace(signature) == "" {
		return false, invalid("order_id, payment_id and signature are required")
	}
	if !a.payments.VerifySignature(orderID, paymentID, signature) {
		return false, ErrInvalidSignature
	}
	linked, err := a.store.MarkOrderPaid(ctx, orderID, paymentID)
	if err != nil {
		return false, fmt.Errorf("record payment: %w", err)
	}
	util.LoggerFromContext(ctx).Info("payment verified", "razorpay_order_id", orderID, "linked", linked)
	return linked, nil
}
