package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"marketplace/internal/util"
	"marketplace/pkg/domain"
	"marketplace/pkg/store"
)

// CheckoutRequest places an order for everything in the user's cart.
type CheckoutRequest struct {
	UserID      int64
	TotalAmount float64
	// RazorpayOrderID links the order to a gateway order for later verification.
	RazorpayOrderID string
}

// Checkout converts the cart into an order in one transaction: order header,
// one item per cart line at current price, stock decrement, cart clear.
// EmptyCart and InsufficientStock leave the store untouched.
func (a *App) Checkout(ctx context.Context, req CheckoutRequest) (int64, error) {
	total := req.TotalAmount
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, invalid("totalAmount must be a positive number")
	}
	var (
		orderID  int64
		computed float64
	)
	err := a.store.Checkout(ctx, func(tx store.CheckoutTx) error {
		orderID, computed = 0, 0
		id, err := tx.CreateOrder(req.UserID, a.now().UTC(), total, strings.TrimSpace(req.RazorpayOrderID))
		if errors.Is(err, store.ErrDuplicate) {
			return ErrPaymentOrderLinked
		}
		if err != nil {
			return err
		}
		lines, err := tx.LockCart(req.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		for _, line := range lines {
			if line.Stock < line.Quantity {
				return &InsufficientStockError{ProductID: line.ProductID}
			}
			if err := tx.AddOrderItem(domain.OrderItem{
				OrderID:   id,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}); err != nil {
				return err
			}
			if err := tx.DecrementStock(line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, store.ErrInsufficientStock) {
					return &InsufficientStockError{ProductID: line.ProductID}
				}
				return err
			}
			computed += line.Price * float64(line.Quantity)
		}
		if err := tx.ClearCart(req.UserID); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return 0, err
		}
		return 0, fmt.Errorf("checkout: %w", err)
	}

	logger := util.LoggerFromContext(ctx)
	if math.Abs(computed-total) > 0.005 {
		logger.Warn("checkout total differs from cart", "order_id", orderID, "declared", total, "computed", computed)
	}
	logger.Info("order placed", "order_id", orderID, "user_id", req.UserID)
	a.notify(ctx, req.UserID, fmt.Sprintf("Order #%d placed", orderID), NotificationOrderStatus)
	return orderID, nil
}

// ListOrders returns the user's orders with their items, newest first.
func (a *App) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := a.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
