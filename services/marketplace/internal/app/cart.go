package app

import (
	"context"
	"fmt"

	"marketplace/pkg/domain"
)

// AddToCart adds quantity of a product to the user's cart. created is false
// when an existing line was merged.
func (a *App) AddToCart(ctx context.Context, userID, productID int64, quantity int) (bool, error) {
	if productID <= 0 || quantity <= 0 {
		return false, invalid("productId and a positive quantity are required")
	}
	if _, err := a.GetProduct(ctx, productID); err != nil {
		return false, err
	}
	created, err := a.store.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("add cart item: %w", err)
	}
	return created, nil
}

func (a *App) ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	lines, err := a.store.ListCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return lines, nil
}

// RemoveCartItem deletes one of the user's own cart lines.
func (a *App) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	found, err := a.store.DeleteCartItem(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if !found {
		return notFound("cart item")
	}
	return nil
}
