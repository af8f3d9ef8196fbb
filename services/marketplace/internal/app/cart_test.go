package app

import (
	"context"
	"testing"
)

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	p := env.product(t, "Lamp", 10, 5)

	created, err := env.app.AddToCart(ctx, alice.ID, p.ID, 2)
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	created, err = env.app.AddToCart(ctx, alice.ID, p.ID, 1)
	if err != nil || created {
		t.Fatalf("second add should merge: created=%v err=%v", created, err)
	}
	lines, err := env.app.ListCart(ctx, alice.ID)
	if err != nil || len(lines) != 1 || lines[0].Quantity != 3 || lines[0].Name != "Lamp" {
		t.Fatalf("unexpected cart: %+v %v", lines, err)
	}

	_, err = env.app.AddToCart(ctx, alice.ID, p.ID, 0)
	wantKind(t, err, KindValidation)
	_, err = env.app.AddToCart(ctx, alice.ID, 999, 1)
	wantKind(t, err, KindNotFound)

	wantKind(t, env.app.RemoveCartItem(ctx, bob.ID, lines[0].ID), KindNotFound)
	if err := env.app.RemoveCartItem(ctx, alice.ID, lines[0].ID); err != nil {
		t.Fatalf("remove cart item: %v", err)
	}
	lines, _ = env.app.ListCart(ctx, alice.ID)
	if len(lines) != 0 {
		t.Fatalf("cart should be empty, got %+v", lines)
	}
}
