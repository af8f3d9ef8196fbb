package app

import (
	"context"
	"testing"

	"marketplace/internal/usertoken"
	"marketplace/pkg/domain"
)

func identity(u domain.User) usertoken.Identity {
	return usertoken.Identity{UserID: u.ID, Role: u.Role}
}

func TestReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	p := env.product(t, "Lamp", 10, 1)

	_, err := env.app.AddReview(ctx, alice.ID, p.ID, 6, "great")
	wantKind(t, err, KindValidation)
	_, err = env.app.AddReview(ctx, alice.ID, 999, 4, "great")
	wantKind(t, err, KindNotFound)

	if _, err := env.app.AddReview(ctx, alice.ID, p.ID, 4, " solid "); err != nil {
		t.Fatalf("add review: %v", err)
	}
	reviews, err := env.app.ListReviews(ctx, p.ID)
	if err != nil || len(reviews) != 1 {
		t.Fatalf("list reviews: %v %d", err, len(reviews))
	}
	if reviews[0].Username != "alice" || reviews[0].Comment != "solid" {
		t.Fatalf("unexpected review: %+v", reviews[0])
	}
}

func TestWishlistOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "admin")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	p := env.product(t, "Lamp", 10, 1)

	if err := env.app.AddToWishlist(ctx, alice.ID, p.ID); err != nil {
		t.Fatalf("add to wishlist: %v", err)
	}
	wantKind(t, env.app.AddToWishlist(ctx, alice.ID, p.ID), KindConflict)
	wantKind(t, env.app.AddToWishlist(ctx, alice.ID, 999), KindNotFound)

	_, err := env.app.ListWishlist(ctx, identity(bob), alice.ID)
	wantKind(t, err, KindForbidden)
	items, err := env.app.ListWishlist(ctx, identity(admin), alice.ID)
	if err != nil || len(items) != 1 || items[0].ID != p.ID {
		t.Fatalf("admin list wishlist: %+v %v", items, err)
	}

	wantKind(t, env.app.RemoveFromWishlist(ctx, identity(bob), alice.ID, p.ID), KindForbidden)
	if err := env.app.RemoveFromWishlist(ctx, identity(alice), alice.ID, p.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	wantKind(t, env.app.RemoveFromWishlist(ctx, identity(alice), alice.ID, p.ID), KindNotFound)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "admin")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	_, err := env.app.CreateNotification(ctx, identity(bob), alice.ID, "  ", "")
	wantKind(t, err, KindValidation)
	_, err = env.app.CreateNotification(ctx, identity(bob), 999, "hello", "")
	wantKind(t, err, KindNotFound)

	n, err := env.app.CreateNotification(ctx, identity(bob), alice.ID, "hello", "")
	if err != nil || n.Type != NotificationGeneral || n.IsRead {
		t.Fatalf("create notification: %+v %v", n, err)
	}

	_, err = env.app.ListNotifications(ctx, identity(bob), alice.ID)
	wantKind(t, err, KindForbidden)
	wantKind(t, env.app.MarkNotificationRead(ctx, identity(bob), n.ID), KindNotFound)

	if err := env.app.MarkNotificationRead(ctx, identity(alice), n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, err := env.app.ListNotifications(ctx, identity(alice), alice.ID)
	if err != nil || len(list) != 1 || !list[0].IsRead {
		t.Fatalf("list notifications: %+v %v", list, err)
	}
}

func TestOrderStatusNotificationsReserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "admin")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	_, err := env.app.CreateNotification(ctx, identity(bob), alice.ID, "Order #1 shipped", NotificationOrderStatus)
	wantKind(t, err, KindForbidden)
	if list, _ := env.app.ListNotifications(ctx, identity(alice), alice.ID); len(list) != 0 {
		t.Fatalf("forged notification stored: %+v", list)
	}

	n, err := env.app.CreateNotification(ctx, identity(admin), alice.ID, "Order #1 shipped", NotificationOrderStatus)
	if err != nil || n.Type != NotificationOrderStatus {
		t.Fatalf("admin order status: %+v %v", n, err)
	}
}

func TestUserRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	_, err := env.app.RateUser(ctx, alice.ID, alice.ID, 5, "")
	wantKind(t, err, KindValidation)
	_, err = env.app.RateUser(ctx, alice.ID, 999, 5, "")
	wantKind(t, err, KindNotFound)
	_, err = env.app.RateUser(ctx, alice.ID, bob.ID, 0, "")
	wantKind(t, err, KindValidation)

	summary, err := env.app.RatingSummary(ctx, bob.ID)
	if err != nil || summary.AverageRating != nil {
		t.Fatalf("unrated user should have no average: %+v %v", summary, err)
	}

	if _, err := env.app.RateUser(ctx, alice.ID, bob.ID, 5, "fast shipping"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	_, err = env.app.RateUser(ctx, alice.ID, bob.ID, 1, "changed my mind")
	wantKind(t, err, KindConflict)
	if _, err := env.app.RateUser(ctx, carol.ID, bob.ID, 2, ""); err != nil {
		t.Fatalf("rate: %v", err)
	}

	summary, err = env.app.RatingSummary(ctx, bob.ID)
	if err != nil || summary.AverageRating == nil || *summary.AverageRating != 3.5 || len(summary.Reviews) != 2 {
		t.Fatalf("unexpected summary: %+v %v", summary, err)
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "admin")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	p := env.product(t, "Lamp", 10, 1)

	_, err := env.app.FileReport(ctx, alice.ID, nil, nil, "spam")
	wantKind(t, err, KindValidation)
	_, err = env.app.FileReport(ctx, alice.ID, &bob.ID, &p.ID, "spam")
	wantKind(t, err, KindValidation)
	_, err = env.app.FileReport(ctx, alice.ID, &bob.ID, nil, " ")
	wantKind(t, err, KindValidation)
	missing := int64(999)
	_, err = env.app.FileReport(ctx, alice.ID, nil, &missing, "fake")
	wantKind(t, err, KindNotFound)

	r, err := env.app.FileReport(ctx, alice.ID, nil, &p.ID, "counterfeit")
	if err != nil || r.Status != domain.ReportPending {
		t.Fatalf("file report: %+v %v", r, err)
	}
	if err := env.app.UpdateReportStatus(ctx, r.ID, "resolved"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	wantKind(t, env.app.UpdateReportStatus(ctx, r.ID, "closed"), KindValidation)
	wantKind(t, env.app.UpdateReportStatus(ctx, 999, "reviewed"), KindNotFound)

	pending, err := env.app.ListReports(ctx, "pending")
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending reports: %+v %v", pending, err)
	}
	all, err := env.app.ListReports(ctx, "")
	if err != nil || len(all) != 1 || all[0].Status != domain.ReportResolved {
		t.Fatalf("all reports: %+v %v", all, err)
	}
	_, err = env.app.ListReports(ctx, "bogus")
	wantKind(t, err, KindValidation)
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "admin")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	p := env.product(t, "Lamp", 10, 1)

	_, err := env.app.SendMessage(ctx, alice.ID, alice.ID, nil, "hi me")
	wantKind(t, err, KindValidation)
	_, err = env.app.SendMessage(ctx, alice.ID, bob.ID, nil, "  ")
	wantKind(t, err, KindValidation)
	_, err = env.app.SendMessage(ctx, alice.ID, 999, nil, "hi")
	wantKind(t, err, KindNotFound)

	if _, err := env.app.SendMessage(ctx, alice.ID, bob.ID, &p.ID, "is the lamp available?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := env.app.SendMessage(ctx, bob.ID, alice.ID, nil, "yes"); err != nil {
		t.Fatalf("reply: %v", err)
	}

	_, err = env.app.Conversation(ctx, identity(carol), alice.ID, bob.ID)
	wantKind(t, err, KindForbidden)

	msgs, err := env.app.Conversation(ctx, identity(bob), alice.ID, bob.ID)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("conversation: %v %d", err, len(msgs))
	}
	if msgs[0].ProductName != "Lamp" || msgs[0].SenderUsername != "alice" || msgs[1].Body != "yes" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if _, err := env.app.Conversation(ctx, identity(admin), alice.ID, bob.ID); err != nil {
		t.Fatalf("admin may read conversations: %v", err)
	}
}
