package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/usertoken"
	"marketplace/pkg/domain"
	"marketplace/pkg/store"
)

const (
	NotificationGeneral     = "general"
	NotificationOrderStatus = "order_status"
)

func checkRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalid("rating must be between 1 and 5")
	}
	return nil
}

func (a *App) AddReview(ctx context.Context, userID, productID int64, rating int, comment string) (domain.Review, error) {
	if err := checkRating(rating); err != nil {
		return domain.Review{}, err
	}
	if _, err := a.GetProduct(ctx, productID); err != nil {
		return domain.Review{}, err
	}
	review, err := a.store.CreateReview(ctx, domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

// ListReviews returns a product's reviews with reviewer usernames, newest first.
func (a *App) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	reviews, err := a.store.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (a *App) AddToWishlist(ctx context.Context, userID, productID int64) error {
	if productID <= 0 {
		return invalid("productId is required")
	}
	if _, err := a.GetProduct(ctx, productID); err != nil {
		return err
	}
	err := a.store.AddWishlistItem(ctx, userID, productID)
	if errors.Is(err, store.ErrDuplicate) {
		return ErrAlreadyInWishlist
	}
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (a *App) RemoveFromWishlist(ctx context.Context, caller usertoken.Identity, ownerID, productID int64) error {
	if err := requireOwnerOrAdmin(caller, ownerID); err != nil {
		return err
	}
	found, err := a.store.RemoveWishlistItem(ctx, ownerID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if !found {
		return notFound("wishlist item")
	}
	return nil
}

func (a *App) ListWishlist(ctx context.Context, caller usertoken.Identity, ownerID int64) ([]domain.Product, error) {
	if err := requireOwnerOrAdmin(caller, ownerID); err != nil {
		return nil, err
	}
	products, err := a.store.ListWishlist(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return products, nil
}

func domainNotification(userID int64, message, kind string) domain.Notification {
	return domain.Notification{UserID: userID, Message: message, Type: kind}
}

// CreateNotification records a notification for userID on behalf of caller.
// Empty kind means general; order_status is reserved for the system and admins.
func (a *App) CreateNotification(ctx context.Context, caller usertoken.Identity, userID int64, message, kind string) (domain.Notification, error) {
	message = strings.TrimSpace(message)
	if userID <= 0 || message == "" {
		return domain.Notification{}, invalid("userId and message are required")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = NotificationGeneral
	}
	if kind == NotificationOrderStatus && !caller.IsAdmin() {
		return domain.Notification{}, ErrForbidden
	}
	if err := a.requireUser(ctx, userID); err != nil {
		return domain.Notification{}, err
	}
	n, err := a.store.CreateNotification(ctx, domainNotification(userID, message, kind))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (a *App) ListNotifications(ctx context.Context, caller usertoken.Identity, userID int64) ([]domain.Notification, error) {
	if err := requireOwnerOrAdmin(caller, userID); err != nil {
		return nil, err
	}
	notifications, err := a.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (a *App) MarkNotificationRead(ctx context.Context, caller usertoken.Identity, id int64) error {
	found, err := a.store.MarkNotificationRead(ctx, caller.UserID, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !found {
		return notFound("notification")
	}
	return nil
}

// RateUser records the rater's single rating of another user.
func (a *App) RateUser(ctx context.Context, raterID, rateeID int64, rating int, comment string) (domain.UserRating, error) {
	if rateeID <= 0 {
		return domain.UserRating{}, invalid("rateeId is required")
	}
	if err := checkRating(rating); err != nil {
		return domain.UserRating{}, err
	}
	if raterID == rateeID {
		return domain.UserRating{}, invalid("cannot rate yourself")
	}
	if err := a.requireUser(ctx, rateeID); err != nil {
		return domain.UserRating{}, err
	}
	r, err := a.store.CreateUserRating(ctx, domain.UserRating{
		RaterID: raterID,
		RateeID: rateeID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return domain.UserRating{}, ErrAlreadyRated
	}
	if err != nil {
		return domain.UserRating{}, fmt.Errorf("create user rating: %w", err)
	}
	return r, nil
}

func (a *App) RatingSummary(ctx context.Context, userID int64) (domain.RatingSummary, error) {
	summary, err := a.store.GetRatingSummary(ctx, userID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("rating summary: %w", err)
	}
	return summary, nil
}

// FileReport records a moderation report against exactly one user or product.
func (a *App) FileReport(ctx context.Context, reporterID int64, reportedUserID, reportedProductID *int64, reason string) (domain.Report, error) {
	if (reportedUserID == nil) == (reportedProductID == nil) {
		return domain.Report{}, invalid("exactly one of reportedUserId or reportedProductId is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Report{}, invalid("reason is required")
	}
	if reportedUserID != nil {
		if err := a.requireUser(ctx, *reportedUserID); err != nil {
			return domain.Report{}, err
		}
	} else if _, err := a.GetProduct(ctx, *reportedProductID); err != nil {
		return domain.Report{}, err
	}
	r, err := a.store.CreateReport(ctx, domain.Report{
		ReporterID:        reporterID,
		ReportedUserID:    reportedUserID,
		ReportedProductID: reportedProductID,
		Reason:            reason,
	})
	if err != nil {
		return domain.Report{}, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

func parseReportStatus(status string) (domain.ReportStatus, bool) {
	switch s := domain.ReportStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case domain.ReportPending, domain.ReportReviewed, domain.ReportResolved:
		return s, true
	default:
		return "", false
	}
}

// ListReports returns reports, optionally filtered by status. Admin only.
func (a *App) ListReports(ctx context.Context, status string) ([]domain.Report, error) {
	var filter domain.ReportStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := parseReportStatus(status)
		if !ok {
			return nil, invalid("status must be pending, reviewed or resolved")
		}
		filter = parsed
	}
	reports, err := a.store.ListReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (a *App) UpdateReportStatus(ctx context.Context, id int64, status string) error {
	parsed, ok := parseReportStatus(status)
	if !ok {
		return invalid("status must be pending, reviewed or resolved")
	}
	found, err := a.store.UpdateReportStatus(ctx, id, parsed)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if !found {
		return notFound("report")
	}
	return nil
}

// SendMessage delivers a direct message, optionally about a product.
func (a *App) SendMessage(ctx context.Context, senderID, receiverID int64, productID *int64, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if receiverID <= 0 || body == "" {
		return domain.Message{}, invalid("receiverId and message are required")
	}
	if receiverID == senderID {
		return domain.Message{}, invalid("cannot message yourself")
	}
	if err := a.requireUser(ctx, receiverID); err != nil {
		return domain.Message{}, err
	}
	if productID != nil {
		if _, err := a.GetProduct(ctx, *productID); err != nil {
			return domain.Message{}, err
		}
	}
	msg, err := a.store.CreateMessage(ctx, domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ProductID:  productID,
		Body:       body,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Conversation lists messages between two users. The caller must be one of them or an admin.
func (a *App) Conversation(ctx context.Context, caller usertoken.Identity, userA, userB int64) ([]domain.Message, error) {
	if caller.UserID != userA && caller.UserID != userB && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	msgs, err := a.store.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}
