package store

import (
	"context"
	"errors"
	"time"

	"marketplace/pkg/domain"
)

var (
	// ErrDuplicate reports a uniqueness violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientStock is returned by CheckoutTx.DecrementStock when the
	// guarded update matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductSort names a sortable product column.
type ProductSort string

const (
	SortByID        ProductSort = ""
	SortByName      ProductSort = "name"
	SortByPrice     ProductSort = "price"
	SortByStock     ProductSort = "stock"
	SortByCreatedAt ProductSort = "created_at"
)

// ProductQuery filters and orders a product listing.
type ProductQuery struct {
	Search string
	SortBy ProductSort
	Desc   bool
}

func firstAccountRole(existing int64) domain.UserRole {
	if existing == 0 {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// Store defines persistence for the marketplace.
type Store interface {
	Ping(ctx context.Context) error

	// users
	// CreateUser inserts u. An empty Role is assigned atomically with the
	// insert: RoleAdmin when no account exists yet, RoleUser otherwise.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, id int64, role domain.UserRole) (bool, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)

	// products
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, bool, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	AppendProductImage(ctx context.Context, id int64, imageURL string) (domain.Product, bool, error)

	// cart
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) (created bool, err error)
	ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error)
	DeleteCartItem(ctx context.Context, userID, itemID int64) (bool, error)

	// orders
	Checkout(ctx context.Context, fn func(CheckoutTx) error) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	MarkOrderPaid(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (bool, error)

	// reviews
	CreateReview(ctx context.Context, r domain.Review) (domain.Review, error)
	ListReviews(ctx context.Context, productID int64) ([]domain.Review, error)

	// wishlist
	AddWishlistItem(ctx context.Context, userID, productID int64) error
	RemoveWishlistItem(ctx context.Context, userID, productID int64) (bool, error)
	ListWishlist(ctx context.Context, userID int64) ([]domain.Product, error)

	// notifications
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error)

	// user ratings
	CreateUserRating(ctx context.Context, r domain.UserRating) (domain.UserRating, error)
	GetRatingSummary(ctx context.Context, rateeID int64) (domain.RatingSummary, error)

	// reports
	CreateReport(ctx context.Context, r domain.Report) (domain.Report, error)
	ListReports(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error)
	UpdateReportStatus(ctx context.Context, id int64, status domain.ReportStatus) (bool, error)

	// messages
	CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	ListConversation(ctx context.Context, userA, userB int64) ([]domain.Message, error)
}

// CheckoutTx is the row-locked view of a user's cart and the order tables
// inside one checkout transaction. Returning an error from the Checkout
// callback rolls every call back.
type CheckoutTx interface {
	// CreateOrder inserts the order header. A gateway order id already linked
	// to another order yields ErrDuplicate.
	CreateOrder(userID int64, orderDate time.Time, total float64, razorpayOrderID string) (int64, error)
	// LockCart loads the user's cart joined with current price and stock,
	// locking the cart and product rows until the transaction ends.
	LockCart(userID int64) ([]domain.CartLine, error)
	AddOrderItem(item domain.OrderItem) error
	// DecrementStock lowers stock by quantity only if enough remains,
	// returning ErrInsufficientStock otherwise.
	DecrementStock(productID int64, quantity int) error
	ClearCart(userID int64) error
}
