package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	Role         string    `gorm:"not null;default:user;check:role IN ('user','admin')"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type ProductModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"not null"`
	Description string
	Price       float64        `gorm:"not null;check:price >= 0"`
	Stock       int            `gorm:"not null;check:stock >= 0"`
	Currency    string         `gorm:"not null;default:INR"`
	Images      datatypes.JSON `gorm:"type:jsonb"`
	SellerID    *int64         `gorm:"index"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}

func (ProductModel) TableName() string { return "products" }

type CartItemModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int   `gorm:"not null;check:quantity > 0"`
}

func (CartItemModel) TableName() string { return "cart_items" }

type OrderModel struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	UserID            int64     `gorm:"not null;index"`
	OrderDate         time.Time `gorm:"not null"`
	TotalAmount       float64   `gorm:"not null"`
	RazorpayOrderID   *string   `gorm:"uniqueIndex"`
	RazorpayPaymentID *string
	PaymentVerified   bool `gorm:"not null;default:false"`
}

func (OrderModel) TableName() string { return "orders" }

type OrderItemModel struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	OrderID   int64   `gorm:"not null;index"`
	ProductID int64   `gorm:"not null;index"`
	Quantity  int     `gorm:"not null"`
	Price     float64 `gorm:"not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

type ReviewModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"not null;index"`
	UserID    int64 `gorm:"not null;index"`
	Rating    int   `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment   string
	CreatedAt time.Time `gorm:"not null"`
}

func (ReviewModel) TableName() string { return "reviews" }

type WishlistItemModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
}

func (WishlistItemModel) TableName() string { return "wishlist_items" }

type NotificationModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Message   string    `gorm:"not null"`
	Type      string    `gorm:"not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func (NotificationModel) TableName() string { return "notifications" }

type UserRatingModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	RaterID   int64 `gorm:"not null;uniqueIndex:idx_rating_pair"`
	RateeID   int64 `gorm:"not null;uniqueIndex:idx_rating_pair;index"`
	Rating    int   `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment   string
	CreatedAt time.Time `gorm:"not null"`
}

func (UserRatingModel) TableName() string { return "user_ratings" }

type ReportModel struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	ReporterID        int64     `gorm:"not null;index"`
	ReportedUserID    *int64    `gorm:"index"`
	ReportedProductID *int64    `gorm:"index"`
	Reason            string    `gorm:"not null"`
	Status            string    `gorm:"not null;default:pending;index"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (ReportModel) TableName() string { return "reports" }

type MessageModel struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	SenderID   int64 `gorm:"not null;index:idx_message_pair"`
	ReceiverID int64 `gorm:"not null;index:idx_message_pair"`
	ProductID  *int64
	Body       string    `gorm:"column:message;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (MessageModel) TableName() string { return "messages" }
