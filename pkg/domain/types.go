package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

// DefaultCurrency is applied to products created without one.
const DefaultCurrency = "INR"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Currency    string    `json:"currency"`
	Images      []string  `json:"images"`
	SellerID    *int64    `json:"sellerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CartLine is a cart row joined with the product it references.
type CartLine struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Stock     int     `json:"-"`
}

type Order struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"userId"`
	OrderDate         time.Time   `json:"orderDate"`
	TotalAmount       float64     `json:"totalAmount"`
	RazorpayOrderID   string      `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string      `json:"razorpayPaymentId,omitempty"`
	PaymentVerified   bool        `json:"paymentVerified"`
	Items             []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"orderId"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRating struct {
	ID            int64     `json:"id"`
	RaterID       int64     `json:"raterId"`
	RaterUsername string    `json:"raterUsername,omitempty"`
	RateeID       int64     `json:"rateeId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RatingSummary aggregates the ratings a user has received.
// AverageRating is nil when no ratings exist.
type RatingSummary struct {
	AverageRating *float64     `json:"averageRating"`
	Reviews       []UserRating `json:"reviews"`
}

type Report struct {
	ID                int64        `json:"id"`
	ReporterID        int64        `json:"reporterId"`
	ReportedUserID    *int64       `json:"reportedUserId,omitempty"`
	ReportedProductID *int64       `json:"reportedProductId,omitempty"`
	Reason            string       `json:"reason"`
	Status            ReportStatus `json:"status"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type Message struct {
	ID               int64     `json:"id"`
	SenderID         int64     `json:"senderId"`
	SenderUsername   string    `json:"senderUsername,omitempty"`
	ReceiverID       int64     `json:"receiverId"`
	ReceiverUsername string    `json:"receiverUsername,omitempty"`
	ProductID        *int64    `json:"productId,omitempty"`
	ProductName      string    `json:"productName,omitempty"`
	Body             string    `json:"message"`
	CreatedAt        time.Time `json:"createdAt"`
}
