package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"marketplace/pkg/domain"
)

const (
	migrateLockID  int64 = 51820417
	registerLockID int64 = 51820418
)

// DefaultLockTimeout bounds row-lock waits inside a checkout.
const DefaultLockTimeout = 5 * time.Second

type GormStoreOption func(*GormStore)

// WithLockTimeout overrides DefaultLockTimeout. Zero disables the bound.
func WithLockTimeout(d time.Duration) GormStoreOption {
	return func(s *GormStore) {
		s.lockTimeout = d
	}
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&ProductModel{},
			&CartItemModel{},
			&OrderModel{},
			&OrderItemModel{},
			&ReviewModel{},
			&WishlistItemModel{},
			&NotificationModel{},
			&UserRatingModel{},
			&ReportModel{},
			&MessageModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	s := &GormStore{db: db, lockTimeout: DefaultLockTimeout}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	return s, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts a user. A taken username yields ErrDuplicate.
// An empty role is resolved under a transaction-scoped advisory lock:
// admin for the first account, user otherwise.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.Role == "" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", registerLockID).Error; err != nil {
				return fmt.Errorf("acquire register lock: %w", err)
			}
			var count int64
			if err := tx.Model(&UserModel{}).Count(&count).Error; err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			u.Role = firstAccountRole(count)
		}
		model = userToModel(u)
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", translate(err))
	}
	return userFromModel(model), nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	var m UserModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userFromModel(m), true, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id int64) (domain.User, bool, error) {
	var m UserModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userFromModel(m), true, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(models))
	for _, m := range models {
		out = append(out, userFromModel(m))
	}
	return out, nil
}

func (s *GormStore) UpdateUserRole(ctx context.Context, id int64, role domain.UserRole) (bool, error) {
	res := s.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteUser removes the user with their cart, wishlist and notifications.
func (s *GormStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []any{&CartItemModel{}, &WishlistItemModel{}, &NotificationModel{}} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&UserModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return found, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	model, err := productToModel(p)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return productFromModel(model), nil
}

func (s *GormStore) GetProduct(ctx context.Context, id int64) (domain.Product, bool, error) {
	var m ProductModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, err
	}
	return productFromModel(m), true, nil
}

func (s *GormStore) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	query := s.db.WithContext(ctx).Model(&ProductModel{})
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if col, ok := productSortColumn(q.SortBy); ok {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.Desc})
	}
	query = query.Order("id ASC")
	var models []ProductModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(models))
	for _, m := range models {
		out = append(out, productFromModel(m))
	}
	return out, nil
}

func productSortColumn(sort ProductSort) (string, bool) {
	switch sort {
	case SortByName, SortByPrice, SortByStock, SortByCreatedAt:
		return string(sort), true
	default:
		return "", false
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *GormStore) UpdateProduct(ctx context.Context, p domain.Product) (bool, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"currency":    p.Currency,
		"images":      images,
	})
	if res.Error != nil {
		return false, fmt.Errorf("update product: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteProduct removes the product and the cart and wishlist rows pointing at it.
func (s *GormStore) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range []any{&CartItemModel{}, &WishlistItemModel{}} {
			if err := tx.Where("product_id = ?", id).Delete(ref).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&ProductModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return found, nil
}

func (s *GormStore) AppendProductImage(ctx context.Context, id int64, imageURL string) (domain.Product, bool, error) {
	var out domain.Product
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m ProductModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		p := productFromModel(m)
		p.Images = append(p.Images, imageURL)
		images, err := marshalImages(p.Images)
		if err != nil {
			return err
		}
		if err := tx.Model(&ProductModel{}).Where("id = ?", id).Update("images", images).Error; err != nil {
			return err
		}
		out, found = p, true
		return nil
	})
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("append product image: %w", err)
	}
	return out, found, nil
}

// AddCartItem inserts a cart line or adds quantity to the existing one.
func (s *GormStore) AddCartItem(ctx context.Context, userID, productID int64, quantity int) (bool, error) {
	var row struct {
		Inserted bool
	}
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING (xmax = 0) AS inserted`, userID, productID, quantity).Scan(&row).Error
	if err != nil {
		return false, fmt.Errorf("add cart item: %w", err)
	}
	return row.Inserted, nil
}

type cartLineRow struct {
	ID        int64
	ProductID int64
	Quantity  int
	Name      string
	Price     float64
	Currency  string
	Stock     int
}

func (r cartLineRow) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:        r.ID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Name:      r.Name,
		Price:     r.Price,
		Currency:  r.Currency,
		Stock:     r.Stock,
	}
}

func cartQuery(db *gorm.DB, userID int64) *gorm.DB {
	return db.Table("cart_items AS ci").
		Select("ci.id, ci.product_id, ci.quantity, p.name, p.price, p.currency, p.stock").
		Joins("JOIN products AS p ON p.id = ci.product_id").
		Where("ci.user_id = ?", userID)
}

func (s *GormStore) ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	var rows []cartLineRow
	if err := cartQuery(s.db.WithContext(ctx), userID).Order("ci.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CartLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GormStore) DeleteCartItem(ctx context.Context, userID, itemID int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&CartItemModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Checkout runs fn in one transaction with a bounded lock wait.
func (s *GormStore) Checkout(ctx context.Context, fn func(CheckoutTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ms := s.lockTimeout.Milliseconds(); ms > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)).Error; err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		return fn(&gormCheckoutTx{tx: tx})
	})
}

type gormCheckoutTx struct {
	tx *gorm.DB
}

func (t *gormCheckoutTx) CreateOrder(userID int64, orderDate time.Time, total float64, razorpayOrderID string) (int64, error) {
	m := OrderModel{UserID: userID, OrderDate: orderDate, TotalAmount: total}
	if razorpayOrderID != "" {
		m.RazorpayOrderID = &razorpayOrderID
	}
	if err := t.tx.Create(&m).Error; err != nil {
		return 0, fmt.Errorf("create order: %w", translate(err))
	}
	return m.ID, nil
}

func (t *gormCheckoutTx) LockCart(userID int64) ([]domain.CartLine, error) {
	var rows []cartLineRow
	// Ordered by product so concurrent checkouts take row locks in the same order.
	err := cartQuery(t.tx, userID).
		Order("ci.product_id ASC").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	out := make([]domain.CartLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *gormCheckoutTx) AddOrderItem(item domain.OrderItem) error {
	m := OrderItemModel{OrderID: item.OrderID, ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	if err := t.tx.Create(&m).Error; err != nil {
		return fmt.Errorf("create order item: %w", err)
	}
	return nil
}

func (t *gormCheckoutTx) DecrementStock(productID int64, quantity int) error {
	res := t.tx.Exec("UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?", quantity, productID, quantity)
	if res.Error != nil {
		return fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (t *gormCheckoutTx) ClearCart(userID int64) error {
	if err := t.tx.Where("user_id = ?", userID).Delete(&CartItemModel{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *GormStore) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	db := s.db.WithContext(ctx)
	var orders []OrderModel
	if err := db.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	var items []OrderItemModel
	if err := db.Where("order_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], orderItemFromModel(it))
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		order := orderFromModel(o)
		order.Items = byOrder[o.ID]
		out = append(out, order)
	}
	return out, nil
}

func (s *GormStore) MarkOrderPaid(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&OrderModel{}).
		Where("razorpay_order_id = ?", razorpayOrderID).
		Updates(map[string]any{"razorpay_payment_id": razorpayPaymentID, "payment_verified": true})
	if res.Error != nil {
		return false, fmt.Errorf("mark order paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	m := ReviewModel{ProductID: r.ProductID, UserID: r.UserID, Rating: r.Rating, Comment: r.Comment}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	r.ID, r.CreatedAt = m.ID, m.CreatedAt
	return r, nil
}

func (s *GormStore) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	var rows []struct {
		ReviewModel
		Username *string
	}
	err := s.db.WithContext(ctx).Table("reviews AS r").
		Select("r.*, u.username").
		Joins("LEFT JOIN users AS u ON u.id = r.user_id").
		Where("r.product_id = ?", productID).
		Order("r.created_at DESC, r.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Review{
			ID:        r.ID,
			ProductID: r.ProductID,
			UserID:    r.UserID,
			Username:  deref(r.Username),
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) AddWishlistItem(ctx context.Context, userID, productID int64) error {
	m := WishlistItemModel{UserID: userID, ProductID: productID}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("add wishlist item: %w", translate(err))
	}
	return nil
}

func (s *GormStore) RemoveWishlistItem(ctx context.Context, userID, productID int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&WishlistItemModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListWishlist(ctx context.Context, userID int64) ([]domain.Product, error) {
	var models []ProductModel
	err := s.db.WithContext(ctx).Model(&ProductModel{}).
		Joins("JOIN wishlist_items AS w ON w.product_id = products.id").
		Where("w.user_id = ?", userID).
		Order("w.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(models))
	for _, m := range models {
		out = append(out, productFromModel(m))
	}
	return out, nil
}

func (s *GormStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	m := NotificationModel{UserID: n.UserID, Message: n.Message, Type: n.Type}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return notificationFromModel(m), nil
}

func (s *GormStore) ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var models []NotificationModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		out = append(out, notificationFromModel(m))
	}
	return out, nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&NotificationModel{}).Where("id = ? AND user_id = ?", id, userID).Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateUserRating inserts a rating. A second rating for the same pair yields ErrDuplicate.
func (s *GormStore) CreateUserRating(ctx context.Context, r domain.UserRating) (domain.UserRating, error) {
	m := UserRatingModel{RaterID: r.RaterID, RateeID: r.RateeID, Rating: r.Rating, Comment: r.Comment}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.UserRating{}, fmt.Errorf("create user rating: %w", translate(err))
	}
	r.ID, r.CreatedAt = m.ID, m.CreatedAt
	return r, nil
}

func (s *GormStore) GetRatingSummary(ctx context.Context, rateeID int64) (domain.RatingSummary, error) {
	var rows []struct {
		UserRatingModel
		RaterUsername *string
	}
	err := s.db.WithContext(ctx).Table("user_ratings AS ur").
		Select("ur.*, u.username AS rater_username").
		Joins("LEFT JOIN users AS u ON u.id = ur.rater_id").
		Where("ur.ratee_id = ?", rateeID).
		Order("ur.created_at DESC, ur.id DESC").
		Scan(&rows).Error
	if err != nil {
		return domain.RatingSummary{}, err
	}
	ratings := make([]domain.UserRating, 0, len(rows))
	for _, r := range rows {
		ratings = append(ratings, domain.UserRating{
			ID:            r.ID,
			RaterID:       r.RaterID,
			RaterUsername: deref(r.RaterUsername),
			RateeID:       r.RateeID,
			Rating:        r.Rating,
			Comment:       r.Comment,
			CreatedAt:     r.CreatedAt,
		})
	}
	return Summarize(ratings), nil
}

// Summarize averages ratings; the average is nil when there are none.
func Summarize(ratings []domain.UserRating) domain.RatingSummary {
	summary := domain.RatingSummary{Reviews: ratings}
	if len(ratings) == 0 {
		summary.Reviews = []domain.UserRating{}
		return summary
	}
	total := 0
	for _, r := range ratings {
		total += r.Rating
	}
	avg := float64(total) / float64(len(ratings))
	summary.AverageRating = &avg
	return summary
}

func (s *GormStore) CreateReport(ctx context.Context, r domain.Report) (domain.Report, error) {
	m := ReportModel{
		ReporterID:        r.ReporterID,
		ReportedUserID:    r.ReportedUserID,
		ReportedProductID: r.ReportedProductID,
		Reason:            r.Reason,
		Status:            string(domain.ReportPending),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Report{}, fmt.Errorf("create report: %w", err)
	}
	return reportFromModel(m), nil
}

func (s *GormStore) ListReports(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error) {
	query := s.db.WithContext(ctx).Model(&ReportModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var models []ReportModel
	if err := query.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Report, 0, len(models))
	for _, m := range models {
		out = append(out, reportFromModel(m))
	}
	return out, nil
}

func (s *GormStore) UpdateReportStatus(ctx context.Context, id int64, status domain.ReportStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&ReportModel{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	m := MessageModel{SenderID: msg.SenderID, ReceiverID: msg.ReceiverID, ProductID: msg.ProductID, Body: msg.Body}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	msg.ID, msg.CreatedAt = m.ID, m.CreatedAt
	return msg, nil
}

// ListConversation returns messages exchanged between two users, oldest first.
func (s *GormStore) ListConversation(ctx context.Context, userA, userB int64) ([]domain.Message, error) {
	var rows []struct {
		ID               int64
		SenderID         int64
		ReceiverID       int64
		ProductID        *int64
		Body             string
		CreatedAt        time.Time
		SenderUsername   *string
		ReceiverUsername *string
		ProductName      *string
	}
	err := s.db.WithContext(ctx).Table("messages AS m").
		Select(`m.id, m.sender_id, m.receiver_id, m.product_id, m.message AS body, m.created_at,
			su.username AS sender_username, ru.username AS receiver_username, p.name AS product_name`).
		Joins("LEFT JOIN users AS su ON su.id = m.sender_id").
		Joins("LEFT JOIN users AS ru ON ru.id = m.receiver_id").
		Joins("LEFT JOIN products AS p ON p.id = m.product_id").
		Where("(m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)", userA, userB, userB, userA).
		Order("m.created_at ASC, m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Message{
			ID:               r.ID,
			SenderID:         r.SenderID,
			SenderUsername:   deref(r.SenderUsername),
			ReceiverID:       r.ReceiverID,
			ReceiverUsername: deref(r.ReceiverUsername),
			ProductID:        r.ProductID,
			ProductName:      deref(r.ProductName),
			Body:             r.Body,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func userToModel(u domain.User) UserModel {
	role := string(u.Role)
	if role == "" {
		role = string(domain.RoleUser)
	}
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         role,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
	}
}

func marshalImages(images []string) (datatypes.JSON, error) {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	return datatypes.JSON(data), nil
}

func productToModel(p domain.Product) (ProductModel, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return ProductModel{}, err
	}
	currency := p.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Currency:    currency,
		Images:      images,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt,
	}, nil
}

func productFromModel(m ProductModel) domain.Product {
	images := []string{}
	if len(m.Images) > 0 {
		_ = json.Unmarshal(m.Images, &images)
	}
	return domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Currency:    m.Currency,
		Images:      images,
		SellerID:    m.SellerID,
		CreatedAt:   m.CreatedAt,
	}
}

func orderFromModel(m OrderModel) domain.Order {
	return domain.Order{
		ID:                m.ID,
		UserID:            m.UserID,
		OrderDate:         m.OrderDate,
		TotalAmount:       m.TotalAmount,
		RazorpayOrderID:   deref(m.RazorpayOrderID),
		RazorpayPaymentID: deref(m.RazorpayPaymentID),
		PaymentVerified:   m.PaymentVerified,
	}
}

func orderItemFromModel(m OrderItemModel) domain.OrderItem {
	return domain.OrderItem{ID: m.ID, OrderID: m.OrderID, ProductID: m.ProductID, Quantity: m.Quantity, Price: m.Price}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      m.Type,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func reportFromModel(m ReportModel) domain.Report {
	return domain.Report{
		ID:                m.ID,
		ReporterID:        m.ReporterID,
		ReportedUserID:    m.ReportedUserID,
		ReportedProductID: m.ReportedProductID,
		Reason:            m.Reason,
		Status:            domain.ReportStatus(m.Status),
		CreatedAt:         m.CreatedAt,
	}
}
