package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace/pkg/domain"
)

// MemoryStore keeps marketplace state in-process. It is used by tests and
// behaves like GormStore: checkouts are serialized and roll back on error.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	seq           int64
	users         []domain.User
	products      []domain.Product
	cart          []memCartItem
	orders        []domain.Order
	orderItems    []domain.OrderItem
	reviews       []domain.Review
	wishlist      []memWishlistItem
	notifications []domain.Notification
	ratings       []domain.UserRating
	reports       []domain.Report
	messages      []domain.Message
}

type memCartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}

type memWishlistItem struct {
	ID        int64
	UserID    int64
	ProductID int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{}}
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

func (st *memState) clone() *memState {
	c := *st
	c.users = append([]domain.User(nil), st.users...)
	c.products = make([]domain.Product, len(st.products))
	for i, p := range st.products {
		c.products[i] = copyProduct(p)
	}
	c.cart = append([]memCartItem(nil), st.cart...)
	c.orders = append([]domain.Order(nil), st.orders...)
	c.orderItems = append([]domain.OrderItem(nil), st.orderItems...)
	c.reviews = append([]domain.Review(nil), st.reviews...)
	c.wishlist = append([]memWishlistItem(nil), st.wishlist...)
	c.notifications = append([]domain.Notification(nil), st.notifications...)
	c.ratings = append([]domain.UserRating(nil), st.ratings...)
	c.reports = append([]domain.Report(nil), st.reports...)
	c.messages = append([]domain.Message(nil), st.messages...)
	return &c
}

func copyProduct(p domain.Product) domain.Product {
	p.Images = append([]string{}, p.Images...)
	return p
}

func (st *memState) userIndex(id int64) int {
	for i, u := range st.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (st *memState) productIndex(id int64) int {
	for i, p := range st.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (st *memState) username(id int64) string {
	if i := st.userIndex(id); i >= 0 {
		return st.users[i].Username
	}
	return ""
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.users {
		if existing.Username == u.Username {
			return domain.User{}, ErrDuplicate
		}
	}
	if u.Role == "" {
		u.Role = firstAccountRole(int64(len(m.state.users)))
	}
	u.ID = m.state.nextID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.state.users = append(m.state.users, u)
	return u, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.state.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.state.userIndex(id); i >= 0 {
		return m.state.users[i], true, nil
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) ListUsers(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.User{}, m.state.users...), nil
}

func (m *MemoryStore) UpdateUserRole(_ context.Context, id int64, role domain.UserRole) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.state.userIndex(id)
	if i < 0 {
		return false, nil
	}
	m.state.users[i].Role = role
	return true, nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	i := st.userIndex(id)
	if i < 0 {
		return false, nil
	}
	st.users = append(st.users[:i], st.users[i+1:]...)
	st.cart = filter(st.cart, func(c memCartItem) bool { return c.UserID != id })
	st.wishlist = filter(st.wishlist, func(w memWishlistItem) bool { return w.UserID != id })
	st.notifications = filter(st.notifications, func(n domain.Notification) bool { return n.UserID != id })
	return true, nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (m *MemoryStore) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = copyProduct(p)
	p.ID = m.state.nextID()
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.state.products = append(m.state.products, p)
	return copyProduct(p), nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id int64) (domain.Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.state.productIndex(id); i >= 0 {
		return copyProduct(m.state.products[i]), true, nil
	}
	return domain.Product{}, false, nil
}

func (m *MemoryStore) ListProducts(_ context.Context, q ProductQuery) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.Product, 0, len(m.state.products))
	for _, p := range m.state.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, copyProduct(p))
	}
	less := productLess(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Desc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func productLess(sortBy ProductSort) func(a, b domain.Product) bool {
	switch sortBy {
	case SortByName:
		return func(a, b domain.Product) bool { return a.Name < b.Name }
	case SortByPrice:
		return func(a, b domain.Product) bool { return a.Price < b.Price }
	case SortByStock:
		return func(a, b domain.Product) bool { return a.Stock < b.Stock }
	case SortByCreatedAt:
		return func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return func(domain.Product, domain.Product) bool { return false }
	}
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p domain.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.state.productIndex(p.ID)
	if i < 0 {
		return false, nil
	}
	cur := &m.state.products[i]
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.Stock = p.Stock
	cur.Currency = p.Currency
	cur.Images = append([]string{}, p.Images...)
	return true, nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	i := st.productIndex(id)
	if i < 0 {
		return false, nil
	}
	st.products = append(st.products[:i], st.products[i+1:]...)
	st.cart = filter(st.cart, func(c memCartItem) bool { return c.ProductID != id })
	st.wishlist = filter(st.wishlist, func(w memWishlistItem) bool { return w.ProductID != id })
	return true, nil
}

func (m *MemoryStore) AppendProductImage(_ context.Context, id int64, imageURL string) (domain.Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.state.productIndex(id)
	if i < 0 {
		return domain.Product{}, false, nil
	}
	m.state.products[i].Images = append(m.state.products[i].Images, imageURL)
	return copyProduct(m.state.products[i]), true, nil
}

func (m *MemoryStore) AddCartItem(_ context.Context, userID, productID int64, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.state.cart {
		if c.UserID == userID && c.ProductID == productID {
			m.state.cart[i].Quantity += quantity
			return false, nil
		}
	}
	m.state.cart = append(m.state.cart, memCartItem{
		ID:        m.state.nextID(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return true, nil
}

func (st *memState) cartLines(userID int64) []domain.CartLine {
	out := []domain.CartLine{}
	for _, c := range st.cart {
		if c.UserID != userID {
			continue
		}
		i := st.productIndex(c.ProductID)
		if i < 0 {
			continue
		}
		p := st.products[i]
		out = append(out, domain.CartLine{
			ID:        c.ID,
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
			Name:      p.Name,
			Price:     p.Price,
			Currency:  p.Currency,
			Stock:     p.Stock,
		})
	}
	return out
}

func (m *MemoryStore) ListCart(_ context.Context, userID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.cartLines(userID), nil
}

func (m *MemoryStore) DeleteCartItem(_ context.Context, userID, itemID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.state.cart {
		if c.ID == itemID && c.UserID == userID {
			m.state.cart = append(m.state.cart[:i], m.state.cart[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Checkout runs fn against a private copy of the state while holding the
// store lock, and publishes the copy only when fn succeeds.
func (m *MemoryStore) Checkout(_ context.Context, fn func(CheckoutTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memCheckoutTx{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memCheckoutTx struct {
	st *memState
}

func (t *memCheckoutTx) CreateOrder(userID int64, orderDate time.Time, total float64, razorpayOrderID string) (int64, error) {
	if razorpayOrderID != "" {
		for _, existing := range t.st.orders {
			if existing.RazorpayOrderID == razorpayOrderID {
				return 0, ErrDuplicate
			}
		}
	}
	o := domain.Order{
		ID:              t.st.nextID(),
		UserID:          userID,
		OrderDate:       orderDate,
		TotalAmount:     total,
		RazorpayOrderID: razorpayOrderID,
	}
	t.st.orders = append(t.st.orders, o)
	return o.ID, nil
}

func (t *memCheckoutTx) LockCart(userID int64) ([]domain.CartLine, error) {
	lines := t.st.cartLines(userID)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (t *memCheckoutTx) AddOrderItem(item domain.OrderItem) error {
	item.ID = t.st.nextID()
	t.st.orderItems = append(t.st.orderItems, item)
	return nil
}

func (t *memCheckoutTx) DecrementStock(productID int64, quantity int) error {
	i := t.st.productIndex(productID)
	if i < 0 || t.st.products[i].Stock < quantity {
		return ErrInsufficientStock
	}
	t.st.products[i].Stock -= quantity
	return nil
}

func (t *memCheckoutTx) ClearCart(userID int64) error {
	t.st.cart = filter(t.st.cart, func(c memCartItem) bool { return c.UserID != userID })
	return nil
}

func (m *MemoryStore) ListOrdersByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for i := len(m.state.orders) - 1; i >= 0; i-- {
		o := m.state.orders[i]
		if o.UserID != userID {
			continue
		}
		o.Items = nil
		for _, it := range m.state.orderItems {
			if it.OrderID == o.ID {
				o.Items = append(o.Items, it)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MemoryStore) MarkOrderPaid(_ context.Context, razorpayOrderID, razorpayPaymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i, o := range m.state.orders {
		if o.RazorpayOrderID != "" && o.RazorpayOrderID == razorpayOrderID {
			m.state.orders[i].RazorpayPaymentID = razorpayPaymentID
			m.state.orders[i].PaymentVerified = true
			found = true
		}
	}
	return found, nil
}

func (m *MemoryStore) CreateReview(_ context.Context, r domain.Review) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.state.nextID()
	r.CreatedAt = time.Now().UTC()
	r.Username = ""
	m.state.reviews = append(m.state.reviews, r)
	return r, nil
}

func (m *MemoryStore) ListReviews(_ context.Context, productID int64) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Review{}
	for i := len(m.state.reviews) - 1; i >= 0; i-- {
		r := m.state.reviews[i]
		if r.ProductID == productID {
			r.Username = m.state.username(r.UserID)
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) AddWishlistItem(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.state.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			return ErrDuplicate
		}
	}
	m.state.wishlist = append(m.state.wishlist, memWishlistItem{ID: m.state.nextID(), UserID: userID, ProductID: productID})
	return nil
}

func (m *MemoryStore) RemoveWishlistItem(_ context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.state.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			m.state.wishlist = append(m.state.wishlist[:i], m.state.wishlist[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListWishlist(_ context.Context, userID int64) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, w := range m.state.wishlist {
		if w.UserID != userID {
			continue
		}
		if i := m.state.productIndex(w.ProductID); i >= 0 {
			out = append(out, copyProduct(m.state.products[i]))
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.state.nextID()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	m.state.notifications = append(m.state.notifications, n)
	return n, nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, userID int64) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Notification{}
	for i := len(m.state.notifications) - 1; i >= 0; i-- {
		if n := m.state.notifications[i]; n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, userID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.state.notifications {
		if n.ID == id && n.UserID == userID {
			m.state.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateUserRating(_ context.Context, r domain.UserRating) (domain.UserRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.ratings {
		if existing.RaterID == r.RaterID && existing.RateeID == r.RateeID {
			return domain.UserRating{}, ErrDuplicate
		}
	}
	r.ID = m.state.nextID()
	r.CreatedAt = time.Now().UTC()
	r.RaterUsername = ""
	m.state.ratings = append(m.state.ratings, r)
	return r, nil
}

func (m *MemoryStore) GetRatingSummary(_ context.Context, rateeID int64) (domain.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ratings []domain.UserRating
	for i := len(m.state.ratings) - 1; i >= 0; i-- {
		r := m.state.ratings[i]
		if r.RateeID == rateeID {
			r.RaterUsername = m.state.username(r.RaterID)
			ratings = append(ratings, r)
		}
	}
	return Summarize(ratings), nil
}

func (m *MemoryStore) CreateReport(_ context.Context, r domain.Report) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.state.nextID()
	r.Status = domain.ReportPending
	r.CreatedAt = time.Now().UTC()
	m.state.reports = append(m.state.reports, r)
	return r, nil
}

func (m *MemoryStore) ListReports(_ context.Context, status domain.ReportStatus) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Report{}
	for i := len(m.state.reports) - 1; i >= 0; i-- {
		r := m.state.reports[i]
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateReportStatus(_ context.Context, id int64, status domain.ReportStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.state.reports {
		if r.ID == id {
			m.state.reports[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.state.nextID()
	msg.CreatedAt = time.Now().UTC()
	m.state.messages = append(m.state.messages, msg)
	return msg, nil
}

func (m *MemoryStore) ListConversation(_ context.Context, userA, userB int64) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Message{}
	for _, msg := range m.state.messages {
		between := (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA)
		if !between {
			continue
		}
		msg.SenderUsername = m.state.username(msg.SenderID)
		msg.ReceiverUsername = m.state.username(msg.ReceiverID)
		if msg.ProductID != nil {
			if i := m.state.productIndex(*msg.ProductID); i >= 0 {
				msg.ProductName = m.state.products[i].Name
			}
		}
		out = append(out, msg)
	}
	return out, nil
}
