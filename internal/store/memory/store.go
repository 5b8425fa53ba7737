// Package memory is an in-process entity store implementing every repository
// interface. Ids are assigned per entity type starting at 1.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/cart"
	"github.com/greengrocer/storefront/internal/catalog"
	"github.com/greengrocer/storefront/internal/dashboard"
	"github.com/greengrocer/storefront/internal/orders"
)

type tables struct {
	users      map[int64]auth.User
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product
	cartItems  map[int64]cart.Item
	orders     map[int64]orders.Order
	orderItems map[int64]orders.Item
	seq        map[string]int64
}

func newTables() tables {
	return tables{
		users:      make(map[int64]auth.User),
		categories: make(map[int64]catalog.Category),
		products:   make(map[int64]catalog.Product),
		cartItems:  make(map[int64]cart.Item),
		orders:     make(map[int64]orders.Order),
		orderItems: make(map[int64]orders.Item),
		seq:        make(map[string]int64),
	}
}

func (t tables) clone() tables {
	return tables{
		users:      maps.Clone(t.users),
		categories: maps.Clone(t.categories),
		products:   maps.Clone(t.products),
		cartItems:  maps.Clone(t.cartItems),
		orders:     maps.Clone(t.orders),
		orderItems: maps.Clone(t.orderItems),
		seq:        maps.Clone(t.seq),
	}
}

func (t tables) next(entity string) int64 {
	t.seq[entity]++
	return t.seq[entity]
}

// Store holds every entity behind one RWMutex.
type Store struct {
	mu  sync.RWMutex
	t   tables
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{t: newTables(), now: time.Now}
}

var (
	_ auth.Repository      = (*Store)(nil)
	_ catalog.Repository   = (*Store)(nil)
	_ cart.Repository      = (*Store)(nil)
	_ orders.Repository    = (*Store)(nil)
	_ dashboard.Repository = (*Store)(nil)
)

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v := m[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Users

func (s *Store) GetUser(_ context.Context, id int64) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.t.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.t.users {
		if u.Username == username {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, u auth.User) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.t.users {
		if existing.Username == u.Username {
			return auth.User{}, auth.ErrUsernameTaken
		}
	}
	u.ID = s.t.next("users")
	u.CreatedAt = s.now().UTC()
	s.t.users[u.ID] = u
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.t.users, nil), nil
}

// Categories

func (s *Store) ListCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.t.categories, nil), nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.t.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.t.next("categories")
	s.t.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.categories[c.ID]; !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	s.t.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.categories[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	delete(s.t.categories, id)
	for pid, p := range s.t.products {
		if p.CategoryID == id {
			p.CategoryID = 0
			s.t.products[pid] = p
		}
	}
	return nil
}

// Products

func (s *Store) ListProducts(_ context.Context, filters catalog.ListFilters) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.FilterProducts(sortedValues(s.t.products, nil), filters), nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.getProduct(id)
}

func (t tables) getProduct(id int64) (catalog.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	p.UnitOptions = slices.Clone(p.UnitOptions)
	return p, nil
}

func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.t.next("products")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.UnitOptions = slices.Clone(p.UnitOptions)
	s.t.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.products[p.ID]; !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	p.UnitOptions = slices.Clone(p.UnitOptions)
	s.t.products[p.ID] = p
	return p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.t.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(s.t.products, id)
	maps.DeleteFunc(s.t.cartItems, func(_ int64, it cart.Item) bool { return it.ProductID == id })
	return nil
}

// Cart

func (s *Store) ListCartItems(_ context.Context, userID int64) ([]cart.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.listCartItems(userID), nil
}

func (t tables) listCartItems(userID int64) []cart.Item {
	return sortedValues(t.cartItems, func(it cart.Item) bool { return it.UserID == userID })
}

func (s *Store) GetCartItem(_ context.Context, id int64) (cart.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.t.cartItems[id]
	if !ok {
		return cart.Item{}, cart.ErrItemNotFound
	}
	return it, nil
}

func (s *Store) UpsertCartItem(_ context.Context, item cart.Item) (cart.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.t.cartItems {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID && existing.UnitType == item.UnitType {
			if item.Quantity > cart.MaxQuantity-existing.Quantity {
				return cart.Item{}, false, cart.ErrQuantityLimit
			}
			existing.Quantity += item.Quantity
			s.t.cartItems[id] = existing
			return existing, true, nil
		}
	}
	item.ID = s.t.next("cartItems")
	s.t.cartItems[item.ID] = item
	return item, false, nil
}

func (s *Store) UpdateCartItemQuantity(_ context.Context, id int64, quantity int) (cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.t.cartItems[id]
	if !ok {
		return cart.Item{}, cart.ErrItemNotFound
	}
	it.Quantity = quantity
	s.t.cartItems[id] = it
	return it, nil
}

func (s *Store) DeleteCartItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.t.cartItems, id)
	return nil
}

func (s *Store) ClearCart(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.clearCart(userID)
	return nil
}

func (t tables) clearCart(userID int64) {
	for id, it := range t.cartItems {
		if it.UserID == userID {
			delete(t.cartItems, id)
		}
	}
}

// Orders

// WithTx holds the write lock for the duration of fn and restores the
// pre-call state when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.t.clone()
	if err := fn(ctx, txView{t: s.t, now: s.now}); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.t.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *Store) ListOrders(_ context.Context) ([]orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.t.orders, nil), nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.t.orders, func(o orders.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) ListOrderItems(_ context.Context, orderID int64) ([]orders.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.t.orderItems, func(it orders.Item) bool { return it.OrderID == orderID }), nil
}

func (s *Store) UpdateOrder(_ context.Context, o orders.Order) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.t.orders[o.ID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	// Ownership, total and date are fixed at placement.
	o.UserID = existing.UserID
	o.TotalAmount = existing.TotalAmount
	o.OrderDate = existing.OrderDate
	s.t.orders[o.ID] = o
	return o, nil
}

// txView operates on tables while the store's write lock is held.
type txView struct {
	t   tables
	now func() time.Time
}

func (v txView) ListCartItems(_ context.Context, userID int64) ([]cart.Item, error) {
	return v.t.listCartItems(userID), nil
}

func (v txView) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	return v.t.getProduct(id)
}

func (v txView) CreateOrder(_ context.Context, o orders.Order) (orders.Order, error) {
	o.ID = v.t.next("orders")
	if o.OrderDate.IsZero() {
		o.OrderDate = v.now().UTC()
	}
	v.t.orders[o.ID] = o
	return o, nil
}

func (v txView) CreateOrderItem(_ context.Context, it orders.Item) (orders.Item, error) {
	if _, ok := v.t.orders[it.OrderID]; !ok {
		return orders.Item{}, orders.ErrOrderNotFound
	}
	it.ID = v.t.next("orderItems")
	v.t.orderItems[it.ID] = it
	return it, nil
}

func (v txView) ClearCart(_ context.Context, userID int64) error {
	v.t.clearCart(userID)
	return nil
}

// Aggregates

func (s *Store) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.t.products), nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.t.users), nil
}

func (s *Store) OrderStats(_ context.Context) (dashboard.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := dashboard.OrderStats{ByStatus: make(map[orders.Status]int)}
	revenue := decimal.Zero
	for _, o := range s.t.orders {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status != orders.StatusCancelled {
			revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
		}
	}
	stats.Revenue, _ = revenue.Round(2).Float64()
	return stats, nil
}
