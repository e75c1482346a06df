// Package servicetest provides in-memory store implementations with the
// same semantics as the Postgres repositories, including version checks.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// DB is the shared state behind every store.
type DB struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	products      map[uuid.UUID]models.Product
	carts         map[uuid.UUID]models.Cart // keyed by user
	orders        map[uuid.UUID]models.Order
	conversations map[uuid.UUID]models.Conversation

	Users         *UserStore
	Products      *ProductStore
	Carts         *CartStore
	Orders        *OrderStore
	Conversations *ConversationStore

	// Failures queued per operation name, e.g. "orders.create".
	failures map[string][]error
}

func New() *DB {
	db := &DB{
		users:         map[uuid.UUID]models.User{},
		products:      map[uuid.UUID]models.Product{},
		carts:         map[uuid.UUID]models.Cart{},
		orders:        map[uuid.UUID]models.Order{},
		conversations: map[uuid.UUID]models.Conversation{},
		failures:      map[string][]error{},
	}
	db.Users = &UserStore{db: db}
	db.Products = &ProductStore{db: db}
	db.Carts = &CartStore{db: db}
	db.Orders = &OrderStore{db: db}
	db.Conversations = &ConversationStore{db: db}
	return db
}

// FailNext makes the next n calls of op return err.
func (db *DB) FailNext(op string, err error, n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := 0; i < n; i++ {
		db.failures[op] = append(db.failures[op], err)
	}
}

// failure must be called with mu held.
func (db *DB) failure(op string) error {
	queued := db.failures[op]
	if len(queued) == 0 {
		return nil
	}
	db.failures[op] = queued[1:]
	return queued[0]
}

// UserStore

type UserStore struct{ db *DB }

// live must be called with mu held. Retired accounts are invisible.
func (s *UserStore) live(id uuid.UUID) (models.User, bool) {
	u, ok := s.db.users[id]
	if !ok || u.DeletedAt != nil {
		return models.User{}, false
	}
	return u, true
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.live(id)
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *UserStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.User{}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if u, ok := s.live(id); ok && !seen[id] {
			seen[id] = true
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		if u.DeletedAt == nil {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *UserStore) Create(_ context.Context, user models.User) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == user.Username {
			return nil, apperr.ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, user.Email) {
			return nil, apperr.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.db.users[user.ID] = *copyUser(user)
	return copyUser(user), nil
}

func (s *UserStore) Update(_ context.Context, user models.User) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.live(user.ID)
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	for id, u := range s.db.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return nil, apperr.ErrEmailTaken
		}
	}
	current.Email = user.Email
	current.Name = user.Name
	current.Roles = append(models.Roles(nil), user.Roles...)
	current.IsActive = user.IsActive
	current.UpdatedAt = time.Now()
	s.db.users[user.ID] = current
	return copyUser(current), nil
}

func (s *UserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.live(id)
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.db.users[id] = u
	return nil
}

func (s *UserStore) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.live(id)
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.LastLogin = &at
	s.db.users[id] = u
	return nil
}

func (s *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.live(id)
	if !ok {
		return apperr.ErrUserNotFound
	}
	now := time.Now()
	u.Username = "deleted-" + strings.ReplaceAll(id.String(), "-", "")[:12]
	u.Email = id.String() + "@deleted.invalid"
	u.PasswordHash = ""
	u.Name = ""
	u.Roles = models.Roles{models.RoleUser}
	u.IsActive = false
	u.DeletedAt = &now
	u.UpdatedAt = now
	s.db.users[id] = u

	for pid, p := range s.db.products {
		if p.FarmerID == id && p.IsActive {
			p.IsActive = false
			p.UpdatedAt = now
			s.db.products[pid] = p
		}
	}
	return nil
}

func copyUser(u models.User) *models.User {
	u.Roles = append(models.Roles(nil), u.Roles...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return &u
}

// ProductStore

type ProductStore struct{ db *DB }

// withFarmer must be called with mu held.
func (s *ProductStore) withFarmer(p models.Product) models.Product {
	p.FarmerName = s.db.users[p.FarmerID].Username
	return p
}

func (s *ProductStore) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	p = s.withFarmer(p)
	return &p, nil
}

func (s *ProductStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := s.db.products[id]; ok {
			out = append(out, s.withFarmer(p))
		}
	}
	return out, nil
}

func (s *ProductStore) List(_ context.Context, q models.ProductQuery) ([]models.Product, int, error) {
	q = q.Normalize()
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	search := strings.ToLower(q.Search)
	matched := []models.Product{}
	for _, p := range s.db.products {
		if !p.IsActive {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, s.withFarmer(p))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Sort {
		case models.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case models.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case models.SortRating:
			if !a.Rating.Equal(b.Rating) {
				return a.Rating.GreaterThan(b.Rating)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *ProductStore) ListByFarmer(_ context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.db.products {
		if p.FarmerID == farmerID {
			out = append(out, s.withFarmer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ProductStore) Create(_ context.Context, product models.Product) (*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = product.CreatedAt
	s.db.products[product.ID] = product
	p := s.withFarmer(product)
	return &p, nil
}

func (s *ProductStore) Update(_ context.Context, product models.Product) (*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.products[product.ID]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	product.FarmerID = current.FarmerID
	product.CreatedAt = current.CreatedAt
	product.Rating = current.Rating
	product.UpdatedAt = time.Now()
	s.db.products[product.ID] = product
	p := s.withFarmer(product)
	return &p, nil
}

func (s *ProductStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok {
		return apperr.ErrProductNotFound
	}
	p.IsActive = active
	s.db.products[id] = p
	return nil
}

// CartStore

type CartStore struct{ db *DB }

func (s *CartStore) GetByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.carts[userID]
	if !ok {
		return nil, apperr.ErrCartNotFound
	}
	return copyCart(c), nil
}

func (s *CartStore) GetOrCreate(_ context.Context, userID uuid.UUID, now time.Time) (*models.Cart, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.carts[userID]
	if !ok {
		c = *models.NewCart(userID, now)
		c.Version = 1
		s.db.carts[userID] = c
	}
	return copyCart(c), nil
}

func (s *CartStore) Save(_ context.Context, cart *models.Cart) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("carts.save"); err != nil {
		return err
	}
	return s.saveLocked(cart)
}

// saveLocked must be called with mu held.
func (s *CartStore) saveLocked(cart *models.Cart) error {
	current, ok := s.db.carts[cart.UserID]
	if !ok || current.ID != cart.ID || current.Version != cart.Version {
		return apperr.ErrConcurrentUpdate
	}
	cart.Recalculate()
	cart.Version++
	s.db.carts[cart.UserID] = *copyCart(*cart)
	return nil
}

func copyCart(c models.Cart) *models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	for i := range c.Items {
		c.Items[i].Product = nil
	}
	return &c
}

// OrderStore

type OrderStore struct{ db *DB }

func (s *OrderStore) Create(_ context.Context, order *models.Order, cart *models.Cart) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("orders.create"); err != nil {
		return err
	}

	current, ok := s.db.carts[cart.UserID]
	if !ok || current.Version != cart.Version {
		return apperr.ErrConcurrentUpdate
	}

	stock := map[uuid.UUID]int{}
	for _, item := range order.Items {
		p, ok := s.db.products[item.ProductID]
		if !ok {
			return apperr.ErrInsufficientStock
		}
		if _, seen := stock[p.ID]; !seen {
			stock[p.ID] = p.Stock
		}
		if stock[p.ID] < item.Quantity {
			return apperr.ErrInsufficientStock
		}
		stock[p.ID] -= item.Quantity
	}

	for id, left := range stock {
		p := s.db.products[id]
		p.Stock = left
		s.db.products[id] = p
	}
	s.db.orders[order.ID] = *copyOrder(*order)
	cart.Version++
	s.db.carts[cart.UserID] = *copyCart(*cart)
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, apperr.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *OrderStore) ListByFarmer(_ context.Context, farmerID uuid.UUID) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.HasFarmer(farmerID) }), nil
}

func (s *OrderStore) list(keep func(models.Order) bool) []models.Order {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.db.orders {
		if keep(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *OrderStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus, restock bool, now time.Time) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok || o.Status != from {
		return nil, apperr.ErrConcurrentUpdate
	}
	o.Status = to
	o.UpdatedAt = now
	if restock {
		for _, item := range o.Items {
			if p, ok := s.db.products[item.ProductID]; ok {
				p.Stock += item.Quantity
				s.db.products[item.ProductID] = p
			}
		}
	}
	s.db.orders[id] = o
	return copyOrder(o), nil
}

func copyOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return &o
}

// ConversationStore

type ConversationStore struct{ db *DB }

func (s *ConversationStore) GetByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.conversations[id]
	if !ok {
		return nil, apperr.ErrConversationNotFound
	}
	return copyConversation(c), nil
}

func (s *ConversationStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range s.db.conversations {
		if c.HasParticipant(userID) {
			cc := copyConversation(c)
			cc.Messages = nil
			out = append(out, *cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *ConversationStore) FindPair(_ context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.conversations {
		if c.IsPair(a, b) {
			return copyConversation(c), nil
		}
	}
	return nil, apperr.ErrConversationNotFound
}

func (s *ConversationStore) Create(_ context.Context, conversation *models.Conversation) error {
	if err := conversation.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if key := conversation.PairKey(); key != "" {
		for _, c := range s.db.conversations {
			if c.PairKey() == key {
				return apperr.AlreadyExists("Conversation already exists")
			}
		}
	}
	conversation.Version = 1
	s.db.conversations[conversation.ID] = *copyConversation(*conversation)
	return nil
}

func (s *ConversationStore) Save(_ context.Context, conversation *models.Conversation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("conversations.save"); err != nil {
		return err
	}
	current, ok := s.db.conversations[conversation.ID]
	if !ok || current.Version != conversation.Version {
		return apperr.ErrConcurrentUpdate
	}
	conversation.Version++
	s.db.conversations[conversation.ID] = *copyConversation(*conversation)
	return nil
}

func copyConversation(c models.Conversation) *models.Conversation {
	c.Participants = append([]uuid.UUID{}, c.Participants...)
	msgs := make([]models.Message, len(c.Messages))
	for i, m := range c.Messages {
		read := make(models.ReadMap, len(m.ReadBy))
		for k, v := range m.ReadBy {
			read[k] = v
		}
		m.ReadBy = read
		msgs[i] = m
	}
	c.Messages = msgs
	unread := make(map[uuid.UUID]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		unread[k] = v
	}
	c.UnreadCounts = unread
	if c.LastMessage != nil {
		lm := *c.LastMessage
		c.LastMessage = &lm
	}
	return &c
}

// Seed helpers

// AddUser stores a user with the given roles and returns it.
func (db *DB) AddUser(username string, roles ...models.Role) models.User {
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	u := models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     strings.ToLower(username) + "@example.com",
		Name:      username,
		Roles:     roles,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
	return u
}

// AddProduct stores an active product owned by farmerID.
func (db *DB) AddProduct(farmerID uuid.UUID, name string, price string, stock int) models.Product {
	p := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Image:     "https://img.example.com/" + strings.ToLower(name) + ".jpg",
		Category:  "Vegetables",
		Stock:     stock,
		Unit:      models.UnitKg,
		Rating:    decimal.Zero,
		FarmerID:  farmerID,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[p.ID] = p
	return p
}

// Product returns the stored product without the farmer join.
func (db *DB) Product(id uuid.UUID) models.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id]
}

// Cart returns the stored cart of userID.
func (db *DB) Cart(userID uuid.UUID) (models.Cart, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.carts[userID]
	return *copyCart(c), ok
}

// OrderCount returns the number of stored orders.
func (db *DB) OrderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

// SetOrderStatus forces an order into status.
func (db *DB) SetOrderStatus(id uuid.UUID, status models.OrderStatus) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o := db.orders[id]
	o.Status = status
	db.orders[id] = o
}

// Stores exposes the in-memory stores as service dependencies.
func (db *DB) Stores() service.Stores {
	return service.Stores{
		Users:         db.Users,
		Products:      db.Products,
		Carts:         db.Carts,
		Orders:        db.Orders,
		Conversations: db.Conversations,
	}
}
