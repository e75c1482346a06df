package servicetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/events"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// Notification is one recorded real-time push.
type Notification struct {
	UserIDs []uuid.UUID
	Event   string
	Data    any
}

// Notifier records every Notify call.
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *Notifier) Notify(userIDs []uuid.UUID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{UserIDs: append([]uuid.UUID(nil), userIDs...), Event: event, Data: data})
}

// Sent returns a copy of the recorded notifications.
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

// Publisher records order events. Err, when set, is returned from Publish
// after the event is recorded.
type Publisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

func (p *Publisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (p *Publisher) Events() []events.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderEvent(nil), p.events...)
}

// Model answers every call with Text or Err and records the prompts.
type Model struct {
	mu      sync.Mutex
	Text    string
	Err     error
	Prompts []string
	Images  int
}

// Respond sets the next answers under the lock, for tests that call the
// model from server goroutines.
func (m *Model) Respond(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Text, m.Err = text, err
}

// ImageCount is the number of Analyze calls that carried an image.
func (m *Model) ImageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Images
}

func (m *Model) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Text, m.Err
}

func (m *Model) Analyze(_ context.Context, image []byte, _ string, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(image) > 0 {
		m.Images++
	}
	return m.Text, m.Err
}

// Cache is an in-memory ProductCache keyed by the normalized query.
type Cache struct {
	mu          sync.Mutex
	pages       map[models.ProductQuery]models.ProductPage
	Hits        int
	Invalidated int
}

func NewCache() *Cache {
	return &Cache{pages: map[models.ProductQuery]models.ProductPage{}}
}

func (c *Cache) GetPage(_ context.Context, q models.ProductQuery) (*models.ProductPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[q]
	if !ok {
		return nil, false
	}
	c.Hits++
	return &page, true
}

func (c *Cache) SetPage(_ context.Context, q models.ProductQuery, page models.ProductPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[q] = page
}

func (c *Cache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = map[models.ProductQuery]models.ProductPage{}
	c.Invalidated++
}
