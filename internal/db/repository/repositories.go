package repository

import (
	"github.com/utsav306/farmconnect-sub000/internal/db"
)

// Repositories provides access to all repository instances
type Repositories struct {
	User         *UserRepository
	Product      *ProductRepository
	Cart         *CartRepository
	Order        *OrderRepository
	Conversation *ConversationRepository
}

// NewRepositories creates a new repositories container
func NewRepositories(database *db.Postgres) *Repositories {
	return &Repositories{
		User:         NewUserRepository(database.DB),
		Product:      NewProductRepository(database.DB),
		Cart:         NewCartRepository(database.DB),
		Order:        NewOrderRepository(database.DB),
		Conversation: NewConversationRepository(database.DB),
	}
}
