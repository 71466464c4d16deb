package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type SortKey string

const (
	SortNewest    SortKey = "default"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// ProductQuery is an already-normalised catalog query. An empty Category matches
// every category; an empty Text matches every product.
type ProductQuery struct {
	Text     string
	Category string
	Sort     SortKey
}

// ProductRepository stores catalog products. Missing ids yield apperr.NotFound and a
// duplicate product code yields a validation error.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// FindByIDs reads every requested product in one round trip. Unknown ids are
	// simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	Find(ctx context.Context, query ProductQuery) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	SetInStock(ctx context.Context, id string, inStock bool) error
}

// OrderRepository stores orders together with their items.
type OrderRepository interface {
	// CreateOrder writes the order and all of its items atomically.
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Products ProductRepository
	Orders   OrderRepository
	Users    UserRepository
	Close    func(ctx context.Context) error
}

func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Products: NewMongoProducts(db),
		Orders:   NewMongoOrders(db),
		Users:    NewMongoUsers(db),
		Close:    db.Client().Disconnect,
	}
}

func NewSQLStore(db *sqlx.DB) *Store {
	return &Store{
		Products: NewSQLProducts(db),
		Orders:   NewSQLOrders(db),
		Users:    NewSQLUsers(db),
		Close:    func(context.Context) error { return db.Close() },
	}
}
