package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus is case-insensitive and ignores surrounding whitespace.
func ParseOrderStatus(value string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(value))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusCompleted:
		return OrderStatusCompleted, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	}
	return "", false
}

// OrderItem is a line of a committed order. ProductName and Price are snapshots taken
// when the order was created; they stay readable after the product is deleted.
type OrderItem struct {
	ID          string          `bson:"id" db:"id" json:"id"`
	OrderID     string          `bson:"-" db:"order_id" json:"orderId"`
	ProductID   string          `bson:"productId" db:"product_id" json:"productId"`
	ProductName string          `bson:"productName" db:"product_name" json:"productName"`
	Price       decimal.Decimal `bson:"price" db:"price" json:"price"`
	Quantity    int             `bson:"quantity" db:"quantity" json:"quantity"`
	// Position is the line's index within its order. Embedded documents keep their
	// order on their own, so it is only stored by the SQL backend.
	Position    int             `bson:"-" db:"position" json:"-"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order defines the persisted order.
type Order struct {
	ID        string          `bson:"_id" db:"id" json:"id"`
	UserID    string          `bson:"userId" db:"user_id" json:"userId"`
	Total     decimal.Decimal `bson:"total" db:"total" json:"total"`
	Status    OrderStatus     `bson:"status" db:"status" json:"status"`
	CreatedAt time.Time       `bson:"createdAt" db:"created_at" json:"createdAt"`
	Items     []OrderItem     `bson:"items" db:"-" json:"items"`
}

// ItemsTotal sums price × quantity over the order's items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}
