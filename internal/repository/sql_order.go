package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

const orderColumns = `id, user_id, total, status, created_at`

type SQLOrders struct {
	db *sqlx.DB
}

func NewSQLOrders(db *sqlx.DB) *SQLOrders {
	return &SQLOrders{db: db}
}

// CreateOrder inserts the order row and every item row in one transaction; any
// failing item leaves no trace of the order.
func (r *SQLOrders) CreateOrder(ctx context.Context, order *models.Order) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :user_id, :total, :status, :created_at)`, order)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
		_, err = tx.NamedExecContext(ctx, `INSERT INTO order_items
			(id, order_id, product_id, product_name, price, quantity, position)
			VALUES (:id, :order_id, :product_id, :product_name, :price, :quantity, :position)`, order.Items[i])
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", order.Items[i].ProductID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *SQLOrders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := requireAffected(res, "order", id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *SQLOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	orders := []models.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *SQLOrders) List(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id ASC`)
}

func (r *SQLOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
}

func (r *SQLOrders) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of every order with a single query.
func (r *SQLOrders) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query, args, err := sqlx.In(`SELECT id, order_id, product_id, product_name, price, quantity, position
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("build item lookup: %w", err)
	}

	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}
