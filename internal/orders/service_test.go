package orders

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/database/dbtest"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repository"
)

var (
	admin    = &auth.Identity{UserID: "admin-1", Role: models.RoleAdmin}
	customer = &auth.Identity{UserID: "user-1", Role: models.RoleUser}
	other    = &auth.Identity{UserID: "user-2", Role: models.RoleUser}
)

type fixture struct {
	svc      *Service
	db       *sqlx.DB
	products *repository.SQLProducts
	orders   *repository.SQLOrders
	events   *events.Recorder
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewSQLite(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		db:       db,
		products: repository.NewSQLProducts(db),
		orders:   repository.NewSQLOrders(db),
		events:   &events.Recorder{},
		redis:    mr,
	}
	f.svc = NewService(f.orders, f.products, cache.NewRedis(client, "", time.Minute), f.events, zap.NewNop())
	return f
}

func (f *fixture) seed(t *testing.T, id, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		ID:        id,
		Name:      name,
		Category:  "General",
		Price:     decimal.RequireFromString(price),
		InStock:   true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) countRows(t *testing.T) (orders, items int) {
	t.Helper()
	require.NoError(t, f.db.Get(&orders, `SELECT COUNT(*) FROM orders`))
	require.NoError(t, f.db.Get(&items, `SELECT COUNT(*) FROM order_items`))
	return orders, items
}

func TestCreateOrderIgnoresDeclaredTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	order, err := f.svc.CreateOrder(ctx, customer, []LineRequest{{ProductID: "p1", Quantity: 2}}, decimal.NewFromInt(999))
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(200)))

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, customer.UserID, stored.UserID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Laptop", stored.Items[0].ProductName)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []string{events.OrderCreated}, f.events.Types())
}

func TestCreateOrderUsesStorePriceAndMergesLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100.10")
	f.seed(t, "p2", "Mouse", "19.95")

	order, err := f.svc.CreateOrder(ctx, customer, []LineRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 2},
		{ProductID: "p1", Quantity: 2},
	}, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "p1", order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("340.20")))
	assert.True(t, order.Total.Equal(order.ItemsTotal()))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), customer, nil, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	orders, items := f.countRows(t)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrderRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	_, err := f.svc.CreateOrder(context.Background(), nil, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.True(t, apperr.IsAuth(err))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	for _, lines := range [][]LineRequest{
		{{ProductID: "p1", Quantity: 0}},
		{{ProductID: "p1", Quantity: -1}},
		{{ProductID: " ", Quantity: 1}},
	} {
		_, err := f.svc.CreateOrder(context.Background(), customer, lines, decimal.Zero)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	orders, _ := f.countRows(t)
	assert.Zero(t, orders)
}

func TestCreateOrderRejectsOversizedQuantity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	for _, lines := range [][]LineRequest{
		{{ProductID: "p1", Quantity: math.MaxInt}, {ProductID: "p1", Quantity: math.MaxInt}},
		{{ProductID: "p1", Quantity: MaxLineQuantity + 1}},
		{{ProductID: "p1", Quantity: MaxLineQuantity}, {ProductID: "p1", Quantity: 1}},
	} {
		_, err := f.svc.CreateOrder(context.Background(), customer, lines, decimal.Zero)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	orders, items := f.countRows(t)
	assert.Zero(t, orders)
	assert.Zero(t, items)

	order, err := f.svc.CreateOrder(context.Background(), customer, []LineRequest{
		{ProductID: "p1", Quantity: MaxLineQuantity - 1},
		{ProductID: "p1", Quantity: 1},
	}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, order.Items[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(100*MaxLineQuantity)))
}

func TestCreateOrderDeletedProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")
	f.seed(t, "p2", "Mouse", "10")
	require.NoError(t, f.products.Delete(ctx, "p2"))

	_, err := f.svc.CreateOrder(ctx, customer, []LineRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	}, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, apperr.Message(err), "p2")

	orders, items := f.countRows(t)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Empty(t, f.events.Types())
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) CreateOrder(context.Context, *models.Order) error {
	return errors.New("connection reset by peer")
}

func TestCreateOrderPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")
	f.svc.orders = failingOrders{f.orders}

	_, err := f.svc.CreateOrder(context.Background(), customer, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotContains(t, apperr.Message(err), "connection reset")
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")
	order, err := f.svc.CreateOrder(ctx, customer, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, customer, order.ID, "COMPLETED")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, admin, order.ID, "SHIPPED")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.UpdateOrderStatus(ctx, admin, "missing", "COMPLETED")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// any-to-any, including reopening a cancelled order
	for _, status := range []string{"cancelled", "PENDING", "Completed", "PENDING"} {
		updated, err := f.svc.UpdateOrderStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
		want, _ := models.ParseOrderStatus(status)
		assert.Equal(t, want, updated.Status)
	}
	assert.Len(t, f.events.Types(), 5)
}

func TestCanTransitionAllowsEveryPair(t *testing.T) {
	all := []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusCancelled}
	for _, from := range all {
		for _, to := range all {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestOrderListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	first, err := f.svc.CreateOrder(ctx, customer, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, customer, []LineRequest{{ProductID: "p1", Quantity: 2}}, decimal.Zero)
	require.NoError(t, err)
	theirs, err := f.svc.CreateOrder(ctx, other, []LineRequest{{ProductID: "p1", Quantity: 3}}, decimal.Zero)
	require.NoError(t, err)

	_, err = f.svc.ListOrders(ctx, customer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	all, err := f.svc.ListOrders(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, theirs.ID, all[0].ID)

	mine, err := f.svc.ListMyOrders(ctx, customer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	assert.True(t, f.redis.Exists(cache.UserOrdersKey(customer.UserID)))

	_, err = f.svc.ListMyOrders(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	// status change drops the cached views
	_, err = f.svc.UpdateOrderStatus(ctx, admin, first.ID, "COMPLETED")
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(cache.UserOrdersKey(customer.UserID)))
	assert.False(t, f.redis.Exists(cache.AdminOrdersKey))

	mine, err = f.svc.ListMyOrders(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, mine[1].Status)
}

func TestCreateOrderInvalidatesCatalogViews(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")

	require.NoError(t, f.redis.Set(cache.ProductListPrefix+"q=\"\"", "[]"))
	require.NoError(t, f.redis.Set(cache.ProductKey("p1"), "{}"))
	require.NoError(t, f.redis.Set(cache.CategoriesKey, "[]"))

	_, err := f.svc.CreateOrder(context.Background(), customer, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	require.NoError(t, err)

	assert.False(t, f.redis.Exists(cache.ProductListPrefix+"q=\"\""))
	assert.False(t, f.redis.Exists(cache.ProductKey("p1")))
	assert.False(t, f.redis.Exists(cache.CategoriesKey))
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "p1", "Laptop", "100")
	order, err := f.svc.CreateOrder(ctx, customer, []LineRequest{{ProductID: "p1", Quantity: 1}}, decimal.Zero)
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, other, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCartCheckoutThroughService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptop := f.seed(t, "p1", "Laptop", "100")

	c := cart.New(nil, zap.NewNop())
	c.AddItem(laptop)
	c.AddItem(laptop)

	orderID, err := c.Checkout(ctx, f.svc.Submitter(customer))
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	stored, err := f.orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(200)))

	// a deleted product fails checkout and keeps the cart
	c.AddItem(laptop)
	require.NoError(t, f.products.Delete(ctx, "p1"))
	_, err = c.Checkout(ctx, f.svc.Submitter(customer))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, c.Count())
}
