package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repository"
)

// LineRequest is one requested order line. Only the product id and quantity are
// trusted; prices always come from the product store.
type LineRequest struct {
	ProductID string
	Quantity  int
}

type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    cache.Cache
	events   events.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(orders repository.OrderRepository, products repository.ProductRepository, c cache.Cache, pub events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		cache:    c,
		events:   pub,
		logger:   logger.Named("orders"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder reprices the requested lines from the product store and writes the
// order with its items in one atomic step. declaredTotal is ignored apart from a
// log line when it disagrees with the computed total.
func (s *Service) CreateOrder(ctx context.Context, id *auth.Identity, lines []LineRequest, declaredTotal decimal.Decimal) (*models.Order, error) {
	if err := auth.RequireUser(id); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyCart()
	}

	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	productIDs := make([]string, len(merged))
	for i, line := range merged {
		productIDs[i] = line.ProductID
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, s.storeError("load order products", err)
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []string
	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Status:    models.OrderStatusPending,
		CreatedAt: s.now(),
		Items:     make([]models.OrderItem, 0, len(merged)),
	}
	for _, line := range merged {
		product, ok := byID[line.ProductID]
		if !ok {
			missing = append(missing, line.ProductID)
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
		})
	}
	if len(missing) > 0 {
		return nil, apperr.NotFound("product", missing...)
	}
	order.Total = order.ItemsTotal()

	if !declaredTotal.IsZero() && !declaredTotal.Equal(order.Total) {
		s.logger.Debug("declared total ignored",
			zap.String("declared", declaredTotal.String()),
			zap.String("computed", order.Total.String()),
		)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, s.storeError("create order", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", order.Total.String()),
		zap.Int("items", len(order.Items)),
	)
	s.invalidateOrders(ctx, order.UserID)
	s.invalidateCatalog(ctx)
	s.publish(ctx, events.New(events.OrderCreated, order.ID, order))
	return order, nil
}

// MaxLineQuantity bounds the quantity of a single order line after merging.
const MaxLineQuantity = 9999

// mergeLines validates the lines and folds repeated product ids into one line,
// keeping first-seen order.
func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	merged := make([]LineRequest, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			return nil, apperr.Validation("productId is required")
		}
		if line.Quantity < 1 {
			return nil, apperr.Validation("quantity for %s must be at least 1", productID)
		}
		if line.Quantity > MaxLineQuantity {
			return nil, apperr.Validation("quantity for %s must be at most %d", productID, MaxLineQuantity)
		}
		if i, ok := index[productID]; ok {
			if merged[i].Quantity > MaxLineQuantity-line.Quantity {
				return nil, apperr.Validation("quantity for %s must be at most %d", productID, MaxLineQuantity)
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[productID] = len(merged)
		merged = append(merged, LineRequest{ProductID: productID, Quantity: line.Quantity})
	}
	return merged, nil
}

// UpdateOrderStatus sets the status of an order. Admin only.
func (s *Service) UpdateOrderStatus(ctx context.Context, id *auth.Identity, orderID, status string) (*models.Order, error) {
	if err := auth.RequireAdmin(id); err != nil {
		return nil, err
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperr.Validation("invalid status %q", status)
	}

	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.storeError("load order", err)
	}
	if !CanTransition(current.Status, next) {
		return nil, apperr.Validation("cannot move order from %s to %s", current.Status, next)
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, s.storeError("update order status", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.String("admin_id", id.UserID),
	)
	s.invalidateOrders(ctx, order.UserID)
	s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, map[string]string{
		"from": string(current.Status),
		"to":   string(next),
	}))
	return order, nil
}

// ListOrders returns every order, newest first. Admin only.
func (s *Service) ListOrders(ctx context.Context, id *auth.Identity) ([]models.Order, error) {
	if err := auth.RequireAdmin(id); err != nil {
		return nil, err
	}
	return s.listCached(ctx, cache.AdminOrdersKey, func() ([]models.Order, error) {
		return s.orders.List(ctx)
	})
}

// ListMyOrders returns the caller's orders, newest first.
func (s *Service) ListMyOrders(ctx context.Context, id *auth.Identity) ([]models.Order, error) {
	if err := auth.RequireUser(id); err != nil {
		return nil, err
	}
	return s.listCached(ctx, cache.UserOrdersKey(id.UserID), func() ([]models.Order, error) {
		return s.orders.ListByUser(ctx, id.UserID)
	})
}

// GetOrder is available to admins and to the order's owner. Other callers get the
// same not-found answer as for a missing order.
func (s *Service) GetOrder(ctx context.Context, id *auth.Identity, orderID string) (*models.Order, error) {
	if err := auth.RequireUser(id); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.storeError("get order", err)
	}
	if !id.IsAdmin() && order.UserID != id.UserID {
		return nil, apperr.NotFound("order", orderID)
	}
	return order, nil
}

// Submitter adapts CreateOrder for cart checkout on behalf of id.
func (s *Service) Submitter(id *auth.Identity) cart.Submitter {
	return func(ctx context.Context, lines []cart.OrderLine, declaredTotal decimal.Decimal) (string, error) {
		reqs := make([]LineRequest, len(lines))
		for i, line := range lines {
			reqs[i] = LineRequest{ProductID: line.ProductID, Quantity: line.Quantity}
		}
		order, err := s.CreateOrder(ctx, id, reqs, declaredTotal)
		if err != nil {
			return "", err
		}
		return order.ID, nil
	}
}

func (s *Service) listCached(ctx context.Context, key string, load func() ([]models.Order, error)) ([]models.Order, error) {
	var orders []models.Order
	hit, err := s.cache.Get(ctx, key, &orders)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return orders, nil
	}

	orders, err = load()
	if err != nil {
		return nil, s.storeError("list orders", err)
	}

	if err := s.cache.Set(ctx, key, orders); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return orders, nil
}

func (s *Service) invalidateOrders(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, cache.AdminOrdersKey, cache.UserOrdersKey(userID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// invalidateCatalog drops cached product views after an order commits.
func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.ProductListPrefix, cache.ProductPrefix, cache.CategoriesKey); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", e.Type), zap.String("key", e.Key), zap.Error(err))
	}
}

func (s *Service) storeError(op string, err error) error {
	err = apperr.FromStore(err)
	if apperr.KindOf(err) == apperr.KindPersistence {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return err
}
