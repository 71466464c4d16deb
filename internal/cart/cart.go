package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/models"
)

// StorageKey is the fixed key the cart is persisted under.
const StorageKey = "storefront-cart-storage"

// Line is one product in the cart. Name, Price and Image are a snapshot taken when
// the product was first added; the server reprices at checkout.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a single client's cart. It is not safe for concurrent use. Every mutation
// is persisted; persistence failures are logged and never returned.
type Cart struct {
	lines   map[string]*Line
	order   []string
	storage Storage
	logger  *zap.Logger
}

func New(storage Storage, logger *zap.Logger) *Cart {
	return &Cart{
		lines:   map[string]*Line{},
		storage: storage,
		logger:  logger.Named("cart"),
	}
}

// AddItem puts one unit of product in the cart, or bumps the quantity of an existing line.
func (c *Cart) AddItem(product models.Product) {
	if line, ok := c.lines[product.ID]; ok {
		line.Quantity++
	} else {
		c.lines[product.ID] = &Line{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.MainImage(),
			Quantity:  1,
		}
		c.order = append(c.order, product.ID)
	}
	c.persist()
}

func (c *Cart) RemoveItem(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.persist()
}

// UpdateQuantity sets a line's quantity, clamped to at least 1. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	line.Quantity = quantity
	c.persist()
}

func (c *Cart) Clear() {
	c.lines = map[string]*Line{}
	c.order = nil
	c.persist()
}

// Total is always recomputed from the lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Items returns copies of the lines in the order they were added.
func (c *Cart) Items() []Line {
	items := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, *c.lines[id])
	}
	return items
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) persist() {
	if c.storage == nil {
		return
	}
	data, err := encode(c.snapshot())
	if err != nil {
		c.logger.Warn("cart encode failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.storage.Save(ctx, StorageKey, data); err != nil {
		c.logger.Warn("cart persist failed", zap.Error(err))
	}
}

func (c *Cart) snapshot() state {
	s := state{Items: make(map[string]Line, len(c.lines)), Order: append([]string{}, c.order...)}
	for id, line := range c.lines {
		s.Items[id] = *line
	}
	return s
}

// Load restores the persisted cart. A missing entry yields an empty cart.
func Load(ctx context.Context, storage Storage, logger *zap.Logger) (*Cart, error) {
	c := New(storage, logger)

	data, err := storage.Load(ctx, StorageKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return c, nil
	}

	s, err := decode(data)
	if err != nil {
		return nil, err
	}
	for _, id := range s.Order {
		line := s.Items[id]
		c.lines[id] = &line
		c.order = append(c.order, id)
	}
	return c, nil
}
