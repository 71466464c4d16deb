package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderLine struct {
	ProductID string
	Quantity  int
}

// Submitter places an order for the given lines and returns its id. declaredTotal is
// the client's view of the total and is advisory only.
type Submitter func(ctx context.Context, lines []OrderLine, declaredTotal decimal.Decimal) (string, error)

// Checkout submits the cart. The cart is cleared only after the order was accepted;
// on failure it is left untouched so the user can retry.
func (c *Cart) Checkout(ctx context.Context, submit Submitter) (string, error) {
	lines := make([]OrderLine, 0, len(c.order))
	for _, line := range c.Items() {
		lines = append(lines, OrderLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	orderID, err := submit(ctx, lines, c.Total())
	if err != nil {
		c.logger.Info("checkout failed, cart kept", zap.Error(err))
		return "", err
	}

	c.Clear()
	return orderID, nil
}
