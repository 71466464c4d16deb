package orders

import "storefront/internal/models"

// CanTransition reports whether an order may move from one status to another. Every
// pair is allowed, including reopening completed or cancelled orders.
func CanTransition(from, to models.OrderStatus) bool {
	return true
}
