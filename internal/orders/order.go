package orders

import (
	"time"

	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Item is one order line: a snapshot of a cart line at checkout time.
type Item struct {
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Customer is the order owner as embedded in admin listings.
type Customer struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

type Order struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	Status          enums.OrderStatus `json:"status"`
	StatusDisplay   string            `json:"status_display,omitempty"`
	OrderItems      []Item            `json:"order_items"`
	DeliveryAddress *types.Address    `json:"delivery_address,omitempty"`
	User            *Customer         `json:"user,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`
}

// Label is the display name of the order's status.
func (o Order) Label() string {
	if o.StatusDisplay != "" {
		return o.StatusDisplay
	}
	return o.Status.Label()
}

// CreateInput is the order payload submitted at checkout.
type CreateInput struct {
	UserID          int64             `json:"user_id"`
	Status          enums.OrderStatus `json:"status"`
	Items           []Item            `json:"items"`
	DeliveryAddress types.Address     `json:"delivery_address"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
}

// Sum returns the sum of unit price times quantity over items.
func Sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(types.LineTotal(item.Price, item.Quantity))
	}
	return total
}

func cloneOrders(in []Order) []Order {
	out := make([]Order, len(in))
	for i, o := range in {
		o.OrderItems = append([]Item(nil), o.OrderItems...)
		out[i] = o
	}
	return out
}
