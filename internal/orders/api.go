package orders

import (
	"context"
	"fmt"

	"github.com/gardenseed/storefront/internal/gateway"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/enums"
)

// API wraps the /orders endpoints.
type API struct {
	gw *gateway.Client
}

func NewAPI(gw *gateway.Client) *API {
	return &API{gw: gw}
}

// List returns the caller's orders.
func (a *API) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := a.gw.Get(ctx, "/orders/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every order. Admin only.
func (a *API) All(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := a.gw.Get(ctx, "/orders/admin/all/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits an order. A non-empty idempotency key lets the backend collapse resubmissions.
func (a *API) Create(ctx context.Context, input CreateInput, idempotencyKey string) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if input.Status == "" {
		input.Status = enums.OrderStatusPending
	}
	var order Order
	if err := a.gw.Post(ctx, "/orders/", input, &order, gateway.WithIdempotencyKey(idempotencyKey)); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order to status. Admin only.
func (a *API) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	var order Order
	body := map[string]string{"status": status.String()}
	if err := a.gw.Put(ctx, fmt.Sprintf("/orders/admin/%d/status/", orderID), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
