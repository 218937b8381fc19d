package orders

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/testutil/fakeapi"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

func seedOrders(t *testing.T) (*fakeapi.Server, fakeapi.Order, fakeapi.Order) {
	t.Helper()
	api := fakeapi.New(t)
	api.AddUser(fakeapi.User{Email: "admin@example.com", UserUID: "uid-admin", IsActive: true, IsSuperuser: true})
	api.AddUser(fakeapi.User{Email: "buyer@example.com", UserUID: "uid-1", IsActive: true})
	first := api.AddOrder("uid-1", fakeapi.Order{TotalAmount: 25, OrderItems: []fakeapi.OrderItem{{ProductID: 1, Quantity: 2, Price: 10}, {ProductID: 2, Quantity: 1, Price: 5}}})
	second := api.AddOrder("uid-1", fakeapi.Order{TotalAmount: 5, OrderItems: []fakeapi.OrderItem{{ProductID: 2, Quantity: 1, Price: 5}}})
	return api, first, second
}

func TestHistoryLoadsOwnOrders(t *testing.T) {
	api, first, _ := seedOrders(t)
	history := NewHistory(NewAPI(api.Gateway(t, "uid-1")), notify.NewRecorder(), nil)

	if err := history.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	list := history.Orders()
	if len(list) != 2 {
		t.Fatalf("expected two orders, got %d", len(list))
	}
	if list[0].ID != first.ID || !list[0].TotalAmount.Equal(decimal.NewFromInt(25)) || list[0].Status != enums.OrderStatusPending {
		t.Fatalf("unexpected order %+v", list[0])
	}
	if list[0].Label() != "Pending" {
		t.Fatalf("unexpected label %q", list[0].Label())
	}
	if !Sum(list[0].OrderItems).Equal(list[0].TotalAmount) {
		t.Fatalf("line sum %s does not match total %s", Sum(list[0].OrderItems), list[0].TotalAmount)
	}
}

func TestHistoryFailureOffersRetry(t *testing.T) {
	api, _, _ := seedOrders(t)
	recorder := notify.NewRecorder()
	history := NewHistory(NewAPI(api.Gateway(t, "uid-1")), recorder, nil)
	api.FailNext(http.MethodGet, "/orders", http.StatusServiceUnavailable, "maintenance")

	if err := history.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if history.Err() != "Failed to load orders" {
		t.Fatalf("unexpected error state %q", history.Err())
	}
	toasts := recorder.Toasts()
	if len(toasts) != 1 || toasts[0].Retry == nil {
		t.Fatalf("expected retryable toast, got %+v", toasts)
	}
	toasts[0].Retry(context.Background())
	if len(history.Orders()) != 2 {
		t.Fatal("retry should load orders")
	}
}

func TestBoardUpdateStatusPatchesOnlyThatOrder(t *testing.T) {
	api, first, second := seedOrders(t)
	recorder := notify.NewRecorder()
	board := NewBoard(NewAPI(api.Gateway(t, "uid-admin")), recorder, nil)
	ctx := context.Background()
	if err := board.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	gets := api.Count(http.MethodGet, "/orders/admin/all")

	if err := board.UpdateStatus(ctx, first.ID, enums.OrderStatusProcessing); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, _ := board.Find(first.ID)
	untouched, _ := board.Find(second.ID)
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if untouched.Status != enums.OrderStatusPending {
		t.Fatalf("other order changed to %s", untouched.Status)
	}
	if api.Count(http.MethodGet, "/orders/admin/all") != gets {
		t.Fatal("status update must not reload the board")
	}
	if api.Orders()[0].Status != "processing" {
		t.Fatal("backend not updated")
	}
}

func TestBoardRejectsInvalidStatusBeforeNetwork(t *testing.T) {
	api, first, _ := seedOrders(t)
	board := NewBoard(NewAPI(api.Gateway(t, "uid-admin")), notify.NewRecorder(), nil)

	err := board.UpdateStatus(context.Background(), first.ID, enums.OrderStatus("lost"))
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.Requests()) != 0 {
		t.Fatal("no request expected")
	}
}

func TestBoardFailedUpdateKeepsLocalStatus(t *testing.T) {
	api, first, _ := seedOrders(t)
	recorder := notify.NewRecorder()
	board := NewBoard(NewAPI(api.Gateway(t, "uid-admin")), recorder, nil)
	ctx := context.Background()
	if err := board.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	api.FailNext(http.MethodPut, "/orders/admin/"+strconv.FormatInt(first.ID, 10)+"/status", http.StatusInternalServerError, "boom")

	if err := board.UpdateStatus(ctx, first.ID, enums.OrderStatusShipped); err == nil {
		t.Fatal("expected error")
	}
	order, _ := board.Find(first.ID)
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("local status changed to %s", order.Status)
	}
	if errs := recorder.Errors(); len(errs) != 1 || errs[0] != "Failed to update order status" {
		t.Fatalf("unexpected toasts %v", errs)
	}
}

func TestBoardForbiddenForCustomers(t *testing.T) {
	api, _, _ := seedOrders(t)
	board := NewBoard(NewAPI(api.Gateway(t, "uid-1")), notify.NewRecorder(), nil)
	err := board.Load(context.Background())
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateRequiresItems(t *testing.T) {
	api, _, _ := seedOrders(t)
	_, err := NewAPI(api.Gateway(t, "uid-1")).Create(context.Background(), CreateInput{}, "")
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

