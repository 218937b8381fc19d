package chat

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/testutil/fakeapi"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	api      *fakeapi.Server
	order    fakeapi.Order
	recorder *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	name := "Ada Gardener"
	api.AddUser(fakeapi.User{Email: "buyer@example.com", FullName: &name, UserUID: "uid-buyer", IsActive: true})
	api.AddUser(fakeapi.User{Email: "admin@example.com", UserUID: "uid-admin", IsActive: true, IsSuperuser: true})
	order := api.AddOrder("uid-buyer", fakeapi.Order{TotalAmount: 25})
	return &fixture{api: api, order: order, recorder: notify.NewRecorder()}
}

func (f *fixture) thread(t *testing.T, uid, email string, mode Mode) *Thread {
	return NewThread(Params{
		Gateway:     f.api.Gateway(t, uid),
		OrderID:     f.order.ID,
		ViewerEmail: email,
		Mode:        mode,
		Notifier:    f.recorder,
	})
}

func commentsPath(orderID int64) string {
	return fmt.Sprintf("/order-comments/order/%d", orderID)
}

func TestFetchReplacesThreadInServerOrder(t *testing.T) {
	f := newFixture(t)
	f.api.AddComment("uid-buyer", f.order.ID, "When will it ship?")
	f.api.AddComment("uid-admin", f.order.ID, "Tomorrow")
	th := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)

	require.NoError(t, th.Fetch(context.Background()))
	got := th.Comments()
	require.Len(t, got, 2)
	assert.Equal(t, "When will it ship?", got[0].Comment)
	assert.Equal(t, "Tomorrow", got[1].Comment)
	assert.False(t, th.Loading())
}

func TestPostRejectsBlankTextWithoutRequest(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := th.Post(context.Background(), text)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "text %q", text)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
	assert.Equal(t, 0, f.api.Count(http.MethodPost, "/order-comments"))
	assert.Empty(t, f.api.Requests())
}

func TestPostResyncsThread(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)
	require.NoError(t, th.Fetch(context.Background()))

	// another participant writes between our fetch and post
	f.api.AddComment("uid-admin", f.order.ID, "Any questions?")

	created, err := th.Post(context.Background(), "  Is basil in stock?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is basil in stock?", created.Comment)

	got := th.Comments()
	require.Len(t, got, 2)
	assert.Equal(t, "Any questions?", got[0].Comment)
	assert.Equal(t, "Is basil in stock?", got[1].Comment)
	assert.Equal(t, 2, f.api.Count(http.MethodGet, commentsPath(f.order.ID)))
}

func TestPostAppendsWhenResyncFails(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)

	f.api.FailNext(http.MethodGet, commentsPath(f.order.ID), http.StatusInternalServerError, "boom")
	created, err := th.Post(context.Background(), "hello")
	require.NoError(t, err)

	got := th.Comments()
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Empty(t, f.recorder.Errors())
}

func TestPostFailureLeavesThreadUntouched(t *testing.T) {
	f := newFixture(t)
	f.api.AddComment("uid-buyer", f.order.ID, "first")
	th := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)
	require.NoError(t, th.Fetch(context.Background()))

	f.api.FailNext(http.MethodPost, "/order-comments", http.StatusInternalServerError, "boom")
	_, err := th.Post(context.Background(), "second")
	require.Error(t, err)
	assert.Len(t, th.Comments(), 1)
	assert.Equal(t, []string{"Failed to send message"}, f.recorder.Errors())
}

func TestAttribution(t *testing.T) {
	f := newFixture(t)
	name := "Ada Gardener"
	own := Comment{UserEmail: "buyer@example.com", UserFullName: &name}
	staff := Comment{UserEmail: "admin@example.com"}

	customer := f.thread(t, "uid-buyer", "buyer@example.com", ModeCustomer)
	assert.Equal(t, Attribution{Role: RoleSelf, Name: "Ada Gardener"}, customer.Attribute(own))
	assert.Equal(t, Attribution{Role: RoleAdministrator, Name: "admin@example.com"}, customer.Attribute(staff))
	assert.Equal(t, "Chat with administrator", customer.Title())

	admin := f.thread(t, "uid-admin", "admin@example.com", ModeAdmin)
	assert.Equal(t, Attribution{Role: RoleCustomer, Name: "Ada Gardener"}, admin.Attribute(own))
	assert.Equal(t, RoleSelf, admin.Attribute(staff).Role)
	assert.Equal(t, "Chat with customer", admin.Title())

	// matching is exact, so a differently cased address is not the viewer
	assert.Equal(t, RoleAdministrator, customer.Attribute(Comment{UserEmail: "Buyer@example.com"}).Role)
}

func TestForeignOrderIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.api.AddUser(fakeapi.User{Email: "other@example.com", UserUID: "uid-other", IsActive: true})
	th := f.thread(t, "uid-other", "other@example.com", ModeCustomer)

	err := th.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, []string{"Failed to load messages"}, f.recorder.Errors())
}
