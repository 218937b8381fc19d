package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/gardenseed/storefront/pkg/validators"
)

// Mode selects who is viewing the thread.
type Mode int

const (
	ModeCustomer Mode = iota
	ModeAdmin
)

type Params struct {
	Gateway     *gateway.Client
	OrderID     int64
	ViewerEmail string
	Mode        Mode
	Notifier    notify.Notifier
	Logger      *logger.Logger
}

// Thread is the comment list of one order as seen by one viewer.
type Thread struct {
	gw          *gateway.Client
	orderID     int64
	viewerEmail string
	mode        Mode
	notifier    notify.Notifier
	logg        *logger.Logger

	mu       sync.RWMutex
	comments []Comment
	pending  int
}

func NewThread(p Params) *Thread {
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Notifier == nil {
		p.Notifier = notify.NewLogNotifier(p.Logger)
	}
	return &Thread{
		gw:          p.Gateway,
		orderID:     p.OrderID,
		viewerEmail: p.ViewerEmail,
		mode:        p.Mode,
		notifier:    p.Notifier,
		logg:        p.Logger,
		comments:    []Comment{},
	}
}

// Fetch replaces the local list with the server's thread, in server order.
func (t *Thread) Fetch(ctx context.Context) error {
	t.begin()
	defer t.end()

	ctx = t.logg.WithOrderID(ctx, t.orderID)
	var out []Comment
	if err := t.gw.Get(ctx, fmt.Sprintf("/order-comments/order/%d", t.orderID), &out); err != nil {
		t.logg.Error(ctx, "failed to fetch order comments", err)
		t.notifier.Error(ctx, "Failed to load messages", func(ctx context.Context) { _ = t.Fetch(ctx) })
		return err
	}
	if out == nil {
		out = []Comment{}
	}
	t.mu.Lock()
	t.comments = out
	t.mu.Unlock()
	return nil
}

// Post sends text to the thread and resyncs. Blank text is rejected before any request. If the resync
// fails the comment returned by the server is appended instead.
func (t *Thread) Post(ctx context.Context, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if err := validators.Var("comment", text, "notblank"); err != nil {
		return nil, err
	}

	t.begin()
	defer t.end()

	ctx = t.logg.WithOrderID(ctx, t.orderID)
	var created Comment
	if err := t.gw.Post(ctx, "/order-comments/", createRequest{OrderID: t.orderID, Comment: text}, &created); err != nil {
		t.logg.Error(ctx, "failed to post order comment", err)
		t.notifier.Error(ctx, "Failed to send message", nil)
		return nil, err
	}

	var refreshed []Comment
	if err := t.gw.Get(ctx, fmt.Sprintf("/order-comments/order/%d", t.orderID), &refreshed); err != nil {
		t.logg.Warn(t.logg.WithField(ctx, "error", err.Error()), "order comments resync failed, appending posted comment")
		t.mu.Lock()
		t.comments = append(t.comments, created)
		t.mu.Unlock()
		return &created, nil
	}
	if refreshed == nil {
		refreshed = []Comment{}
	}
	t.mu.Lock()
	t.comments = refreshed
	t.mu.Unlock()
	return &created, nil
}

// Comments returns a copy of the thread.
func (t *Thread) Comments() []Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Comment{}, t.comments...)
}

func (t *Thread) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending > 0
}

// Attribute labels c for the viewer. A comment is the viewer's own only on an exact email match; every
// other comment belongs to the opposite side of the conversation.
func (t *Thread) Attribute(c Comment) Attribution {
	switch {
	case c.UserEmail == t.viewerEmail:
		return Attribution{Role: RoleSelf, Name: c.Author()}
	case t.mode == ModeAdmin:
		return Attribution{Role: RoleCustomer, Name: c.Author()}
	default:
		return Attribution{Role: RoleAdministrator, Name: c.Author()}
	}
}

func (t *Thread) Title() string {
	if t.mode == ModeAdmin {
		return "Chat with customer"
	}
	return "Chat with administrator"
}

func (t *Thread) begin() {
	t.mu.Lock()
	t.pending++
	t.mu.Unlock()
}

func (t *Thread) end() {
	t.mu.Lock()
	t.pending--
	t.mu.Unlock()
}
