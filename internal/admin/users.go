package admin

import (
	"context"

	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/logger"
)

// UserBoard lists accounts and blocks or unblocks them.
type UserBoard struct {
	api  *users.API
	list *collection[users.User]
}

func NewUserBoard(api *users.API, notifier notify.Notifier, logg *logger.Logger) *UserBoard {
	return &UserBoard{
		api:  api,
		list: newCollection("users", func(u users.User) int64 { return u.ID }, notifier, logg),
	}
}

func (b *UserBoard) Load(ctx context.Context) error {
	return b.list.load(ctx, b.api.List)
}

// SetActive blocks (active=false) or unblocks an account and patches only that user's flag locally.
func (b *UserBoard) SetActive(ctx context.Context, userID int64, active bool) error {
	failure, success := "Failed to block user", "User blocked"
	if active {
		failure, success = "Failed to unblock user", "User unblocked"
	}
	ctx = b.list.logg.WithUserID(ctx, userID)
	return b.list.run(ctx, failure, success, func() error {
		_, err := b.api.SetActive(ctx, userID, active)
		return err
	}, func(items []users.User) []users.User {
		out := make([]users.User, len(items))
		for i, u := range items {
			if u.ID == userID {
				u.IsActive = active
			}
			out[i] = u
		}
		return out
	})
}

func (b *UserBoard) Users() []users.User { return b.list.snapshot() }

func (b *UserBoard) Find(userID int64) (users.User, bool) { return b.list.find(userID) }

func (b *UserBoard) Loading() bool { return b.list.loading() }
func (b *UserBoard) Err() string   { return b.list.err() }
