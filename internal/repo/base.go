package repo

import (
	"context"
	"errors"

	"github.com/gardenseed/storefront/pkg/db"
	"gorm.io/gorm"
)

// ErrNoClient is returned when a local store is built without a database.
var ErrNoClient = errors.New("repo: database client is required")

// Base is the shared foundation of the gorm-backed local stores.
type Base struct {
	client *db.Client
}

// NewBase migrates models on client and returns a Base bound to it.
func NewBase(ctx context.Context, client *db.Client, models ...any) (Base, error) {
	if client == nil {
		return Base{}, ErrNoClient
	}
	if len(models) > 0 {
		if err := client.Migrate(ctx, models...); err != nil {
			return Base{}, err
		}
	}
	return Base{client: client}, nil
}

// DB returns the connection bound to ctx. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.client.DB()
	}
	return b.client.DB().WithContext(ctx)
}

// Tx runs fn inside a transaction.
func (b Base) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.client.WithTx(ctx, fn)
}

// Missing reports whether err means the row does not exist.
func Missing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
