package prefs

import (
	"context"
	"fmt"

	"github.com/gardenseed/storefront/internal/repo"
	"github.com/gardenseed/storefront/pkg/db"
	"github.com/gardenseed/storefront/pkg/db/models"
	"gorm.io/gorm/clause"
)

const (
	KeyTheme = "theme"
	KeyToken = "token"
)

// Store is the local key/value preference table.
type Store struct {
	repo.Base
}

// NewStore migrates the preference table and returns a store over it.
func NewStore(ctx context.Context, client *db.Client) (*Store, error) {
	base, err := repo.NewBase(ctx, client, &models.Preference{})
	if err != nil {
		return nil, fmt.Errorf("prefs store: %w", err)
	}
	return &Store{Base: base}, nil
}

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var pref models.Preference
	err := s.DB(ctx).Where(map[string]any{"key": key}).Take(&pref).Error
	if repo.Missing(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %q: %w", key, err)
	}
	return pref.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	pref := models.Preference{Key: key, Value: value}
	err := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("writing preference %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.DB(ctx).Where(map[string]any{"key": key}).Delete(&models.Preference{}).Error; err != nil {
		return fmt.Errorf("deleting preference %q: %w", key, err)
	}
	return nil
}

// LegacyToken returns the token cached by older screens, if any.
func (s *Store) LegacyToken(ctx context.Context) (string, bool, error) {
	return s.Get(ctx, KeyToken)
}

func (s *Store) SetLegacyToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyToken, token)
}

// RemoveLegacyToken drops the cached token. Removing an absent token is not an error.
func (s *Store) RemoveLegacyToken(ctx context.Context) error {
	return s.Delete(ctx, KeyToken)
}
