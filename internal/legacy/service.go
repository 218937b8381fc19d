package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gardenseed/storefront/internal/repo"
	"github.com/gardenseed/storefront/pkg/db"
	"github.com/gardenseed/storefront/pkg/db/models"
	dbtypes "github.com/gardenseed/storefront/pkg/db/types"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is collection-style CRUD over the legacy document table. It talks to the database directly
// and never goes through the API gateway or the session.
type Service struct {
	repo.Base
	collection string
	logg       *logger.Logger
	newID      func() string
}

// NewService migrates the document table and scopes the service to one collection.
func NewService(ctx context.Context, client *db.Client, collection string, logg *logger.Logger) (*Service, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, errors.New("legacy collection name is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	base, err := repo.NewBase(ctx, client, &models.LegacyDocument{})
	if err != nil {
		return nil, fmt.Errorf("legacy service: %w", err)
	}
	return &Service{Base: base, collection: collection, logg: logg, newID: uuid.NewString}, nil
}

func (s *Service) scoped(ctx context.Context) *gorm.DB {
	return s.DB(ctx).Where("collection = ?", s.collection)
}

// GetAll returns every item in the collection, oldest first.
func (s *Service) GetAll(ctx context.Context) ([]Item, error) {
	var docs []models.LegacyDocument
	if err := s.scoped(ctx).Order("created_at ASC").Order("id ASC").Find(&docs).Error; err != nil {
		return nil, s.fail(ctx, "failed to list legacy items", err)
	}
	return toItems(docs), nil
}

// GetByField returns the items whose field equals value.
func (s *Service) GetByField(ctx context.Context, field string, value any) ([]Item, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []Item{}
	for _, item := range all {
		if stored, ok := item.Fields[field]; ok && matches(stored, value) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Add stores fields as a new item under a generated id.
func (s *Service) Add(ctx context.Context, fields map[string]any) (*Item, error) {
	doc := models.LegacyDocument{
		ID:         s.newID(),
		Collection: s.collection,
		Fields:     dbtypes.JSONMap(withoutID(fields)),
	}
	if err := s.DB(ctx).Create(&doc).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("item %s already exists", doc.ID))
		}
		return nil, s.fail(ctx, "failed to add legacy item", err)
	}
	item := toItem(doc)
	return &item, nil
}

// Update merges fields into the item, leaving fields it does not name untouched.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (*Item, error) {
	var updated models.LegacyDocument
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var doc models.LegacyDocument
		if err := tx.Where("collection = ? AND id = ?", s.collection, id).Take(&doc).Error; err != nil {
			return err
		}
		merged := dbtypes.JSONMap{}
		for k, v := range doc.Fields {
			merged[k] = v
		}
		for k, v := range withoutID(fields) {
			merged[k] = v
		}
		doc.Fields = merged
		if err := tx.Model(&doc).Update("fields", merged).Error; err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if repo.Missing(err) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %s not found", id))
	}
	if err != nil {
		return nil, s.fail(s.logg.WithField(ctx, "item_id", id), "failed to update legacy item", err)
	}
	item := toItem(updated)
	return &item, nil
}

// Delete removes the item. Deleting a missing item is reported as not found.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.scoped(ctx).Where("id = ?", id).Delete(&models.LegacyDocument{})
	if res.Error != nil {
		return s.fail(s.logg.WithField(ctx, "item_id", id), "failed to delete legacy item", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %s not found", id))
	}
	return nil
}

func (s *Service) fail(ctx context.Context, msg string, err error) error {
	wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	ctx = s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	s.logg.Error(s.logg.WithField(ctx, "collection", s.collection), msg, err)
	return wrapped
}

func withoutID(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

func toItem(doc models.LegacyDocument) Item {
	fields := map[string]any{}
	for k, v := range doc.Fields {
		fields[k] = v
	}
	return Item{ID: doc.ID, Fields: fields}
}

func toItems(docs []models.LegacyDocument) []Item {
	out := make([]Item, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toItem(doc))
	}
	return out
}
