package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gardenseed/storefront/internal/gateway"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/gardenseed/storefront/pkg/redis"
	"github.com/gardenseed/storefront/pkg/validators"
)

// API reads and edits the product catalog. Reads may be served from the cache; every mutation drops the
// cached entries of the resource it touched.
type API struct {
	gw    *gateway.Client
	cache Cache
	ttl   time.Duration
	logg  *logger.Logger
}

type Option func(*API)

// WithCache puts cache in front of catalog reads. A zero ttl stores entries without expiry.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(a *API) {
		a.cache = cache
		a.ttl = ttl
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(a *API) {
		if logg != nil {
			a.logg = logg
		}
	}
}

func NewAPI(gw *gateway.Client, opts ...Option) *API {
	a := &API{gw: gw, logg: logger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func isMiss(err error) bool {
	return redis.IsMiss(err)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Products lists products with their manufacturer embedded.
func (a *API) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	key := ""
	if a.cache != nil {
		key = a.cache.CatalogKey(resourceProducts)
	}
	err := a.cached(ctx, key, &out, func() error {
		return a.gw.Get(ctx, "/products/", &out, gateway.WithQuery("include", "manufacturer"))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Product(ctx context.Context, productID int64) (*Product, error) {
	var out Product
	key := ""
	if a.cache != nil {
		key = a.cache.CatalogKey(resourceProducts, id(productID))
	}
	err := a.cached(ctx, key, &out, func() error {
		return a.gw.Get(ctx, fmt.Sprintf("/products/%d", productID), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func validateProduct(input ProductInput) error {
	if err := validators.Struct(input); err != nil {
		return err
	}
	if !input.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero").
			WithDetails(map[string]string{"price": "must be greater than zero"})
	}
	return nil
}

func (a *API) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}
	var out Product
	if err := a.gw.Post(ctx, "/products/", input, &out); err != nil {
		return nil, err
	}
	a.invalidate(ctx, resourceProducts)
	return &out, nil
}

func (a *API) UpdateProduct(ctx context.Context, productID int64, input ProductInput) (*Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}
	var out Product
	if err := a.gw.Put(ctx, fmt.Sprintf("/products/%d", productID), input, &out); err != nil {
		return nil, err
	}
	a.invalidate(ctx, resourceProducts, id(productID))
	return &out, nil
}

func (a *API) DeleteProduct(ctx context.Context, productID int64) error {
	if err := a.gw.Delete(ctx, fmt.Sprintf("/products/%d", productID), nil); err != nil {
		return err
	}
	a.invalidate(ctx, resourceProducts, id(productID))
	return nil
}

func (a *API) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	key := ""
	if a.cache != nil {
		key = a.cache.CatalogKey(resourceCategories)
	}
	if err := a.cached(ctx, key, &out, func() error { return a.gw.Get(ctx, "/categories/", &out) }); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory adds a category. The backend answers 400 for a duplicate name, reported as a conflict.
func (a *API) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Category
	if err := a.gw.Post(ctx, "/categories/", input, &out); err != nil {
		return nil, duplicateName(err, "Category with this name already exists")
	}
	a.invalidate(ctx, resourceCategories)
	return &out, nil
}

func (a *API) UpdateCategory(ctx context.Context, categoryID int64, input CategoryInput) (*Category, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Category
	if err := a.gw.Put(ctx, fmt.Sprintf("/categories/%d", categoryID), input, &out); err != nil {
		return nil, err
	}
	a.invalidate(ctx, resourceCategories)
	return &out, nil
}

func (a *API) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := a.gw.Delete(ctx, fmt.Sprintf("/categories/%d", categoryID), nil); err != nil {
		return err
	}
	a.invalidate(ctx, resourceCategories)
	return nil
}

func (a *API) Manufacturers(ctx context.Context) ([]Manufacturer, error) {
	var out []Manufacturer
	key := ""
	if a.cache != nil {
		key = a.cache.CatalogKey(resourceManufacturers)
	}
	if err := a.cached(ctx, key, &out, func() error { return a.gw.Get(ctx, "/manufacturers/", &out) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) CreateManufacturer(ctx context.Context, input ManufacturerInput) (*Manufacturer, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Manufacturer
	if err := a.gw.Post(ctx, "/manufacturers/", input, &out); err != nil {
		return nil, duplicateName(err, "Manufacturer with this name already exists")
	}
	a.invalidate(ctx, resourceManufacturers)
	return &out, nil
}

func (a *API) UpdateManufacturer(ctx context.Context, manufacturerID int64, input ManufacturerInput) (*Manufacturer, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Manufacturer
	if err := a.gw.Put(ctx, fmt.Sprintf("/manufacturers/%d", manufacturerID), input, &out); err != nil {
		return nil, err
	}
	// products embed their manufacturer
	a.invalidate(ctx, resourceManufacturers)
	a.invalidate(ctx, resourceProducts)
	return &out, nil
}

func (a *API) DeleteManufacturer(ctx context.Context, manufacturerID int64) error {
	if err := a.gw.Delete(ctx, fmt.Sprintf("/manufacturers/%d", manufacturerID), nil); err != nil {
		return err
	}
	a.invalidate(ctx, resourceManufacturers)
	a.invalidate(ctx, resourceProducts)
	return nil
}

func (a *API) Reviews(ctx context.Context, productID int64) ([]Review, error) {
	var out []Review
	key := ""
	if a.cache != nil {
		key = a.cache.CatalogKey(resourceReviews, id(productID))
	}
	err := a.cached(ctx, key, &out, func() error {
		return a.gw.Get(ctx, fmt.Sprintf("/reviews/product/%d", productID), &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) CreateReview(ctx context.Context, input ReviewInput) (*Review, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Review
	if err := a.gw.Post(ctx, "/reviews/", input, &out); err != nil {
		return nil, err
	}
	a.reviewsChanged(ctx, input.ProductID)
	return &out, nil
}

func (a *API) UpdateReview(ctx context.Context, reviewID int64, input ReviewInput) (*Review, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var out Review
	if err := a.gw.Put(ctx, fmt.Sprintf("/reviews/%d", reviewID), input, &out); err != nil {
		return nil, err
	}
	a.reviewsChanged(ctx, input.ProductID)
	return &out, nil
}

func (a *API) DeleteReview(ctx context.Context, reviewID int64) error {
	var out Review
	if err := a.gw.Delete(ctx, fmt.Sprintf("/reviews/%d", reviewID), &out); err != nil {
		return err
	}
	if out.ProductID != 0 {
		a.reviewsChanged(ctx, out.ProductID)
	}
	return nil
}

// reviewsChanged drops the product's review list and the product itself, whose average rating moved.
func (a *API) reviewsChanged(ctx context.Context, productID int64) {
	if a.cache == nil {
		return
	}
	keys := []string{
		a.cache.CatalogKey(resourceReviews, id(productID)),
		a.cache.CatalogKey(resourceProducts),
		a.cache.CatalogKey(resourceProducts, id(productID)),
	}
	if err := a.cache.Del(ctx, keys...); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "catalog cache invalidation failed")
	}
}

func duplicateName(err error, message string) error {
	if pkgerrors.Status(err) == http.StatusBadRequest {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message).WithStatus(http.StatusBadRequest)
	}
	return err
}
