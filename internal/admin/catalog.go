package admin

import (
	"context"

	"github.com/gardenseed/storefront/internal/catalog"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/pkg/logger"
)

// CategoryBoard is the admin category list.
type CategoryBoard struct {
	api  *catalog.API
	list *collection[catalog.Category]
}

func NewCategoryBoard(api *catalog.API, notifier notify.Notifier, logg *logger.Logger) *CategoryBoard {
	return &CategoryBoard{
		api:  api,
		list: newCollection("categories", func(c catalog.Category) int64 { return c.ID }, notifier, logg),
	}
}

func (b *CategoryBoard) Load(ctx context.Context) error {
	return b.list.load(ctx, b.api.Categories)
}

func (b *CategoryBoard) Create(ctx context.Context, input catalog.CategoryInput) (*catalog.Category, error) {
	var created *catalog.Category
	err := b.list.run(ctx, "Failed to create category", "Category created", func() error {
		var err error
		created, err = b.api.CreateCategory(ctx, input)
		return err
	}, func(items []catalog.Category) []catalog.Category {
		return append(items, *created)
	})
	return created, err
}

func (b *CategoryBoard) Update(ctx context.Context, id int64, input catalog.CategoryInput) error {
	var updated *catalog.Category
	return b.list.run(ctx, "Failed to update category", "Category updated", func() error {
		var err error
		updated, err = b.api.UpdateCategory(ctx, id, input)
		return err
	}, func(items []catalog.Category) []catalog.Category {
		return b.list.replaceItem(*updated)(items)
	})
}

func (b *CategoryBoard) Delete(ctx context.Context, id int64) error {
	return b.list.run(ctx, "Failed to delete category", "Category deleted", func() error {
		return b.api.DeleteCategory(ctx, id)
	}, b.list.removeID(id))
}

func (b *CategoryBoard) Categories() []catalog.Category { return b.list.snapshot() }
func (b *CategoryBoard) Loading() bool                  { return b.list.loading() }
func (b *CategoryBoard) Err() string                    { return b.list.err() }

// ManufacturerBoard is the admin manufacturer list.
type ManufacturerBoard struct {
	api  *catalog.API
	list *collection[catalog.Manufacturer]
}

func NewManufacturerBoard(api *catalog.API, notifier notify.Notifier, logg *logger.Logger) *ManufacturerBoard {
	return &ManufacturerBoard{
		api:  api,
		list: newCollection("manufacturers", func(m catalog.Manufacturer) int64 { return m.ID }, notifier, logg),
	}
}

func (b *ManufacturerBoard) Load(ctx context.Context) error {
	return b.list.load(ctx, b.api.Manufacturers)
}

func (b *ManufacturerBoard) Create(ctx context.Context, input catalog.ManufacturerInput) (*catalog.Manufacturer, error) {
	var created *catalog.Manufacturer
	err := b.list.run(ctx, "Failed to create manufacturer", "Manufacturer created", func() error {
		var err error
		created, err = b.api.CreateManufacturer(ctx, input)
		return err
	}, func(items []catalog.Manufacturer) []catalog.Manufacturer {
		return append(items, *created)
	})
	return created, err
}

func (b *ManufacturerBoard) Update(ctx context.Context, id int64, input catalog.ManufacturerInput) error {
	var updated *catalog.Manufacturer
	return b.list.run(ctx, "Failed to update manufacturer", "Manufacturer updated", func() error {
		var err error
		updated, err = b.api.UpdateManufacturer(ctx, id, input)
		return err
	}, func(items []catalog.Manufacturer) []catalog.Manufacturer {
		return b.list.replaceItem(*updated)(items)
	})
}

func (b *ManufacturerBoard) Delete(ctx context.Context, id int64) error {
	return b.list.run(ctx, "Failed to delete manufacturer", "Manufacturer deleted", func() error {
		return b.api.DeleteManufacturer(ctx, id)
	}, b.list.removeID(id))
}

func (b *ManufacturerBoard) Manufacturers() []catalog.Manufacturer { return b.list.snapshot() }
func (b *ManufacturerBoard) Loading() bool                         { return b.list.loading() }
func (b *ManufacturerBoard) Err() string                           { return b.list.err() }

// ProductBoard is the admin product list.
type ProductBoard struct {
	api  *catalog.API
	list *collection[catalog.Product]
}

func NewProductBoard(api *catalog.API, notifier notify.Notifier, logg *logger.Logger) *ProductBoard {
	return &ProductBoard{
		api:  api,
		list: newCollection("products", func(p catalog.Product) int64 { return p.ID }, notifier, logg),
	}
}

func (b *ProductBoard) Load(ctx context.Context) error {
	return b.list.load(ctx, b.api.Products)
}

func (b *ProductBoard) Create(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	var created *catalog.Product
	err := b.list.run(ctx, "Failed to create product", "Product created", func() error {
		var err error
		created, err = b.api.CreateProduct(ctx, input)
		return err
	}, func(items []catalog.Product) []catalog.Product {
		return append(items, *created)
	})
	return created, err
}

func (b *ProductBoard) Update(ctx context.Context, id int64, input catalog.ProductInput) error {
	var updated *catalog.Product
	return b.list.run(ctx, "Failed to update product", "Product updated", func() error {
		var err error
		updated, err = b.api.UpdateProduct(ctx, id, input)
		return err
	}, func(items []catalog.Product) []catalog.Product {
		return b.list.replaceItem(*updated)(items)
	})
}

func (b *ProductBoard) Delete(ctx context.Context, id int64) error {
	return b.list.run(ctx, "Failed to delete product", "Product deleted", func() error {
		return b.api.DeleteProduct(ctx, id)
	}, b.list.removeID(id))
}

func (b *ProductBoard) Products() []catalog.Product { return b.list.snapshot() }

func (b *ProductBoard) Find(id int64) (catalog.Product, bool) { return b.list.find(id) }

func (b *ProductBoard) Loading() bool { return b.list.loading() }
func (b *ProductBoard) Err() string   { return b.list.err() }
