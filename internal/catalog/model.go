package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Manufacturer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Country     string `json:"country,omitempty"`
}

type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"image_url,omitempty"`
	CategoryID     int64           `json:"category_id,omitempty"`
	ManufacturerID int64           `json:"manufacturer_id,omitempty"`
	AverageRating  float64         `json:"average_rating"`
	InStock        bool            `json:"in_stock"`
	Category       *Category       `json:"category,omitempty"`
	Manufacturer   *Manufacturer   `json:"manufacturer,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductInput is the admin product form.
type ProductInput struct {
	Name           string          `json:"name" validate:"notblank"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"image_url,omitempty" validate:"omitempty,url"`
	CategoryID     int64           `json:"category_id,omitempty"`
	ManufacturerID int64           `json:"manufacturer_id,omitempty"`
	InStock        bool            `json:"in_stock"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description,omitempty"`
}

type ManufacturerInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description,omitempty"`
	Country     string `json:"country,omitempty"`
}

type ReviewInput struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment,omitempty"`
}
