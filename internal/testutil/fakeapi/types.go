package fakeapi

import "time"

// Wire shapes served by the fake backend. They mirror the REST API's JSON rather than the client types.

type Address struct {
	ID         int64  `json:"id"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	Verified    bool      `json:"verified"`
	Theme       string    `json:"theme"`
	UserUID     string    `json:"user_uid"`
	Addresses   []Address `json:"addresses"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Price          float64       `json:"price"`
	CategoryID     int64         `json:"category_id"`
	ManufacturerID int64         `json:"manufacturer_id"`
	ImageURL       string        `json:"image_url"`
	InStock        bool          `json:"in_stock"`
	AverageRating  float64       `json:"average_rating"`
	Manufacturer   *Manufacturer `json:"manufacturer,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Manufacturer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Country     string `json:"country"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type CartProduct struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

type CartItem struct {
	ID        int64       `json:"id"`
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Product   CartProduct `json:"product"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderUser struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	TotalAmount     float64     `json:"total_amount"`
	Status          string      `json:"status"`
	OrderItems      []OrderItem `json:"order_items"`
	DeliveryAddress *Address    `json:"delivery_address"`
	User            *OrderUser  `json:"user,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

type Comment struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	UserID       int64     `json:"user_id"`
	Comment      string    `json:"comment"`
	UserEmail    string    `json:"user_email"`
	UserFullName *string   `json:"user_full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Request is one call observed by the fake.
type Request struct {
	Method         string
	Path           string
	Authorization  string
	IdempotencyKey string
	Body           []byte
}
