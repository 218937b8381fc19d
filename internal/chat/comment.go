package chat

import (
	"strings"
	"time"
)

// Comment is one message in an order's thread.
type Comment struct {
	ID           int64      `json:"id"`
	OrderID      int64      `json:"order_id"`
	UserID       int64      `json:"user_id"`
	Comment      string     `json:"comment"`
	UserEmail    string     `json:"user_email"`
	UserFullName *string    `json:"user_full_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Author returns the name shown above the comment.
func (c Comment) Author() string {
	if c.UserFullName != nil && strings.TrimSpace(*c.UserFullName) != "" {
		return *c.UserFullName
	}
	return c.UserEmail
}

// Role is how a comment's author is labeled relative to the viewer.
type Role string

const (
	RoleSelf          Role = "self"
	RoleCustomer      Role = "customer"
	RoleAdministrator Role = "administrator"
)

// Attribution is the rendered author of a comment.
type Attribution struct {
	Role Role
	Name string
}

type createRequest struct {
	OrderID int64  `json:"order_id"`
	Comment string `json:"comment"`
}
