package users

import (
	"strings"
	"time"

	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/types"
)

// User is the backend record joined to an identity-provider principal.
type User struct {
	ID          int64           `json:"id"`
	Email       string          `json:"email"`
	FullName    *string         `json:"full_name,omitempty"`
	IsActive    bool            `json:"is_active"`
	IsSuperuser bool            `json:"is_superuser"`
	Verified    bool            `json:"verified"`
	Theme       enums.Theme     `json:"theme"`
	UserUID     string          `json:"user_uid"`
	Addresses   []types.Address `json:"addresses"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// DisplayName is the full name when set, otherwise the email.
func (u User) DisplayName() string {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) != "" {
		return *u.FullName
	}
	return u.Email
}

// PrimaryAddress returns the first stored delivery address.
func (u User) PrimaryAddress() (types.Address, bool) {
	if len(u.Addresses) == 0 {
		return types.Address{}, false
	}
	return u.Addresses[0], true
}

// Clone returns a deep copy safe to hand out of a store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.FullName != nil {
		name := *u.FullName
		out.FullName = &name
	}
	out.Addresses = append([]types.Address(nil), u.Addresses...)
	return &out
}

// Patch is a partial update merged into the current user after a profile edit.
type Patch struct {
	FullName  *string
	Verified  *bool
	Theme     *enums.Theme
	Addresses []types.Address
}

// Apply merges the non-nil fields of p into u.
func (u *User) Apply(p Patch) {
	if u == nil {
		return
	}
	if p.FullName != nil {
		name := *p.FullName
		u.FullName = &name
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	if p.Theme != nil {
		u.Theme = *p.Theme
	}
	if p.Addresses != nil {
		u.Addresses = append([]types.Address(nil), p.Addresses...)
	}
}

// CreateInput is the backend record created during registration.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	UserUID  string `json:"user_uid" validate:"required"`
	Theme    string `json:"theme"`
}

// ProfileInput is the profile form. A complete profile marks the user verified on the backend.
type ProfileInput struct {
	Surname    string `json:"surname" validate:"notblank"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"notblank"`
	City       string `json:"city" validate:"notblank"`
	PostalCode string `json:"postal_code" validate:"required,len=6,numeric"`
}
