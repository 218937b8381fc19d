package users

import (
	"context"
	"fmt"

	"github.com/gardenseed/storefront/internal/gateway"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/validators"
)

// API wraps the /users endpoints.
type API struct {
	gw *gateway.Client
}

func NewAPI(gw *gateway.Client) *API {
	return &API{gw: gw}
}

// Me fetches the record of the caller identified by the bearer token.
func (a *API) Me(ctx context.Context) (*User, error) {
	var user User
	if err := a.gw.Get(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Create(ctx context.Context, input CreateInput) (*User, error) {
	if input.Theme == "" {
		input.Theme = enums.ThemeLight.String()
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var user User
	if err := a.gw.Post(ctx, "/users/", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := a.gw.Get(ctx, "/users/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive blocks (active=false) or unblocks a user.
func (a *API) SetActive(ctx context.Context, userID int64, active bool) (*User, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var user User
	body := map[string]bool{"is_active": active}
	if err := a.gw.Put(ctx, fmt.Sprintf("/users/%d/block", userID), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) UpdateProfile(ctx context.Context, input ProfileInput) (*User, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var user User
	if err := a.gw.Put(ctx, "/users/profile", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) UpdateTheme(ctx context.Context, theme enums.Theme) (*User, error) {
	if !theme.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid theme %q", theme))
	}
	var user User
	if err := a.gw.Put(ctx, "/users/me", map[string]string{"theme": theme.String()}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
