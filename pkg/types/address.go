package types

import "strings"

// Address is a stored delivery address on the user record, also snapshotted onto orders.
type Address struct {
	ID         int64  `json:"id,omitempty"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
}

// Snapshot returns the address without its record id, as embedded into an order payload.
func (a Address) Snapshot() Address {
	a.ID = 0
	return a
}

// Complete reports whether every delivery-relevant field is populated.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Address) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.Phone) != ""
}
