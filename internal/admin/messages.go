package admin

import pkgerrors "github.com/gardenseed/storefront/pkg/errors"

// failureMessage prefers the message of conflicts and validation errors, which tell the admin what to
// fix, over the generic failure text.
func failureMessage(generic string, err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return generic
	}
	switch typed.Code() {
	case pkgerrors.CodeConflict, pkgerrors.CodeValidation:
		if typed.Message() != "" {
			return typed.Message()
		}
	}
	return generic
}
