package session

import (
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/identity"
)

// MessageAccountBlocked is shown when the backend reports the account inactive.
const MessageAccountBlocked = "your account is blocked"

var identityMessages = map[string]string{
	identity.CodeEmailInUse:    "This email is already registered",
	identity.CodeInvalidEmail:  "Invalid email format",
	identity.CodeWeakPassword:  "Password is too weak",
	identity.CodeUserNotFound:  "User not found",
	identity.CodeWrongPassword: "Wrong password",
}

// Message turns an authentication failure into the text shown to the user. Identity-provider codes
// without a mapping fall back to the provider's raw message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if idErr, ok := identity.AsError(err); ok {
		if msg, ok := identityMessages[idErr.Code]; ok {
			return msg
		}
		if idErr.Message != "" {
			return idErr.Message
		}
		return idErr.Code
	}
	if typed := pkgerrors.As(err); typed != nil {
		if typed.Code() == pkgerrors.CodeAccountLocked {
			return MessageAccountBlocked
		}
		if typed.Message() != "" {
			return typed.Message()
		}
		return pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return err.Error()
}
