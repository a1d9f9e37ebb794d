package auth

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateEmail       = errors.New("email already in use")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrIncorrectPassword    = errors.New("current password is incorrect")
	ErrInvalidRole          = errors.New("invalid role")
	ErrNoUsersSelected      = errors.New("no users selected")
	ErrEmptyUpdate          = errors.New("nothing to update")
	ErrTokenInvalid         = errors.New("invalid or expired token")
	ErrEmailDispatch        = errors.New("failed to dispatch verification email")
	ErrPersistence          = errors.New("persistence failure")
)

// Messages shown to users. Anything not listed here is reported with the
// generic fallback of the flow that failed.
var messages = []struct {
	err error
	msg string
}{
	{ErrDuplicateEmail, "Email already in use"},
	{ErrUserNotFound, "User not found"},
	{ErrInvalidCredentials, "Invalid email or password"},
	{ErrEmailNotVerified, "Email not verified. A new verification code has been sent to your email."},
	{ErrInvalidOrExpiredCode, "Invalid or expired verification code"},
	{ErrIncorrectPassword, "Old password is incorrect"},
	{ErrInvalidRole, "Role must be user or admin"},
	{ErrNoUsersSelected, "No users selected"},
	{ErrEmptyUpdate, "Nothing to update, set role or emailVerified"},
}

const (
	msgSignUpFailed   = "Failed to create account"
	msgSignInFailed   = "Failed to sign in"
	msgVerifyFailed   = "Failed to verify email"
	msgResendFailed   = "Failed to resend verification code"
	msgPasswordFailed = "An error occurred while changing password"
	msgDeleteFailed   = "Failed to delete account"
	msgRoleFailed     = "Failed to change user role"
	msgUserDelFailed  = "Failed to delete user"
	msgBulkFailed     = "Failed to bulk update users"
)

// Message returns the user facing text for err, internal details never
// leave through it
func Message(err error, fallback string) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	return fallback
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func fail(err error, fallback string) (Result, error) {
	return Result{Error: Message(err, fallback)}, err
}
