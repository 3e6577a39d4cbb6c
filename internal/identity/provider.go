// Package identity owns account records: credentials, flags, and the
// custom-claims blob mirrored into the dashboard roster. It is the only
// component allowed to create or destroy accounts.
package identity

import (
	"context"
	"errors"
	"time"
)

// Common provider errors.
var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("email already in use")
	ErrUIDExists          = errors.New("uid already in use")
	ErrInvalidUID         = errors.New("invalid uid")
	ErrMissingPassword    = errors.New("password is required")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// MaxPageSize is the largest account page a single listing call returns.
// Requests above it are clamped, mirroring the upstream admin SDK limit.
const MaxPageSize = 1000

// Account is an identity-provider-owned credential and claims record.
type Account struct {
	UID           string
	Email         string
	Disabled      bool
	EmailVerified bool
	CreatedAt     time.Time
	LastSignInAt  *time.Time
	// CustomClaims is arbitrary profile metadata (role, name parts,
	// section, curriculum). SetCustomClaims replaces it wholesale.
	CustomClaims map[string]interface{}
}

// CreateAccountParams are the inputs for CreateAccount. UID is optional;
// a random one is assigned when empty.
type CreateAccountParams struct {
	UID      string
	Email    string
	Password string
}

// UpdateAccountParams carries optional account field updates. Nil fields
// are left untouched.
type UpdateAccountParams struct {
	Password      *string
	Disabled      *bool
	EmailVerified *bool
}

// AccountPage is one page of a full account listing. NextPageToken is
// empty on the final page.
type AccountPage struct {
	Accounts      []Account
	NextPageToken string
}

// Provider is the account backend contract. All mutating calls hit
// persistent state directly; there is no cross-call transaction, so a
// crash between CreateAccount and SetCustomClaims leaves an account with
// empty claims. Callers treat the claims step as independently retryable.
type Provider interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	GetAccount(ctx context.Context, uid string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, uid string, params UpdateAccountParams) (*Account, error)
	// SetCustomClaims replaces the full claims object. Callers must merge
	// with existing claims themselves.
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
	DeleteAccount(ctx context.Context, uid string) error
	ListAccountsPage(ctx context.Context, pageSize int, pageToken string) (*AccountPage, error)
	GeneratePasswordResetLink(ctx context.Context, email string) (string, error)
	VerifyPassword(ctx context.Context, email, password string) (*Account, error)
	RecordSignIn(ctx context.Context, uid string) error
}

// ClaimString reads a string claim, returning "" for absent or non-string
// values (including explicit nulls).
func ClaimString(claims map[string]interface{}, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Role returns the account's role claim, or "" when unset.
func (a *Account) Role() string {
	return ClaimString(a.CustomClaims, "role")
}
