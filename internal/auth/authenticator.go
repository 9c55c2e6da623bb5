package auth

import (
	"context"

	"github.com/owwnwrrght/ledgex/internal/models"
)

// Authenticator is the credential backend behind the auth service. The
// only implementation today is password+bcrypt; the interface keeps the
// service layer ignorant of the credential format.
type Authenticator interface {
	// Register creates an account. Fails if the email is taken or the
	// credential does not pass ValidateCredential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential for the account with this
	// email and returns the account on success.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential against the backend's
	// strength rules without touching any account.
	ValidateCredential(credential string) error
}
