package driven

import (
	"context"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// TokenExchanger defines the driven port for the identity provider's
// client-credentials token exchange. Implementations perform one exchange per
// call; caching and single-flight coalescing live in the application layer.
type TokenExchanger interface {
	// Exchange performs a client-credentials grant and returns the issued
	// credential with its computed expiry. Failures are returned as
	// *model.CredentialError.
	Exchange(ctx context.Context) (model.Credential, error)
}
