// Package oauth implements the TokenExchanger port against Azure AD using
// the OAuth2 client-credentials flow.
package oauth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// fallbackLifetime is assumed when the provider omits an expiry from the
// token response. AAD always sends one in practice.
const fallbackLifetime = time.Hour

// Exchanger performs client-credentials token exchanges against the tenant's
// Azure AD token endpoint, requesting the data service's .default scope.
type Exchanger struct {
	conf       *clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewExchanger creates an Exchanger for the given tenant and application
// credentials. resourceURL is the data service environment the token must
// grant access to.
func NewExchanger(tenantID, clientID, clientSecret, resourceURL string) *Exchanger {
	return &Exchanger{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     microsoft.AzureADEndpoint(tenantID).TokenURL,
			Scopes:       []string{strings.TrimRight(resourceURL, "/") + "/.default"},
		},
		now: time.Now,
	}
}

// NewExchangerWithTokenURL creates an Exchanger that talks to an explicit
// token endpoint with an explicit http.Client. This constructor is intended
// for testing against an httptest server.
func NewExchangerWithTokenURL(tokenURL, clientID, clientSecret, resourceURL string, httpClient *http.Client) *Exchanger {
	return &Exchanger{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{strings.TrimRight(resourceURL, "/") + "/.default"},
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Exchange performs one client-credentials grant. Any failure, including a
// non-2xx response or a malformed token body, is returned as a
// *model.CredentialError.
func (e *Exchanger) Exchange(ctx context.Context) (model.Credential, error) {
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	tok, err := e.conf.Token(ctx)
	if err != nil {
		return model.Credential{}, &model.CredentialError{Err: err}
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = e.now().Add(fallbackLifetime)
	}

	return model.Credential{
		Value:     tok.AccessToken,
		ExpiresAt: expiresAt,
	}, nil
}
