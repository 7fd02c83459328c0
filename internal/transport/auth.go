package transport

import (
	"net/http"
)

// Authenticator applies a service's credentials to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request, secret string)
}

// NoAuth leaves requests untouched. The PIM authenticates inside the
// JSON-RPC params, so its requests carry no credential header.
type NoAuth struct{}

// Apply implements Authenticator.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// HeaderAuth sends the secret verbatim in one header.
type HeaderAuth struct {
	Header string
}

// Apply implements Authenticator. An empty secret sends no header.
func (a *HeaderAuth) Apply(req *http.Request, secret string) {
	if secret == "" {
		return
	}
	req.Header.Set(a.Header, secret)
}

// ShopifyAuth returns the Admin API access token authenticator.
func ShopifyAuth() Authenticator {
	return &HeaderAuth{Header: "X-Shopify-Access-Token"}
}
