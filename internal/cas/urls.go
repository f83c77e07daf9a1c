// Package cas implements the client side of the CAS single-sign-on
// protocol: endpoint URL construction, ticket validation against a CAS
// server, and parsing of the version 1, 2 and 3 validation response
// formats into a normalized result.
package cas

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is a single query parameter. A nil Value marks the parameter as
// absent; absent parameters are dropped before encoding, so they never
// appear as "key=" in the final URL.
type Param struct {
	Key   string
	Value *string
}

// CreateURL combines base, a list of path segments and a list of query
// parameters into one absolute URL. Path segments are joined with exactly
// one slash between them regardless of how each segment is slash-padded,
// empty segments are skipped, and the joined path is resolved against base
// as an RFC 3986 relative reference. The query string keeps the parameters
// in construction order, and the URL always carries a '?', even with zero
// parameters.
func CreateURL(base string, path []string, params ...Param) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	if joined := joinSegments(path); joined != "" {
		ref, err := url.Parse(quotePath(joined))
		if err != nil {
			return "", fmt.Errorf("invalid path %q: %w", joined, err)
		}
		u = u.ResolveReference(ref)
	}

	u.RawQuery = encodeParams(params)
	u.ForceQuery = u.RawQuery == ""
	u.Fragment = ""

	return u.String(), nil
}

// joinSegments drops empty segments and folds the rest together with a
// single '/' between each pair. The leading slash of the first segment and
// the trailing slash of the last are left alone.
func joinSegments(segments []string) string {
	var kept []string
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	joined := kept[0]
	for _, s := range kept[1:] {
		joined = strings.TrimRight(joined, "/") + "/" + strings.TrimLeft(s, "/")
	}
	return joined
}

// encodeParams builds the query string by hand: url.Values.Encode sorts
// keys, and the CAS endpoints are specified with a fixed parameter order.
func encodeParams(params []Param) string {
	var b strings.Builder
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(*p.Value))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// quotePath percent-encodes a path, leaving '/' and RFC 3986 unreserved
// characters intact.
func quotePath(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// Endpoint identifies a CAS server and the mount point of its protocol
// routes. It is configured once and shared read-only afterwards.
type Endpoint struct {
	ServerURL   string
	RoutePrefix string
}

// LoginOptions carries the optional parameters of the login endpoint.
// Nil fields are omitted from the URL.
type LoginOptions struct {
	Renew   *string
	Gateway *string
	Method  *string
}

// ValidateOptions carries the optional parameters of the serviceValidate
// and proxyValidate endpoints.
type ValidateOptions struct {
	PGTURL *string
	Renew  *string
}

// LoginURL builds the URL the user is redirected to in order to
// authenticate against the CAS server.
func (e Endpoint) LoginURL(service string, opts LoginOptions) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "login"},
		Param{"service", &service},
		Param{"renew", opts.Renew},
		Param{"gateway", opts.Gateway},
		Param{"method", opts.Method},
	)
}

// LogoutURL builds the URL that ends the user's single-sign-on session.
// The name of the return-URL parameter depends on the protocol version.
func (e Endpoint) LogoutURL(version Version, returnURL *string) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "logout"},
		Param{version.LogoutParam(), returnURL},
	)
}

// ValidateURL builds the CAS 1.0 ticket validation URL.
func (e Endpoint) ValidateURL(service, ticket string, renew *string) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "validate"},
		Param{"service", &service},
		Param{"ticket", &ticket},
		Param{"renew", renew},
	)
}

// ServiceValidateURL builds the CAS 2.0/3.0 ticket validation URL.
func (e Endpoint) ServiceValidateURL(service, ticket string, opts ValidateOptions) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "serviceValidate"},
		Param{"service", &service},
		Param{"ticket", &ticket},
		Param{"pgtUrl", opts.PGTURL},
		Param{"renew", opts.Renew},
	)
}

// ProxyValidateURL builds the validation URL that additionally accepts
// proxy tickets.
func (e Endpoint) ProxyValidateURL(service, ticket string, opts ValidateOptions) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "proxyValidate"},
		Param{"service", &service},
		Param{"ticket", &ticket},
		Param{"pgtUrl", opts.PGTURL},
		Param{"renew", opts.Renew},
	)
}

// ProxyURL builds the URL a holder of a proxy-granting ticket uses to
// obtain a proxy ticket for a back-end service.
func (e Endpoint) ProxyURL(pgt, targetService string) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "proxy"},
		Param{"pgt", &pgt},
		Param{"targetService", &targetService},
	)
}

// SAMLValidateURL builds the SAML 1.1 validation endpoint URL. Only the
// URL is constructed here; the SAML response format is not parsed by this
// package.
func (e Endpoint) SAMLValidateURL(target string) (string, error) {
	return CreateURL(e.ServerURL, []string{e.RoutePrefix, "samIValidate"},
		Param{"target", &target},
	)
}
