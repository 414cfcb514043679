// Package identity resolves and authorizes the two principals allowed to use
// the voucher service. Authentication itself happens upstream: a trusted
// identity-aware proxy injects the caller's email and display name as request
// headers, and this package only reads them.
package identity

import (
	"net/http"
	"strings"

	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
)

// Header names injected by the upstream access proxy.
const (
	emailHeader = "CF-Access-Authenticated-User-Email"
	nameHeader  = "Cf-Access-Authenticated-User-Name"
)

// Principal is an authenticated identity recognized by the service.
type Principal struct {
	Email string
	// Name is the proxy-supplied display name, when present.
	Name string
}

// DisplayName returns the proxy-supplied name when present, otherwise the
// local part of the principal's email address.
func (p Principal) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if at := strings.Index(p.Email, "@"); at >= 0 {
		return p.Email[:at]
	}
	return p.Email
}

// Allowlist holds the two configured principal emails. It is constructed once
// at startup and passed into the resolver, so business logic never reads the
// process environment directly.
type Allowlist struct {
	first  string
	second string
}

// NewAllowlist validates the two configured emails. Both must be present,
// distinct, and contain a domain separator.
func NewAllowlist(first, second string) (Allowlist, error) {
	first = strings.TrimSpace(first)
	second = strings.TrimSpace(second)

	if first == "" || second == "" {
		return Allowlist{}, platformerrors.New(platformerrors.CodeConfigInvalid, "two allowed user emails must be configured")
	}
	if first == second {
		return Allowlist{}, platformerrors.New(platformerrors.CodeConfigInvalid, "allowed user emails must be distinct")
	}
	if !strings.Contains(first, "@") || !strings.Contains(second, "@") {
		return Allowlist{}, platformerrors.New(platformerrors.CodeConfigInvalid, "allowed users must be email addresses")
	}

	return Allowlist{first: first, second: second}, nil
}

// Contains reports whether the email is one of the two allowed principals.
func (l Allowlist) Contains(email string) bool {
	return email != "" && (email == l.first || email == l.second)
}

// Counterparty returns the other member of the two-party set.
func (l Allowlist) Counterparty(p Principal) (Principal, error) {
	switch p.Email {
	case l.first:
		if l.second == "" || l.second == l.first {
			return Principal{}, platformerrors.New(platformerrors.CodeConfigInvalid, "allowlist is degenerate")
		}
		return Principal{Email: l.second}, nil
	case l.second:
		if l.first == "" {
			return Principal{}, platformerrors.New(platformerrors.CodeConfigInvalid, "allowlist is degenerate")
		}
		return Principal{Email: l.first}, nil
	default:
		return Principal{}, platformerrors.New(platformerrors.CodeConfigInvalid, "principal is not a member of the allowlist")
	}
}

// Resolver derives the authenticated principal from proxy headers and checks
// membership against the configured allowlist.
type Resolver struct {
	allowlist Allowlist
}

// NewResolver builds a resolver bound to the configured allowlist.
func NewResolver(allowlist Allowlist) *Resolver {
	return &Resolver{allowlist: allowlist}
}

// Allowlist returns the configured two-party allowlist.
func (r *Resolver) Allowlist() Allowlist {
	return r.allowlist
}

// Resolve reads the caller identity from the proxy-injected headers. A missing
// email header means the request never passed the access proxy.
func (r *Resolver) Resolve(req *http.Request) (Principal, error) {
	if req == nil {
		return Principal{}, platformerrors.New(platformerrors.CodeUnauthenticated, "authentication required")
	}

	email := strings.TrimSpace(req.Header.Get(emailHeader))
	if email == "" {
		return Principal{}, platformerrors.New(platformerrors.CodeUnauthenticated, "authentication required")
	}

	return Principal{
		Email: email,
		Name:  strings.TrimSpace(req.Header.Get(nameHeader)),
	}, nil
}

// Authorize fails unless the principal is one of the two allowed users.
func (r *Resolver) Authorize(p Principal) error {
	if !r.allowlist.Contains(p.Email) {
		return platformerrors.New(platformerrors.CodeUnauthorized, "user not authorized")
	}
	return nil
}

// ResolveAndAuthorize combines Resolve and Authorize for request handlers.
func (r *Resolver) ResolveAndAuthorize(req *http.Request) (Principal, error) {
	p, err := r.Resolve(req)
	if err != nil {
		return Principal{}, err
	}
	if err := r.Authorize(p); err != nil {
		return Principal{}, err
	}
	return p, nil
}
