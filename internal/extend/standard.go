package extend

import (
	"context"
	"iter"
	"slices"

	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Standard groups the RFC-defined operations.
type Standard struct {
	session ldapclient.Session
}

// Operations lists the names of the standard operations.
func (s *Standard) Operations() Catalog { return slices.Clone(standardCatalog) }

func (s *Standard) String() string { return standardCatalog.String() }

// WhoAmI returns the identity the session is bound as.
func (s *Standard) WhoAmI(ctx context.Context) (*ldapclient.WhoAmIResult, error) {
	return NewWhoAmIOperation(s.session).Send(ctx)
}

// ModifyPassword changes or resets a password with RFC 3062.
func (s *Standard) ModifyPassword(ctx context.Context, opts PasswordModifyOptions) (*ldap.PasswordModifyResult, error) {
	return NewPasswordModifyOperation(s.session, opts).Send(ctx)
}

// NewPagedSearch returns a cursor for page-at-a-time consumers.
func (s *Standard) NewPagedSearch(req *PagedSearchRequest) (*PagedSearch, error) {
	return NewPagedSearch(s.session, req)
}

// PagedSearch returns the entries of req as a lazy sequence. Invalid
// requests fail here, before any round trip.
func (s *Standard) PagedSearch(ctx context.Context, req *PagedSearchRequest) (iter.Seq2[*ldap.Entry, error], error) {
	cursor, err := NewPagedSearch(s.session, req)
	if err != nil {
		return nil, err
	}
	return cursor.Entries(ctx), nil
}

// PagedSearchAll collects every entry of req. See PagedSearch.All for the
// partial result contract.
func (s *Standard) PagedSearchAll(ctx context.Context, req *PagedSearchRequest) ([]*ldap.Entry, error) {
	cursor, err := NewPagedSearch(s.session, req)
	if err != nil {
		return nil, err
	}
	return cursor.All(ctx)
}
