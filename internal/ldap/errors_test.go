package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLDAPError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCode     uint16
		wantCategory ErrorCategory
		wantServer   string
	}{
		{
			name:         "invalid credentials",
			err:          ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("80090308: AcceptSecurityContext error")),
			wantCode:     ldap.LDAPResultInvalidCredentials,
			wantCategory: ErrorCategoryAuthentication,
			wantServer:   "80090308: AcceptSecurityContext error",
		},
		{
			name:         "no such object",
			err:          ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object")),
			wantCode:     ldap.LDAPResultNoSuchObject,
			wantCategory: ErrorCategoryNotFound,
			wantServer:   "no such object",
		},
		{
			name:         "unavailable critical extension",
			err:          ldap.NewError(ldap.LDAPResultUnavailableCriticalExtension, errors.New("paging not supported")),
			wantCode:     ldap.LDAPResultUnavailableCriticalExtension,
			wantCategory: ErrorCategoryServer,
			wantServer:   "paging not supported",
		},
		{
			name:         "wrapped ldap error",
			err:          fmt.Errorf("round 2: %w", ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("access denied"))),
			wantCode:     ldap.LDAPResultInsufficientAccessRights,
			wantCategory: ErrorCategoryPermission,
			wantServer:   "access denied",
		},
		{
			name:         "generic connection error",
			err:          errors.New("connection refused"),
			wantCategory: ErrorCategoryConnection,
		},
		{
			name:         "typed connection error",
			err:          NewConnectionError("dial", nil),
			wantCategory: ErrorCategoryConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLDAPError("search", tt.err)
			require.NotNil(t, got)

			assert.Equal(t, "search", got.Operation)
			assert.Equal(t, tt.wantCode, got.LDAPCode)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantServer, got.ServerMsg)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, NewLDAPError("search", nil))
}

func TestNewLDAPError_MatchedDN(t *testing.T) {
	resultErr := ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing"))
	resultErr.(*ldap.Error).MatchedDN = "dc=example,dc=com"

	got := NewLDAPError("search", resultErr)
	assert.Equal(t, "dc=example,dc=com", got.DN)
}

func TestLDAPError_Error(t *testing.T) {
	tests := []struct {
		name    string
		ldapErr *LDAPError
		want    string
	}{
		{
			name: "message only",
			ldapErr: &LDAPError{
				Operation: "search",
				Message:   "operation failed",
			},
			want: "LDAP search failed - operation failed",
		},
		{
			name: "code and server message",
			ldapErr: &LDAPError{
				Operation: "bind",
				LDAPCode:  ldap.LDAPResultInvalidCredentials,
				Message:   "Invalid Credentials",
				ServerMsg: "bad password",
			},
			want: "LDAP bind failed (code 49) - Invalid Credentials - server: bad password",
		},
		{
			name: "duplicate server message is suppressed",
			ldapErr: &LDAPError{
				Operation: "modify",
				Message:   "same",
				ServerMsg: "same",
			},
			want: "LDAP modify failed - same",
		},
		{
			name: "dn and page",
			ldapErr: &LDAPError{
				Operation: "paged_search",
				LDAPCode:  ldap.LDAPResultUnwillingToPerform,
				Message:   "Unwilling To Perform",
				DN:        "ou=people,dc=example,dc=com",
				Page:      3,
			},
			want: "LDAP paged_search failed (code 53) - Unwilling To Perform - DN: ou=people,dc=example,dc=com - page: 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ldapErr.Error())
		})
	}
}

func TestNewValidationError(t *testing.T) {
	cause := errors.New("page size must be positive")
	err := NewValidationError("paged_search", cause)

	assert.Equal(t, ErrorCategoryValidation, err.Category)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "LDAP paged_search failed - page size must be positive", err.Error())
}

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, WrapError("search", nil))
	})

	t.Run("wraps raw error", func(t *testing.T) {
		raw := ldap.NewError(ldap.LDAPResultBusy, errors.New("busy"))
		err := WrapError("extended", raw)

		var ldapErr *LDAPError
		require.ErrorAs(t, err, &ldapErr)
		assert.Equal(t, "extended", ldapErr.Operation)
		assert.Equal(t, ErrorCategoryServer, ldapErr.Category)
	})

	t.Run("keeps existing operation", func(t *testing.T) {
		inner := &LDAPError{Operation: "paged_search", Category: ErrorCategoryServer}
		err := WrapError("search", inner)

		assert.Same(t, inner, err)
		assert.Equal(t, "paged_search", inner.Operation)
	})

	t.Run("fills empty operation", func(t *testing.T) {
		inner := &LDAPError{Category: ErrorCategoryServer}
		_ = WrapError("search", inner)
		assert.Equal(t, "search", inner.Operation)
	})
}

func TestErrorPredicates(t *testing.T) {
	notFound := ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("x"))
	denied := ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("x"))
	badCreds := ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("x"))
	critical := ldap.NewError(ldap.LDAPResultUnavailableCriticalExtension, errors.New("x"))

	assert.True(t, IsNotFoundError(notFound))
	assert.True(t, IsNotFoundError(WrapError("search", notFound)))
	assert.False(t, IsNotFoundError(denied))

	assert.True(t, IsPermissionError(denied))
	assert.True(t, IsAuthenticationError(badCreds))

	assert.True(t, IsUnavailableCriticalExtension(critical))
	assert.True(t, IsUnavailableCriticalExtension(WrapError("paged_search", critical)))
	assert.False(t, IsUnavailableCriticalExtension(notFound))

	assert.Equal(t, ErrorCategoryUnknown, GetErrorCategory(nil))
	assert.Equal(t, ErrorCategoryPermission, GetErrorCategory(errors.New("access denied")))
}

func TestGetLDAPCodeMessage(t *testing.T) {
	assert.Equal(t, ldap.LDAPResultCodeMap[ldap.LDAPResultNoSuchObject], getLDAPCodeMessage(ldap.LDAPResultNoSuchObject))
	assert.Equal(t, "Unknown LDAP error (code 4242)", getLDAPCodeMessage(4242))
}
