package extend

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Configuration errors. They are returned wrapped in an
// *ldapclient.LDAPError with ErrorCategoryValidation, before any request is
// sent.
var (
	ErrNilRequest      = errors.New("request must not be nil")
	ErrInvalidPageSize = errors.New("page size must be a positive integer")
	ErrMissingSyncBase = errors.New("sync base must not be empty")
	ErrUnsupportedHash = errors.New("unsupported password hash algorithm")
	ErrMissingDN       = errors.New("distinguished name must not be empty")
)

// ErrCursorExhausted is returned by a paged search or DirSync cursor that has
// finished, failed, or been abandoned. Cursors are never restarted.
var ErrCursorExhausted = errors.New("cursor is exhausted")

// Protocol errors detected while decoding a server response.
var (
	ErrMissingResponseValue  = errors.New("extended response carries no value")
	ErrUnexpectedResponse    = errors.New("unexpected extended response")
	ErrMissingDirSyncControl = errors.New("search response carries no DirSync control")
)

func validationError(operation string, err error) error {
	return ldapclient.NewValidationError(operation, err)
}

// protocolError reports a response the server should never have sent.
func protocolError(operation string, err error) error {
	return &ldapclient.LDAPError{
		Operation: operation,
		Category:  ldapclient.ErrorCategoryServer,
		LDAPCode:  ldap.LDAPResultProtocolError,
		Message:   err.Error(),
		Cause:     err,
	}
}

// NMASError is a non-zero status returned by a Novell NMAS operation. NMAS
// codes are negative and live outside the LDAP result code space.
type NMASError struct {
	Code int64
}

func (e *NMASError) Error() string {
	return fmt.Sprintf("NMAS error %d", e.Code)
}

func nmasError(operation string, code int64) error {
	err := &NMASError{Code: code}
	return &ldapclient.LDAPError{
		Operation: operation,
		Category:  ldapclient.ErrorCategoryServer,
		Message:   err.Error(),
		Cause:     err,
	}
}
