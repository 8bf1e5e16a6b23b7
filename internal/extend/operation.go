package extend

import (
	"context"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

const logSubsystem = "extend"

// Operation is one request/response exchange with the directory. Values are
// built by a constructor that takes the session and the operation parameters;
// Send performs the exchange and returns the decoded result.
type Operation[T any] interface {
	Send(ctx context.Context) (T, error)
}

// invoke runs fn with operation logging and wraps its error in an
// *ldapclient.LDAPError named after the operation.
func invoke[T any](ctx context.Context, name string, fields map[string]any, fn func() (T, error)) (T, error) {
	var result T

	err := ldapclient.LogOperation(ctx, logSubsystem, name, fields, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		result, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, ldapclient.WrapError(name, err)
	}

	return result, nil
}
