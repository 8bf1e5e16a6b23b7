package extend

import (
	"context"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// WhoAmIOperation is the RFC 4532 "Who am I?" extended operation.
type WhoAmIOperation struct {
	session ldapclient.Session
}

var _ Operation[*ldapclient.WhoAmIResult] = (*WhoAmIOperation)(nil)

func NewWhoAmIOperation(session ldapclient.Session) *WhoAmIOperation {
	return &WhoAmIOperation{session: session}
}

// Send returns the authorization identity exactly as the server reported it,
// along with the fields parsed from it.
func (o *WhoAmIOperation) Send(ctx context.Context) (*ldapclient.WhoAmIResult, error) {
	return invoke(ctx, "who_am_i", nil, func() (*ldapclient.WhoAmIResult, error) {
		result, err := o.session.WhoAmI(nil)
		if err != nil {
			return nil, err
		}
		return ldapclient.NewWhoAmIResult(result.AuthzID), nil
	})
}
