package extend

import (
	"context"
	"slices"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Microsoft groups the Active Directory specific operations.
type Microsoft struct {
	session ldapclient.Session
}

// Operations lists the names of the Active Directory operations.
func (m *Microsoft) Operations() Catalog { return slices.Clone(microsoftCatalog) }

func (m *Microsoft) String() string { return microsoftCatalog.String() }

// DirSync returns a change-tracking cursor for req. No request is sent until
// Loop or Changes is called.
func (m *Microsoft) DirSync(req *DirSyncRequest) (*DirSync, error) {
	return NewDirSync(m.session, req)
}

// ModifyPassword changes user's password when oldPassword is given and
// resets it otherwise.
func (m *Microsoft) ModifyPassword(ctx context.Context, user, newPassword, oldPassword string) (bool, error) {
	return NewADPasswordOperation(m.session, user, newPassword, oldPassword).Send(ctx)
}
