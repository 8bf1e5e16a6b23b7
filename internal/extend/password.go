package extend

import (
	"context"

	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

const modifyPasswordOperation = "modify_password"

// PasswordModifyOptions are the RFC 3062 request fields. Every field is
// optional: an empty User targets the bound identity, an empty OldPassword is
// left out of the request and an empty NewPassword asks the server to
// generate one.
type PasswordModifyOptions struct {
	User        string
	OldPassword string
	NewPassword string

	// HashAlgorithm hashes NewPassword on the client before it is sent.
	HashAlgorithm HashAlgorithm
	// Salt for salted schemes; nil means random.
	Salt []byte
}

// PasswordModifyOperation is the RFC 3062 Password Modify extended operation.
type PasswordModifyOperation struct {
	session ldapclient.Session
	opts    PasswordModifyOptions
}

var _ Operation[*ldap.PasswordModifyResult] = (*PasswordModifyOperation)(nil)

func NewPasswordModifyOperation(session ldapclient.Session, opts PasswordModifyOptions) *PasswordModifyOperation {
	return &PasswordModifyOperation{session: session, opts: opts}
}

// Send returns the server result unmodified; GeneratedPassword is only set
// when no new password was supplied.
func (o *PasswordModifyOperation) Send(ctx context.Context) (*ldap.PasswordModifyResult, error) {
	newPassword := o.opts.NewPassword
	if o.opts.HashAlgorithm != "" && newPassword != "" {
		hashed, err := HashPassword(o.opts.HashAlgorithm, newPassword, o.opts.Salt)
		if err != nil {
			return nil, validationError(modifyPasswordOperation, err)
		}
		newPassword = hashed
	}

	fields := map[string]any{
		"user":           o.opts.User,
		"has_old":        o.opts.OldPassword != "",
		"server_creates": newPassword == "",
		"hash_algorithm": string(o.opts.HashAlgorithm),
	}

	return invoke(ctx, modifyPasswordOperation, fields, func() (*ldap.PasswordModifyResult, error) {
		req := ldap.NewPasswordModifyRequest(o.opts.User, o.opts.OldPassword, newPassword)
		return o.session.PasswordModify(req)
	})
}
