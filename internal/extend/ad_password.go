package extend

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"golang.org/x/text/encoding/unicode"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

const adModifyPasswordOperation = "ad_modify_password"

// encodeUnicodePwd renders password as Active Directory expects it in
// unicodePwd: surrounded by double quotes and encoded as UTF-16LE.
func encodeUnicodePwd(password string) (string, error) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := encoder.String(`"` + password + `"`)
	if err != nil {
		return "", fmt.Errorf("failed to encode password: %w", err)
	}
	return encoded, nil
}

// ADPasswordOperation changes or resets an Active Directory password through
// the unicodePwd attribute. With an old password the change is a Delete of
// the old value plus an Add of the new one, which any user may do on their
// own account. Without it the value is replaced, which needs the Reset
// Password right. Either way the server only accepts it over an encrypted
// connection.
type ADPasswordOperation struct {
	session     ldapclient.Session
	user        string
	newPassword string
	oldPassword string
}

var _ Operation[bool] = (*ADPasswordOperation)(nil)

func NewADPasswordOperation(session ldapclient.Session, user, newPassword, oldPassword string) *ADPasswordOperation {
	return &ADPasswordOperation{
		session:     session,
		user:        user,
		newPassword: newPassword,
		oldPassword: oldPassword,
	}
}

func (o *ADPasswordOperation) Send(ctx context.Context) (bool, error) {
	if err := checkDN(o.user); err != nil {
		return false, validationError(adModifyPasswordOperation, err)
	}

	req, err := o.modifyRequest()
	if err != nil {
		return false, validationError(adModifyPasswordOperation, err)
	}

	fields := map[string]any{
		"user":  o.user,
		"reset": o.oldPassword == "",
	}

	return invoke(ctx, adModifyPasswordOperation, fields, func() (bool, error) {
		if err := o.session.Modify(req); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (o *ADPasswordOperation) modifyRequest() (*ldap.ModifyRequest, error) {
	newValue, err := encodeUnicodePwd(o.newPassword)
	if err != nil {
		return nil, err
	}

	req := ldap.NewModifyRequest(o.user, nil)
	if o.oldPassword == "" {
		req.Replace("unicodePwd", []string{newValue})
		return req, nil
	}

	oldValue, err := encodeUnicodePwd(o.oldPassword)
	if err != nil {
		return nil, err
	}
	req.Delete("unicodePwd", []string{oldValue})
	req.Add("unicodePwd", []string{newValue})
	return req, nil
}
