package provider

import (
	"fmt"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// errorDetail formats err for a diagnostic detail and appends a hint for the
// error categories a practitioner can act on.
func errorDetail(message string, err error) string {
	detail := fmt.Sprintf("%s: %s", message, err.Error())

	switch {
	case ldapclient.IsUnavailableCriticalExtension(err):
		detail += "\n\nThe server does not support a control marked critical. Set critical = false to let it ignore the control."
	case ldapclient.IsAuthenticationError(err):
		detail += "\n\nThe server rejected the provider credentials."
	case ldapclient.IsPermissionError(err):
		detail += "\n\nThe bound identity is not allowed to perform this operation."
	case ldapclient.IsNotFoundError(err):
		detail += "\n\nThe named entry does not exist."
	}

	return detail
}
