package validators

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

var _ validator.String = baseDNValidator{}

// baseDNValidator checks that a string parses as a Distinguished Name. The
// empty string is accepted as the root DSE.
type baseDNValidator struct{}

func (v baseDNValidator) Description(_ context.Context) string {
	return "value must be a valid Distinguished Name (DN), or empty for the root DSE"
}

func (v baseDNValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

func (v baseDNValidator) ValidateString(_ context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if value == "" {
		return
	}

	if _, err := ldap.ParseDN(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Distinguished Name",
			fmt.Sprintf("The value %q is not a valid Distinguished Name format: %s", value, err.Error()),
		)
	}
}

// IsValidBaseDN returns a validator which ensures that any configured
// attribute value is a Distinguished Name or the empty string, which names
// the root DSE as a search base.
//
// Unknown values and null values are skipped from validation.
func IsValidBaseDN() validator.String {
	return baseDNValidator{}
}
