package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// logEnvPrefix selects per-subsystem levels, e.g. TF_LOG_PROVIDER_LDAPEXT_EXTEND=trace.
const logEnvPrefix = "TF_LOG_PROVIDER_LDAPEXT"

// initializeLogging registers the provider subsystem and the library
// subsystems. Terraform hands every RPC a fresh context, so Configure and
// each data source Read call this first.
func initializeLogging(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv(logEnvPrefix, "provider"))
	return ldapclient.InitSubsystems(ctx, logEnvPrefix)
}

// firstError returns the first error diagnostic as an error, for completion
// logging.
func firstError(diags diag.Diagnostics) error {
	errs := diags.Errors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", errs[0].Summary(), errs[0].Detail())
}
