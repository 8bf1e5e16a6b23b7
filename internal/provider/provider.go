package provider

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

var _ provider.Provider = &LDAPExtProvider{}
var _ provider.ProviderWithConfigValidators = &LDAPExtProvider{}

const (
	defaultConnectTimeout = 30
	defaultPageSize       = 100
)

// Dialer opens an authenticated session for Configure.
type Dialer func(ctx context.Context, cfg *ldapclient.ConnectionConfig) (ldapclient.Session, error)

func dialLDAP(ctx context.Context, cfg *ldapclient.ConnectionConfig) (ldapclient.Session, error) {
	conn, err := ldapclient.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// LDAPExtProvider defines the provider implementation.
type LDAPExtProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string

	dial Dialer
}

// LDAPExtProviderModel describes the provider data model.
type LDAPExtProviderModel struct {
	URL      types.String `tfsdk:"url"`
	BindDN   types.String `tfsdk:"bind_dn"`
	Password types.String `tfsdk:"password"`

	KerberosRealm  types.String `tfsdk:"kerberos_realm"`
	KerberosKeytab types.String `tfsdk:"kerberos_keytab"`
	KerberosConfig types.String `tfsdk:"kerberos_config"`
	KerberosCCache types.String `tfsdk:"kerberos_ccache"`
	KerberosSPN    types.String `tfsdk:"kerberos_spn"`

	StartTLS      types.Bool `tfsdk:"start_tls"`
	SkipTLSVerify types.Bool `tfsdk:"skip_tls_verify"`

	ConnectTimeout types.Int64 `tfsdk:"connect_timeout"`
	PageSize       types.Int64 `tfsdk:"page_size"`
}

func (p *LDAPExtProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "ldapext"
	resp.Version = p.Version
}

func (p *LDAPExtProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The ldapext provider reads directory data through LDAP extended operations " +
			"(RFC 4532 Who Am I, eDirectory Get Bind DN) and RFC 2696 paged searches. " +
			"It opens one session when configured and shares it between data sources.",
		Attributes: map[string]schema.Attribute{
			"url": schema.StringAttribute{
				MarkdownDescription: "LDAP or LDAPS URL (e.g., `ldaps://ldap.example.com:636`). " +
					"Can be set via the `LDAPEXT_URL` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.RegexMatches(regexp.MustCompile(`(?i)^ldaps?://`), "must be an ldap:// or ldaps:// URL"),
				},
			},
			"bind_dn": schema.StringAttribute{
				MarkdownDescription: "Identity for simple bind, or the Kerberos principal when `kerberos_realm` is set. " +
					"Omit for an anonymous session. Can be set via the `LDAPEXT_BIND_DN` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password for `bind_dn`. " +
					"Can be set via the `LDAPEXT_BIND_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			"kerberos_realm": schema.StringAttribute{
				MarkdownDescription: "Kerberos realm for GSSAPI authentication (e.g., `EXAMPLE.COM`). " +
					"Can be set via the `LDAPEXT_KERBEROS_REALM` environment variable.",
				Optional: true,
			},
			"kerberos_keytab": schema.StringAttribute{
				MarkdownDescription: "Path to a Kerberos keytab file. " +
					"Can be set via the `LDAPEXT_KERBEROS_KEYTAB` environment variable.",
				Optional: true,
			},
			"kerberos_config": schema.StringAttribute{
				MarkdownDescription: "Path to the Kerberos configuration file. Defaults to the system default. " +
					"Can be set via the `LDAPEXT_KERBEROS_CONFIG` environment variable.",
				Optional: true,
			},
			"kerberos_ccache": schema.StringAttribute{
				MarkdownDescription: "Path to a Kerberos credential cache holding existing tickets. " +
					"Can be set via the `LDAPEXT_KERBEROS_CCACHE` environment variable.",
				Optional: true,
			},
			"kerberos_spn": schema.StringAttribute{
				MarkdownDescription: "Override the LDAP service principal name, e.g. `ldap/dc1.example.com` when `url` names an IP address. " +
					"Can be set via the `LDAPEXT_KERBEROS_SPN` environment variable.",
				Optional: true,
			},

			"start_tls": schema.BoolAttribute{
				MarkdownDescription: "Upgrade `ldap://` connections with StartTLS. Defaults to `false`. " +
					"Can be set via the `LDAPEXT_TLS_STARTTLS` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `LDAPEXT_TLS_INSECURE` environment variable.",
				Optional: true,
			},

			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: fmt.Sprintf("Per-request timeout in seconds. Defaults to `%d`. ", defaultConnectTimeout) +
					"Can be set via the `LDAPEXT_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"page_size": schema.Int64Attribute{
				MarkdownDescription: fmt.Sprintf("Default page size for `ldapext_search`. Defaults to `%d`. ", defaultPageSize) +
					"Can be set via the `LDAPEXT_PAGE_SIZE` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *LDAPExtProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// A keytab and a credential cache are alternative Kerberos credentials.
		providervalidator.Conflicting(
			path.MatchRoot("kerberos_keytab"),
			path.MatchRoot("kerberos_ccache"),
		),
		providervalidator.Conflicting(
			path.MatchRoot("kerberos_ccache"),
			path.MatchRoot("password"),
		),
	}
}

func (p *LDAPExtProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data LDAPExtProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring ldapext provider", map[string]any{
		"version": p.Version,
	})

	config, pageSize := p.buildConnectionConfig(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	dial := p.dial
	if dial == nil {
		dial = dialLDAP
	}

	start := time.Now()
	session, err := dial(ctx, config)
	if err != nil {
		tflog.Error(ctx, "Failed to open LDAP session", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Open LDAP Session",
			"The provider could not connect and bind to the directory. "+
				"Please verify your connection and authentication settings.\n\n"+
				"LDAP Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "LDAP session established", map[string]any{
		"url":         config.URL,
		"auth_method": config.GetAuthMethod().String(),
		"page_size":   pageSize,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.DataSourceData = ldapclient.NewProviderData(session, pageSize)
}

// configureLogging registers the log subsystems and the persistent provider
// fields on ctx.
func (p *LDAPExtProvider) configureLogging(ctx context.Context) context.Context {
	ctx = initializeLogging(ctx)
	ctx = tflog.SetField(ctx, "provider", "ldapext")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)
	return ctx
}

// buildConnectionConfig resolves every setting from the provider block, then
// the LDAPEXT_* environment, then the defaults.
func (p *LDAPExtProvider) buildConnectionConfig(data *LDAPExtProviderModel, diags *diag.Diagnostics) (*ldapclient.ConnectionConfig, int) {
	config := ldapclient.DefaultConfig()

	config.URL = getStringValue(data.URL, "LDAPEXT_URL")
	if config.URL == "" {
		diags.AddAttributeError(
			path.Root("url"),
			"Missing LDAP URL",
			"Set the 'url' attribute or the LDAPEXT_URL environment variable to an ldap:// or ldaps:// URL.",
		)
		return config, 0
	}

	config.Username = getStringValue(data.BindDN, "LDAPEXT_BIND_DN")
	config.Password = getStringValue(data.Password, "LDAPEXT_BIND_PASSWORD")
	config.KerberosRealm = getStringValue(data.KerberosRealm, "LDAPEXT_KERBEROS_REALM")
	config.KerberosKeytab = getStringValue(data.KerberosKeytab, "LDAPEXT_KERBEROS_KEYTAB")
	config.KerberosConfig = getStringValue(data.KerberosConfig, "LDAPEXT_KERBEROS_CONFIG")
	config.KerberosCCache = getStringValue(data.KerberosCCache, "LDAPEXT_KERBEROS_CCACHE")
	config.KerberosSPN = getStringValue(data.KerberosSPN, "LDAPEXT_KERBEROS_SPN")

	if config.KerberosRealm != "" && config.Password == "" && config.KerberosKeytab == "" && config.KerberosCCache == "" {
		diags.AddError(
			"Incomplete Kerberos Configuration",
			"Kerberos authentication needs a credential: set 'password', 'kerberos_keytab' or 'kerberos_ccache' "+
				"(or LDAPEXT_BIND_PASSWORD, LDAPEXT_KERBEROS_KEYTAB, LDAPEXT_KERBEROS_CCACHE).",
		)
		return config, 0
	}

	config.StartTLS = getBoolValue(data.StartTLS, "LDAPEXT_TLS_STARTTLS", false)
	config.TLSConfig.InsecureSkipVerify = getBoolValue(data.SkipTLSVerify, "LDAPEXT_TLS_INSECURE", false)

	if timeout := getInt64Value(data.ConnectTimeout, "LDAPEXT_CONNECT_TIMEOUT", defaultConnectTimeout); timeout > 0 {
		config.Timeout = time.Duration(timeout) * time.Second
	}

	pageSize := getInt64Value(data.PageSize, "LDAPEXT_PAGE_SIZE", defaultPageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return config, int(pageSize)
}

func getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *LDAPExtProvider) Resources(ctx context.Context) []func() resource.Resource {
	return nil
}

func (p *LDAPExtProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewBindDNDataSource,
		NewOperationsDataSource,
		NewSearchDataSource,
		NewWhoAmIDataSource,
	}
}

// providerData unwraps the value Configure stored for data sources. It returns
// nil without a diagnostic while the provider is still unconfigured.
func providerData(v any, diags *diag.Diagnostics) *ldapclient.ProviderData {
	if v == nil {
		return nil
	}

	data, ok := v.(*ldapclient.ProviderData)
	if !ok {
		diags.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ldap.ProviderData, got: %T. Please report this issue to the provider developers.", v),
		)
		return nil
	}
	return data
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &LDAPExtProvider{
			Version: version,
		}
	}
}

// NewWithDialer is New with a custom session dialer.
func NewWithDialer(version string, dial Dialer) func() provider.Provider {
	return func() provider.Provider {
		return &LDAPExtProvider{
			Version: version,
			dial:    dial,
		}
	}
}
