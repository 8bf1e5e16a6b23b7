package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

var _ datasource.DataSource = &WhoAmIDataSource{}

func NewWhoAmIDataSource() datasource.DataSource {
	return &WhoAmIDataSource{}
}

// WhoAmIDataSource defines the data source implementation.
type WhoAmIDataSource struct {
	Data *ldapclient.ProviderData
}

// WhoAmIDataSourceModel describes the data source data model.
type WhoAmIDataSourceModel struct {
	ID                types.String `tfsdk:"id"`               // Set to authz_id for state tracking
	AuthzID           types.String `tfsdk:"authz_id"`         // Raw authorization ID from server
	DN                types.String `tfsdk:"dn"`               // Distinguished Name (if authzID is in DN format)
	UserPrincipalName types.String `tfsdk:"upn"`              // User Principal Name (if authzID is in UPN format)
	SAMAccountName    types.String `tfsdk:"sam_account_name"` // SAM Account Name (if authzID is in SAM format)
	SID               types.String `tfsdk:"sid"`              // Security Identifier (if authzID is in SID format)
	Format            types.String `tfsdk:"format"`           // "dn", "upn", "sam", "sid", "empty", or "unknown"
}

func (d *WhoAmIDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_whoami"
}

func (d *WhoAmIDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Returns the authorization identity of the provider session using the LDAP \"Who Am I?\" " +
			"extended operation (RFC 4532). An anonymous session reports format `empty`.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `authz_id`.",
				Computed:            true,
			},
			"authz_id": schema.StringAttribute{
				MarkdownDescription: "The authorization ID exactly as returned by the server, usually prefixed with `dn:` or `u:`.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished Name, when the authorization ID is in DN format. " +
					"Example: `cn=admin,dc=example,dc=com`",
				Computed: true,
			},
			"upn": schema.StringAttribute{
				MarkdownDescription: "User Principal Name, when the authorization ID is in UPN format. " +
					"Example: `jdoe@example.com`",
				Computed: true,
			},
			"sam_account_name": schema.StringAttribute{
				MarkdownDescription: "SAM account name, when the authorization ID is in `DOMAIN\\user` format.",
				Computed:            true,
			},
			"sid": schema.StringAttribute{
				MarkdownDescription: "Security Identifier, when the authorization ID is a SID.",
				Computed:            true,
			},
			"format": schema.StringAttribute{
				MarkdownDescription: "Format of the authorization ID: `dn`, `upn`, `sam`, `sid`, `empty` or `unknown`.",
				Computed:            true,
			},
		},
	}
}

func (d *WhoAmIDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if data := providerData(req.ProviderData, &resp.Diagnostics); data != nil {
		d.Data = data
	}
}

func (d *WhoAmIDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data WhoAmIDataSourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ldapext_whoami", "read", nil)
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	var result *ldapclient.WhoAmIResult
	err := d.Data.WithSession(func(session ldapclient.Session) error {
		var err error
		result, err = extend.New(session).Standard.WhoAmI(ctx)
		return err
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Performing WhoAmI Operation",
			errorDetail("Could not perform LDAP Who Am I? operation", err),
		)
		return
	}

	if result == nil {
		resp.Diagnostics.AddError(
			"WhoAmI Operation Returned Nil",
			"The LDAP Who Am I? operation returned a nil result, which should not happen. Please report this issue to the provider developers.",
		)
		return
	}

	tflog.SubsystemDebug(ctx, "provider", "Performed WhoAmI operation", map[string]any{
		"authz_id": result.AuthzID,
		"format":   result.Format,
	})

	mapWhoAmIResult(result, &data)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func mapWhoAmIResult(result *ldapclient.WhoAmIResult, data *WhoAmIDataSourceModel) {
	data.ID = types.StringValue(result.AuthzID)
	data.AuthzID = types.StringValue(result.AuthzID)
	data.Format = types.StringValue(result.Format)
	data.DN = optionalString(result.DN)
	data.UserPrincipalName = optionalString(result.UserPrincipalName)
	data.SAMAccountName = optionalString(result.SAMAccountName)
	data.SID = optionalString(result.SID)
}

// optionalString maps "" to null.
func optionalString(s string) types.String {
	if s == "" {
		return types.StringNull()
	}
	return types.StringValue(s)
}
