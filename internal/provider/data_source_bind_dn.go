package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

var _ datasource.DataSource = &BindDNDataSource{}

func NewBindDNDataSource() datasource.DataSource {
	return &BindDNDataSource{}
}

// BindDNDataSource runs the eDirectory Get Bind DN operation.
type BindDNDataSource struct {
	Data *ldapclient.ProviderData
}

type BindDNDataSourceModel struct {
	ID        types.String `tfsdk:"id"`
	DN        types.String `tfsdk:"dn"`
	Anonymous types.Bool   `tfsdk:"anonymous"`
}

func (d *BindDNDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_bind_dn"
}

func (d *BindDNDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Returns the DN the provider session is bound as, using the eDirectory " +
			"Get Bind DN extended operation (2.16.840.1.113719.1.27.100.31). Only NetIQ eDirectory supports it.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `dn`, or `anonymous`.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Bound DN in eDirectory's dotted or LDAP form. Empty for an anonymous session.",
				Computed:            true,
			},
			"anonymous": schema.BoolAttribute{
				MarkdownDescription: "Whether the session is anonymous.",
				Computed:            true,
			},
		},
	}
}

func (d *BindDNDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if data := providerData(req.ProviderData, &resp.Diagnostics); data != nil {
		d.Data = data
	}
}

func (d *BindDNDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data BindDNDataSourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ldapext_bind_dn", "read", nil)
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	var dn string
	err := d.Data.WithSession(func(session ldapclient.Session) error {
		var err error
		dn, err = extend.New(session).Novell.GetBindDN(ctx)
		return err
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Performing Get Bind DN Operation",
			errorDetail("Could not read the bound DN (is the server eDirectory?)", err),
		)
		return
	}

	data.DN = types.StringValue(dn)
	data.Anonymous = types.BoolValue(dn == "")
	data.ID = types.StringValue(dn)
	if dn == "" {
		data.ID = types.StringValue("anonymous")
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
