package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
	"github.com/isometry/terraform-provider-ldapext/internal/provider/validators"
)

var _ datasource.DataSource = &OperationsDataSource{}

var namespaces = []string{"standard", "novell", "microsoft"}

func NewOperationsDataSource() datasource.DataSource {
	return &OperationsDataSource{}
}

// OperationsDataSource lists the operation catalog. It never touches the
// session, so it also works before the provider is configured.
type OperationsDataSource struct{}

type OperationsDataSourceModel struct {
	ID         types.String `tfsdk:"id"`
	Namespace  types.String `tfsdk:"namespace"`
	Operations types.List   `tfsdk:"operations"`
	Listing    types.String `tfsdk:"listing"`
}

func (d *OperationsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_operations"
}

func (d *OperationsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists the extended operations available in a namespace, or the namespaces themselves " +
			"when `namespace` is omitted.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The namespace, or `root` for the namespace list.",
				Computed:            true,
			},
			"namespace": schema.StringAttribute{
				MarkdownDescription: "Namespace to list: `standard`, `novell` or `microsoft` (case-insensitive).",
				Optional:            true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf(namespaces...),
				},
			},
			"operations": schema.ListAttribute{
				MarkdownDescription: "Names in the catalog, in catalog order.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"listing": schema.StringAttribute{
				MarkdownDescription: "Human-readable listing, one indented name per line.",
				Computed:            true,
			},
		},
	}
}

func (d *OperationsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data OperationsDataSourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ldapext_operations", "read", nil)
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	root := extend.New(nil)
	catalog := root.Operations()
	data.ID = types.StringValue("root")

	if !data.Namespace.IsNull() {
		name, ok := validators.Canonical(data.Namespace.ValueString(), namespaces...)
		if ok {
			catalog, ok = root.Namespace(name)
		}
		if !ok {
			resp.Diagnostics.AddAttributeError(path.Root("namespace"), "Unknown Namespace",
				"Namespace must be one of: "+root.String())
			return
		}
		data.ID = types.StringValue(name)
	}

	operations, diags := types.ListValueFrom(ctx, types.StringType, []string(catalog))
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	data.Operations = operations
	data.Listing = types.StringValue(catalog.String())

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
