package provider

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
	"github.com/isometry/terraform-provider-ldapext/internal/provider/validators"
)

var _ datasource.DataSource = &SearchDataSource{}

const defaultSearchFilter = "(objectClass=*)"

var searchScopes = []string{"base", "one", "subtree"}

func NewSearchDataSource() datasource.DataSource {
	return &SearchDataSource{}
}

// SearchDataSource runs an RFC 2696 paged search and collects every page.
type SearchDataSource struct {
	Data *ldapclient.ProviderData
}

type SearchDataSourceModel struct {
	ID         types.String       `tfsdk:"id"`
	BaseDN     types.String       `tfsdk:"base_dn"`
	Filter     types.String       `tfsdk:"filter"`
	Scope      types.String       `tfsdk:"scope"`
	Attributes types.List         `tfsdk:"attributes"`
	PageSize   types.Int64        `tfsdk:"page_size"`
	Critical   types.Bool         `tfsdk:"critical"`
	Pages      types.Int64        `tfsdk:"pages"`
	Entries    []SearchEntryModel `tfsdk:"entries"`
}

type SearchEntryModel struct {
	DN         types.String `tfsdk:"dn"`
	Attributes types.Map    `tfsdk:"attributes"`
}

func (d *SearchDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_search"
}

func (d *SearchDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Runs a paged search (RFC 2696 Simple Paged Results) and returns every matching entry. " +
			"Pages are fetched one round trip at a time until the server stops returning a cookie.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Identifier built from `base_dn`, `scope` and `filter`.",
				Computed:            true,
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Search base. An empty string searches the root DSE.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidBaseDN(),
				},
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: fmt.Sprintf("RFC 4515 search filter. Defaults to `%s`.", defaultSearchFilter),
				Optional:            true,
				Computed:            true,
			},
			"scope": schema.StringAttribute{
				MarkdownDescription: "Search scope: `base`, `one` or `subtree` (case-insensitive). Defaults to `subtree`.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf(searchScopes...),
				},
			},
			"attributes": schema.ListAttribute{
				MarkdownDescription: "Attributes to return. Omit for all user attributes.",
				ElementType:         types.StringType,
				Optional:            true,
			},
			"page_size": schema.Int64Attribute{
				MarkdownDescription: "Entries per page. Defaults to the provider `page_size`.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"critical": schema.BoolAttribute{
				MarkdownDescription: "Mark the paging control critical, so a server without paging support refuses the search. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
			},
			"pages": schema.Int64Attribute{
				MarkdownDescription: "Number of page rounds the search took.",
				Computed:            true,
			},
			"entries": schema.ListNestedAttribute{
				MarkdownDescription: "Matching entries in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn": schema.StringAttribute{
							MarkdownDescription: "Entry DN.",
							Computed:            true,
						},
						"attributes": schema.MapAttribute{
							MarkdownDescription: "Attribute values keyed by the attribute name the server returned.",
							ElementType:         types.ListType{ElemType: types.StringType},
							Computed:            true,
						},
					},
				},
			},
		},
	}
}

func (d *SearchDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if data := providerData(req.ProviderData, &resp.Diagnostics); data != nil {
		d.Data = data
	}
}

func (d *SearchDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data SearchDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = initializeLogging(ctx)
	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ldapext_search", "read", map[string]any{
		"base_dn": data.BaseDN.ValueString(),
	})
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	search := d.searchRequest(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	var (
		entries []*ldap.Entry
		pages   int
	)
	err := d.Data.WithSession(func(session ldapclient.Session) error {
		cursor, err := extend.New(session).Standard.NewPagedSearch(search)
		if err != nil {
			return err
		}
		entries, err = cursor.All(ctx)
		pages = cursor.Pages()
		return err
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Performing Paged Search",
			errorDetail(fmt.Sprintf("Search of %q with filter %s failed", search.BaseDN, search.Filter), err),
		)
		return
	}

	tflog.SubsystemDebug(ctx, "provider", "Paged search completed", map[string]any{
		"entries": len(entries),
		"pages":   pages,
	})

	data.Pages = types.Int64Value(int64(pages))
	data.Entries = make([]SearchEntryModel, len(entries))
	for i, entry := range entries {
		values := make(map[string][]string, len(entry.Attributes))
		for _, attr := range entry.Attributes {
			values[attr.Name] = attr.Values
		}

		attributes, diags := types.MapValueFrom(ctx, types.ListType{ElemType: types.StringType}, values)
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		data.Entries[i] = SearchEntryModel{
			DN:         types.StringValue(entry.DN),
			Attributes: attributes,
		}
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// searchRequest fills the computed inputs of data with their defaults and
// builds the request from them.
func (d *SearchDataSource) searchRequest(ctx context.Context, data *SearchDataSourceModel, diags *diag.Diagnostics) *extend.PagedSearchRequest {
	if data.Filter.IsNull() || data.Filter.ValueString() == "" {
		data.Filter = types.StringValue(defaultSearchFilter)
	}
	if data.Scope.IsNull() {
		data.Scope = types.StringValue("subtree")
	}
	if data.Critical.IsNull() {
		data.Critical = types.BoolValue(false)
	}
	if data.PageSize.IsNull() {
		pageSize := int64(defaultPageSize)
		if d.Data != nil && d.Data.PageSize > 0 {
			pageSize = int64(d.Data.PageSize)
		}
		data.PageSize = types.Int64Value(pageSize)
	}

	scopeName, ok := validators.Canonical(data.Scope.ValueString(), searchScopes...)
	if !ok {
		diags.AddAttributeError(path.Root("scope"), "Invalid Scope",
			fmt.Sprintf("Scope %q must be one of base, one or subtree.", data.Scope.ValueString()))
		return nil
	}
	scope, _ := ldapclient.ParseSearchScope(scopeName)
	data.Scope = types.StringValue(scopeName)

	req := extend.NewPagedSearchRequest(data.BaseDN.ValueString(), data.Filter.ValueString())
	req.Scope = scope
	req.PageSize = int(data.PageSize.ValueInt64())
	req.Critical = data.Critical.ValueBool()

	if !data.Attributes.IsNull() {
		diags.Append(data.Attributes.ElementsAs(ctx, &req.Attributes, false)...)
	}

	data.ID = types.StringValue(fmt.Sprintf("%s?%s?%s", req.BaseDN, scopeName, req.Filter))

	return req
}
