package provider

import (
	"context"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSession is a testify mock of an LDAP session.
type mockSession struct {
	mock.Mock
}

func (m *mockSession) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.SearchResult)
	return result, args.Error(1)
}

func (m *mockSession) Extended(req *ldap.ExtendedRequest) (*ldap.ExtendedResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*ldap.ExtendedResponse)
	return resp, args.Error(1)
}

func (m *mockSession) WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error) {
	args := m.Called(controls)
	result, _ := args.Get(0).(*ldap.WhoAmIResult)
	return result, args.Error(1)
}

func (m *mockSession) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.PasswordModifyResult)
	return result, args.Error(1)
}

func (m *mockSession) Modify(req *ldap.ModifyRequest) error {
	return m.Called(req).Error(0)
}

// objectValue builds an object of typ with the given attributes set and
// every other attribute null.
func objectValue(t *testing.T, typ tftypes.Type, values map[string]tftypes.Value) tftypes.Value {
	t.Helper()

	object, ok := typ.(tftypes.Object)
	require.True(t, ok, "schema type is %T", typ)

	attrs := make(map[string]tftypes.Value, len(object.AttributeTypes))
	for name, attrType := range object.AttributeTypes {
		attrs[name] = tftypes.NewValue(attrType, nil)
	}
	for name, value := range values {
		_, known := object.AttributeTypes[name]
		require.True(t, known, "unknown attribute %q", name)
		attrs[name] = value
	}
	return tftypes.NewValue(object, attrs)
}

// readDataSource runs Read with the given configuration and returns the
// response.
func readDataSource(t *testing.T, ds datasource.DataSource, values map[string]tftypes.Value) *datasource.ReadResponse {
	t.Helper()
	ctx := context.Background()

	schemaResp := &datasource.SchemaResponse{}
	ds.Schema(ctx, datasource.SchemaRequest{}, schemaResp)
	require.False(t, schemaResp.Diagnostics.HasError(), "%v", schemaResp.Diagnostics)

	typ := schemaResp.Schema.Type().TerraformType(ctx)
	req := datasource.ReadRequest{
		Config: tfsdk.Config{
			Schema: schemaResp.Schema,
			Raw:    objectValue(t, typ, values),
		},
	}
	resp := &datasource.ReadResponse{
		State: tfsdk.State{
			Schema: schemaResp.Schema,
			Raw:    tftypes.NewValue(typ, nil),
		},
	}

	ds.Read(ctx, req, resp)
	return resp
}
