package command

import (
	"bytes"
	"context"
	"io"
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// mockConn is a testify mock of a dialed session.
type mockConn struct {
	mock.Mock
}

func (m *mockConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.SearchResult)
	return result, args.Error(1)
}

func (m *mockConn) Extended(req *ldap.ExtendedRequest) (*ldap.ExtendedResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*ldap.ExtendedResponse)
	return resp, args.Error(1)
}

func (m *mockConn) WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error) {
	args := m.Called(controls)
	result, _ := args.Get(0).(*ldap.WhoAmIResult)
	return result, args.Error(1)
}

func (m *mockConn) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.PasswordModifyResult)
	return result, args.Error(1)
}

func (m *mockConn) Modify(req *ldap.ModifyRequest) error {
	return m.Called(req).Error(0)
}

func (m *mockConn) Close() error {
	return m.Called().Error(0)
}

// harness runs the app against conn and records the dialed configuration.
type harness struct {
	conn   *mockConn
	dialed *ldapclient.ConnectionConfig
	dials  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	conn := new(mockConn)
	conn.On("Close").Return(nil).Maybe()
	return &harness{conn: conn}
}

func (h *harness) run(args ...string) (string, error) {
	var stdout bytes.Buffer

	app := NewApp(func(_ context.Context, cfg *ldapclient.ConnectionConfig) (Conn, error) {
		h.dials++
		h.dialed = cfg
		return h.conn, nil
	})
	app.Writer = &stdout
	app.ErrWriter = io.Discard

	err := app.Run(append([]string{"ldapext", "--url", "ldap://ldap.example.com"}, args...))
	return stdout.String(), err
}

func extendedResponse(name string, value *ber.Packet) *ldap.ExtendedResponse {
	resp := &ldap.ExtendedResponse{Name: name}
	if value != nil {
		wrapped := ber.Encode(ber.ClassContext, ber.TypePrimitive, 11, nil, "Response Value")
		wrapped.Data.Write(value.Bytes())
		resp.Value = wrapped
	}
	return resp
}
