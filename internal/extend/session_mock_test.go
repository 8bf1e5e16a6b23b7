package extend

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// MockSession is a testify mock of ldapclient.Session.
type MockSession struct {
	mock.Mock
}

var _ ldapclient.Session = (*MockSession)(nil)

func (m *MockSession) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.SearchResult)
	return result, args.Error(1)
}

func (m *MockSession) Extended(req *ldap.ExtendedRequest) (*ldap.ExtendedResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*ldap.ExtendedResponse)
	return resp, args.Error(1)
}

func (m *MockSession) WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error) {
	args := m.Called(controls)
	result, _ := args.Get(0).(*ldap.WhoAmIResult)
	return result, args.Error(1)
}

func (m *MockSession) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.PasswordModifyResult)
	return result, args.Error(1)
}

func (m *MockSession) Modify(req *ldap.ModifyRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

// makeEntries returns n entries named cn=<prefix><i>.
func makeEntries(prefix string, n int) []*ldap.Entry {
	entries := make([]*ldap.Entry, n)
	for i := range entries {
		entries[i] = ldap.NewEntry(fmt.Sprintf("cn=%s%d,dc=example,dc=com", prefix, i), map[string][]string{
			"cn": {prefix},
		})
	}
	return entries
}

// pageResult is a search result carrying a paging response control.
func pageResult(entries []*ldap.Entry, cookie string) *ldap.SearchResult {
	control := ldap.NewControlPaging(0)
	control.SetCookie([]byte(cookie))
	return &ldap.SearchResult{
		Entries:  entries,
		Controls: []ldap.Control{control},
	}
}

// pagingCookie returns the cookie of the paging control in req.
func pagingCookie(req *ldap.SearchRequest) (string, bool) {
	for _, c := range req.Controls {
		if pc, ok := c.(*pagedResultsControl); ok {
			return string(pc.cookie), true
		}
	}
	return "", false
}

// withCookie matches a search request whose paging cookie equals cookie.
func withCookie(cookie string) any {
	return mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		got, ok := pagingCookie(req)
		return ok && got == cookie
	})
}

// extendedResponse builds a response as go-ldap returns it, with value
// carried in the [11] responseValue.
func extendedResponse(name string, value *ber.Packet) *ldap.ExtendedResponse {
	resp := &ldap.ExtendedResponse{Name: name}
	if value != nil {
		wrapped := ber.Encode(ber.ClassContext, ber.TypePrimitive, 11, nil, "Response Value")
		wrapped.Data.Write(value.Bytes())
		resp.Value = wrapped
	}
	return resp
}

// requestValueOf decodes the element carried in an ExtendedRequest value.
func requestValueOf(req *ldap.ExtendedRequest) *ber.Packet {
	if req.Value == nil {
		return nil
	}
	packet, err := ber.DecodePacketErr(req.Value.Data.Bytes())
	if err != nil {
		panic(err)
	}
	return packet
}
