package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BUILTIN\Administrators
var administratorsSID = []byte{
	0x01, 0x02,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
	0x20, 0x00, 0x00, 0x00,
	0x20, 0x02, 0x00, 0x00,
}

func TestSIDFromBytes(t *testing.T) {
	sid, err := SIDFromBytes(administratorsSID)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-32-544", sid)
}

func TestSIDFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{name: "empty", in: nil},
		{name: "truncated header", in: administratorsSID[:5]},
		{name: "truncated sub-authority", in: administratorsSID[:14]},
		{name: "trailing bytes", in: append(append([]byte{}, administratorsSID...), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SIDFromBytes(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestExtractSID(t *testing.T) {
	entry := &ldap.Entry{
		DN: "cn=Administrators,cn=Builtin,dc=example,dc=com",
		Attributes: []*ldap.EntryAttribute{
			{Name: "objectSid", ByteValues: [][]byte{administratorsSID}},
		},
	}

	sid, err := ExtractSID(entry)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-32-544", sid)

	sid, err = ExtractSID(&ldap.Entry{DN: "cn=x"})
	require.NoError(t, err)
	assert.Empty(t, sid)

	_, err = ExtractSID(nil)
	assert.Error(t, err)
}
