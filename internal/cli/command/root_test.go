package command

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

func TestApp_Commands(t *testing.T) {
	app := App()

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}

	for _, name := range []string{"operations", "whoami", "search", "passwd", "novell", "ad"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestOperations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "namespaces",
			args: []string{"operations"},
			want: "  microsoft\n  novell\n  standard\n",
		},
		{
			name: "standard",
			args: []string{"operations", "standard"},
			want: "  modify_password\n  paged_search\n  who_am_i\n",
		},
		{
			name: "json",
			args: []string{"-o", "json", "ops", "microsoft"},
			want: "{\n  \"namespace\": \"microsoft\",\n  \"operations\": [\n    \"dir_sync\",\n    \"modify_password\"\n  ]\n}\n",
		},
		{
			name: "yaml",
			args: []string{"--output", "yaml", "operations"},
			want: "operations:\n  - microsoft\n  - novell\n  - standard\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			out, err := h.run(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Zero(t, h.dials, "operations must not dial")
		})
	}

	t.Run("unknown namespace", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run("operations", "openldap")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown namespace "openldap"`)
	})
}

func TestGlobalFlags_ReachDialer(t *testing.T) {
	h := newHarness(t)
	h.conn.On("WhoAmI", mock.Anything).Return(whoAmI("dn:cn=admin,dc=example,dc=com"), nil)

	_, err := h.run(
		"--bind-dn", "cn=admin,dc=example,dc=com",
		"--password", "secret",
		"--insecure",
		"--timeout", "5s",
		"whoami",
	)
	require.NoError(t, err)

	require.NotNil(t, h.dialed)
	assert.Equal(t, "ldap://ldap.example.com", h.dialed.URL)
	assert.Equal(t, "cn=admin,dc=example,dc=com", h.dialed.Username)
	assert.Equal(t, "secret", h.dialed.Password)
	assert.Equal(t, 5*time.Second, h.dialed.Timeout)
	assert.True(t, h.dialed.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, ldapclient.AuthMethodSimpleBind, h.dialed.GetAuthMethod())
	h.conn.AssertCalled(t, "Close")
}

func TestGlobalFlags_Invalid(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--output", "table", "operations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output must be one of")
}

func TestDialError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	app := NewApp(func(context.Context, *ldapclient.ConnectionConfig) (Conn, error) {
		return nil, ldapclient.NewConnectionError("failed to connect to ldap.example.com", errors.New("connection refused"))
	})
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	err := app.Run([]string{"ldapext", "--url", "ldap://ldap.example.com", "whoami"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
