package ldap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateKerberosDefaults points the default ccache and keytab lookups at
// files that do not exist so tests do not depend on the host.
func isolateKerberosDefaults(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KRB5CCNAME", "FILE:"+filepath.Join(dir, "no-ccache"))
	t.Setenv("KRB5_KTNAME", "FILE:"+filepath.Join(dir, "no-keytab"))
}

func TestResolveKerberosCredentials(t *testing.T) {
	isolateKerberosDefaults(t)

	keytab := filepath.Join(t.TempDir(), "svc.keytab")
	require.NoError(t, os.WriteFile(keytab, []byte{0x05, 0x02}, 0o600))

	tests := []struct {
		name          string
		config        *ConnectionConfig
		wantPrincipal string
		wantRealm     string
		wantKrb5Conf  string
		wantErr       string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: "configuration cannot be nil",
		},
		{
			name: "realm from principal",
			config: &ConnectionConfig{
				Username: "alice@EXAMPLE.COM",
				Password: "secret",
			},
			wantPrincipal: "alice",
			wantRealm:     "EXAMPLE.COM",
			wantKrb5Conf:  defaultKrb5Conf,
		},
		{
			name: "explicit realm wins",
			config: &ConnectionConfig{
				Username:       "alice@OTHER.COM",
				Password:       "secret",
				KerberosRealm:  "EXAMPLE.COM",
				KerberosConfig: "/opt/krb5.conf",
			},
			wantPrincipal: "alice",
			wantRealm:     "EXAMPLE.COM",
			wantKrb5Conf:  "/opt/krb5.conf",
		},
		{
			name: "keytab without password",
			config: &ConnectionConfig{
				Username:       "svc-ldap",
				KerberosRealm:  "EXAMPLE.COM",
				KerberosKeytab: keytab,
			},
			wantPrincipal: "svc-ldap",
			wantRealm:     "EXAMPLE.COM",
			wantKrb5Conf:  defaultKrb5Conf,
		},
		{
			name: "missing realm",
			config: &ConnectionConfig{
				Username: "alice",
				Password: "secret",
			},
			wantErr: "kerberos realm is required",
		},
		{
			name: "missing principal without ccache",
			config: &ConnectionConfig{
				KerberosRealm: "EXAMPLE.COM",
				Password:      "secret",
			},
			wantErr: "username (principal) is required",
		},
		{
			name: "no credential source",
			config: &ConnectionConfig{
				Username:      "alice",
				KerberosRealm: "EXAMPLE.COM",
			},
			wantErr: "no suitable Kerberos credentials found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := resolveKerberosCredentials(tt.config)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPrincipal, creds.principal)
			assert.Equal(t, tt.wantRealm, creds.realm)
			assert.Equal(t, tt.wantKrb5Conf, creds.krb5conf)
		})
	}
}

func TestResolveKerberosCredentials_DoesNotMutateConfig(t *testing.T) {
	isolateKerberosDefaults(t)

	cfg := &ConnectionConfig{Username: "alice@EXAMPLE.COM", Password: "secret"}
	_, err := resolveKerberosCredentials(cfg)
	require.NoError(t, err)

	assert.Equal(t, "alice@EXAMPLE.COM", cfg.Username)
	assert.Empty(t, cfg.KerberosRealm)
	assert.Empty(t, cfg.KerberosConfig)
}

func TestCreateGSSAPIClient_MissingKrb5Conf(t *testing.T) {
	creds := &kerberosCredentials{
		principal: "alice",
		realm:     "EXAMPLE.COM",
		password:  "secret",
		krb5conf:  "/nonexistent/krb5.conf",
	}

	_, _, err := createGSSAPIClient(creds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kerberos configuration file not found at /nonexistent/krb5.conf")
	assert.Contains(t, err.Error(), "default_realm = EXAMPLE.COM")
}

func TestBuildServicePrincipal(t *testing.T) {
	tests := []struct {
		name     string
		override string
		host     string
		want     string
		wantErr  bool
	}{
		{name: "host only", host: "dc1.example.com", want: "ldap/dc1.example.com"},
		{name: "port stripped", host: "dc1.example.com:636", want: "ldap/dc1.example.com"},
		{name: "override", override: "ldap/vip.example.com", host: "dc1.example.com", want: "ldap/vip.example.com"},
		{name: "missing host", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildServicePrincipal(tt.override, tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultKerberosPaths(t *testing.T) {
	t.Setenv("KRB5CCNAME", "FILE:/tmp/krb5cc_test")
	t.Setenv("KRB5_KTNAME", "FILE:/etc/test.keytab")

	assert.Equal(t, "/tmp/krb5cc_test", getDefaultCCachePath())
	assert.Equal(t, "/etc/test.keytab", getDefaultKeytabPath())
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	assert.True(t, fileExists(path))
	assert.False(t, fileExists(path+".missing"))
	assert.False(t, fileExists(""))
}

func TestGenerateExampleKrb5Conf(t *testing.T) {
	conf := generateExampleKrb5Conf("EXAMPLE.COM")
	assert.Contains(t, conf, "kdc = kdc.example.com:88")
	assert.Contains(t, conf, ".example.com = EXAMPLE.COM")

	assert.Contains(t, generateExampleKrb5Conf(""), "YOUR.REALM.COM")
}
