package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// isolate points HOME at an empty directory so no user file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := NewLoader(WithEnvPrefix("LDAPEXT_DEFAULTS_TEST_")).Load(map[string]any{"url": "ldap://localhost"})
	require.NoError(t, err)

	assert.Equal(t, "ldap://localhost", cfg.URL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.Page.Size)
	assert.Equal(t, OutputText, cfg.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, hclog.Warn, cfg.LogLevel())
}

func TestLoader_Priority(t *testing.T) {
	isolate(t)

	path := writeFile(t, `
url: ldaps://file.example.com
timeout: 10s
bind:
  dn: cn=file,dc=example,dc=com
  password: from-file
page:
  size: 250
output: yaml
`)

	t.Setenv("LDAPEXT_BIND_DN", "cn=env,dc=example,dc=com")
	t.Setenv("LDAPEXT_PAGE_SIZE", "500")
	t.Setenv("LDAPEXT_TLS_INSECURE", "true")

	cfg, err := NewLoader(WithConfigFile(path)).Load(map[string]any{
		"page.size": 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "ldaps://file.example.com", cfg.URL, "file only")
	assert.Equal(t, 10*time.Second, cfg.Timeout, "file over default")
	assert.Equal(t, "cn=env,dc=example,dc=com", cfg.Bind.DN, "env over file")
	assert.Equal(t, "from-file", cfg.Bind.Password)
	assert.True(t, cfg.TLS.Insecure, "env only")
	assert.Equal(t, 50, cfg.Page.Size, "flag over env")
	assert.Equal(t, OutputYAML, cfg.Output)
}

func TestLoader_ConfigFile(t *testing.T) {
	t.Run("explicit file must exist", func(t *testing.T) {
		isolate(t)
		_, err := NewLoader(WithConfigFile("/nonexistent/ldapext.yaml")).Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load config file")
	})

	t.Run("default file is optional", func(t *testing.T) {
		isolate(t)
		_, err := NewLoader().Load(map[string]any{"url": "ldap://localhost"})
		require.NoError(t, err)
	})

	t.Run("default file is read when present", func(t *testing.T) {
		home := isolate(t)
		require.NoError(t, os.MkdirAll(filepath.Join(home, ".ldapext"), 0o700))
		require.NoError(t, os.WriteFile(DefaultConfigPath(), []byte("url: ldap://home.example.com\n"), 0o600))

		cfg, err := NewLoader().Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "ldap://home.example.com", cfg.URL)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		isolate(t)
		path := writeFile(t, "url: [unterminated\n")
		_, err := NewLoader(WithConfigFile(path)).Load(nil)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			URL:    "ldap://localhost",
			Page:   PageConfig{Size: 100},
			Output: OutputText,
			Log:    LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.URL = "" }},
		{name: "zero page size", mutate: func(c *Config) { c.Page.Size = 0 }, wantErr: "page.size must be positive"},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "table" }, wantErr: "output must be one of"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "unknown log.level"},
		{name: "cert without key", mutate: func(c *Config) { c.TLS.Cert = "client.pem" }, wantErr: "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("errors are joined", func(t *testing.T) {
		err := (&Config{}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page.size must be positive")
		assert.Contains(t, err.Error(), "output must be one of")
	})
}

func TestConfig_ConnectionConfig(t *testing.T) {
	cfg := &Config{
		URL:     "ldaps://dc1.example.com",
		Timeout: 5 * time.Second,
		Bind:    BindConfig{DN: "admin@example.com", Password: "secret"},
		Kerberos: KerberosConfig{
			Realm:  "EXAMPLE.COM",
			Keytab: "/etc/krb5.keytab",
			SPN:    "ldap/dc1.example.com",
		},
		TLS: TLSConfig{Insecure: true, StartTLS: true},
	}

	conn := cfg.ConnectionConfig()

	assert.Equal(t, "ldaps://dc1.example.com", conn.URL)
	assert.Equal(t, 5*time.Second, conn.Timeout)
	assert.Equal(t, "admin@example.com", conn.Username)
	assert.Equal(t, "secret", conn.Password)
	assert.Equal(t, "EXAMPLE.COM", conn.KerberosRealm)
	assert.Equal(t, "/etc/krb5.keytab", conn.KerberosKeytab)
	assert.Equal(t, "ldap/dc1.example.com", conn.KerberosSPN)
	assert.True(t, conn.StartTLS)
	require.NotNil(t, conn.TLSConfig)
	assert.True(t, conn.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, ldapclient.AuthMethodKerberos, conn.GetAuthMethod())
}

func TestMapProvider(t *testing.T) {
	p := mapProvider{"bind.dn": "cn=x", "url": "ldap://y"}

	got, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"bind": map[string]any{"dn": "cn=x"},
		"url":  "ldap://y",
	}, got)

	_, err = p.ReadBytes()
	assert.ErrorIs(t, err, ErrReadBytesNotSupported)
}
