package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-hclog"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Output formats accepted by the CLI.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config is the CLI configuration.
type Config struct {
	URL      string         `koanf:"url"`
	Timeout  time.Duration  `koanf:"timeout" default:"30s"`
	Bind     BindConfig     `koanf:"bind"`
	Kerberos KerberosConfig `koanf:"kerberos"`
	TLS      TLSConfig      `koanf:"tls"`
	Page     PageConfig     `koanf:"page"`
	Output   string         `koanf:"output" default:"text"`
	Log      LogConfig      `koanf:"log"`
}

// BindConfig holds simple bind credentials. An empty DN binds anonymously.
type BindConfig struct {
	DN       string `koanf:"dn"`
	Password string `koanf:"password"`
}

type KerberosConfig struct {
	Realm  string `koanf:"realm"`
	Keytab string `koanf:"keytab"`
	Config string `koanf:"config"`
	CCache string `koanf:"ccache"`
	SPN    string `koanf:"spn"`
}

type TLSConfig struct {
	Insecure bool   `koanf:"insecure"`
	StartTLS bool   `koanf:"starttls"`
	Cert     string `koanf:"cert"`
	Key      string `koanf:"key"`
}

type PageConfig struct {
	Size int `koanf:"size" default:"100"`
}

type LogConfig struct {
	Level string `koanf:"level" default:"warn"`
}

// Validate checks the merged configuration. URL is not required here since
// some commands never dial.
func (c *Config) Validate() error {
	var errs []error

	if c.Page.Size <= 0 {
		errs = append(errs, fmt.Errorf("page.size must be positive, got %d", c.Page.Size))
	}
	if !slices.Contains([]string{OutputText, OutputJSON, OutputYAML}, c.Output) {
		errs = append(errs, fmt.Errorf("output must be one of text, json, yaml, got %q", c.Output))
	}
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	if (c.TLS.Cert == "") != (c.TLS.Key == "") {
		errs = append(errs, errors.New("tls.cert and tls.key must be set together"))
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() hclog.Level {
	return hclog.LevelFromString(c.Log.Level)
}

// ConnectionConfig converts the configuration for ldapclient.Dial.
func (c *Config) ConnectionConfig() *ldapclient.ConnectionConfig {
	cfg := ldapclient.DefaultConfig()

	cfg.URL = c.URL
	cfg.Timeout = c.Timeout
	cfg.Username = c.Bind.DN
	cfg.Password = c.Bind.Password
	cfg.KerberosRealm = c.Kerberos.Realm
	cfg.KerberosKeytab = c.Kerberos.Keytab
	cfg.KerberosConfig = c.Kerberos.Config
	cfg.KerberosCCache = c.Kerberos.CCache
	cfg.KerberosSPN = c.Kerberos.SPN
	cfg.StartTLS = c.TLS.StartTLS
	cfg.TLSClientCertFile = c.TLS.Cert
	cfg.TLSClientKeyFile = c.TLS.Key
	cfg.TLSConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.TLS.Insecure,
	}

	return cfg
}
