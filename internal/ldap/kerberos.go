package ldap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// kerberosCredentials is the resolved view of the Kerberos settings in a
// ConnectionConfig. Resolution never mutates the caller's configuration.
type kerberosCredentials struct {
	principal string
	realm     string
	password  string
	keytab    string
	ccache    string
	krb5conf  string
}

// performKerberosAuth performs a GSSAPI bind on conn.
func performKerberosAuth(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig, host string) error {
	creds, err := resolveKerberosCredentials(cfg)
	if err != nil {
		LogKerberosEvent(ctx, "authentication_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	gssapiClient, source, err := createGSSAPIClient(creds)
	if err != nil {
		LogKerberosEvent(ctx, "ticket_acquisition_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = gssapiClient.DeleteSecContext()
	}()

	LogKerberosEvent(ctx, "ticket_acquired", map[string]any{
		"principal": creds.principal,
		"realm":     creds.realm,
		"source":    source,
	})

	spn, err := buildServicePrincipal(cfg.KerberosSPN, host)
	if err != nil {
		return fmt.Errorf("failed to build service principal: %w", err)
	}

	LogKerberosEvent(ctx, "principal_resolved", map[string]any{"spn": spn})

	if err := conn.GSSAPIBind(gssapiClient, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	return nil
}

// resolveKerberosCredentials validates the Kerberos settings and fills in
// defaults. A realm may be carried in the username as principal@REALM.
func resolveKerberosCredentials(cfg *ConnectionConfig) (*kerberosCredentials, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	creds := &kerberosCredentials{
		principal: cfg.Username,
		realm:     cfg.KerberosRealm,
		password:  cfg.Password,
		keytab:    cfg.KerberosKeytab,
		ccache:    cfg.KerberosCCache,
		krb5conf:  cfg.KerberosConfig,
	}

	if creds.krb5conf == "" {
		creds.krb5conf = defaultKrb5Conf
	}

	if principal, realm, ok := strings.Cut(creds.principal, "@"); ok {
		creds.principal = principal
		if creds.realm == "" {
			creds.realm = realm
		}
	}

	if creds.realm == "" {
		return nil, fmt.Errorf("kerberos realm is required (set kerberos realm or include realm in username)")
	}

	hasCCache := fileExists(creds.ccache) || fileExists(getDefaultCCachePath())
	if creds.principal == "" && !hasCCache {
		return nil, fmt.Errorf("username (principal) is required for Kerberos authentication without a credential cache")
	}

	hasKeytab := fileExists(creds.keytab) || fileExists(getDefaultKeytabPath())
	if !hasCCache && !hasKeytab && creds.password == "" {
		return nil, fmt.Errorf("no suitable Kerberos credentials found: provide a credential cache, keytab, or password")
	}

	return creds, nil
}

// createGSSAPIClient creates a GSSAPI client.
// Priority order: credential cache → keytab → password.
func createGSSAPIClient(creds *kerberosCredentials) (ldap.GSSAPIClient, string, error) {
	if !fileExists(creds.krb5conf) {
		return nil, "", fmt.Errorf("Kerberos configuration file not found at %s; "+
			"provide a valid krb5.conf, for example:\n%s",
			creds.krb5conf, generateExampleKrb5Conf(creds.realm))
	}

	if fileExists(creds.ccache) {
		client, err := gssapi.NewClientFromCCache(creds.ccache, creds.krb5conf, krb5client.DisablePAFXFAST(true))
		return client, "ccache", err
	}

	if defaultCCache := getDefaultCCachePath(); fileExists(defaultCCache) {
		client, err := gssapi.NewClientFromCCache(defaultCCache, creds.krb5conf, krb5client.DisablePAFXFAST(true))
		return client, "default_ccache", err
	}

	if fileExists(creds.keytab) {
		client, err := gssapi.NewClientWithKeytab(creds.principal, creds.realm, creds.keytab, creds.krb5conf, krb5client.DisablePAFXFAST(true))
		return client, "keytab", err
	}

	if creds.principal != "" {
		if defaultKeytab := getDefaultKeytabPath(); fileExists(defaultKeytab) {
			client, err := gssapi.NewClientWithKeytab(creds.principal, creds.realm, defaultKeytab, creds.krb5conf, krb5client.DisablePAFXFAST(true))
			return client, "default_keytab", err
		}
	}

	if creds.principal != "" && creds.password != "" {
		client, err := gssapi.NewClientWithPassword(creds.principal, creds.realm, creds.password, creds.krb5conf, krb5client.DisablePAFXFAST(true))
		return client, "password", err
	}

	return nil, "", fmt.Errorf("no suitable credentials found for Kerberos authentication")
}

// buildServicePrincipal returns override when set, otherwise ldap/<host>.
func buildServicePrincipal(override, host string) (string, error) {
	if override != "" {
		return override, nil
	}

	if host == "" {
		return "", fmt.Errorf("hostname is required for service principal")
	}

	// SPN never carries a port
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}

	return "ldap/" + host, nil
}

// getDefaultCCachePath returns the default credential cache location.
func getDefaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

// getDefaultKeytabPath returns the default keytab location.
func getDefaultKeytabPath() string {
	if keytab := os.Getenv("KRB5_KTNAME"); keytab != "" {
		return strings.TrimPrefix(keytab, "FILE:")
	}
	return "/etc/krb5.keytab"
}

// fileExists checks if a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// generateExampleKrb5Conf generates example krb5.conf content for error messages.
func generateExampleKrb5Conf(realm string) string {
	if realm == "" {
		return "[libdefaults]\n    default_realm = YOUR.REALM.COM\n\n[realms]\n    YOUR.REALM.COM = {\n        kdc = your-kdc.realm.com:88\n    }"
	}

	domain := strings.ToLower(realm)
	kdcHost := "kdc." + domain

	return fmt.Sprintf(`[libdefaults]
    default_realm = %s
    dns_lookup_realm = false
    dns_lookup_kdc = false

[realms]
    %s = {
        kdc = %s:88
    }

[domain_realm]
    .%s = %s
    %s = %s`,
		realm,
		realm,
		kdcHost,
		domain, realm,
		domain, realm)
}
