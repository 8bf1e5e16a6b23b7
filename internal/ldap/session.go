package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Session is the subset of a connected, authenticated LDAP connection that the
// extended operation catalog needs. A Session is not safe for concurrent use
// by the catalog; callers serialize access.
type Session interface {
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	Extended(er *ldap.ExtendedRequest) (*ldap.ExtendedResponse, error)
	WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error)
	PasswordModify(passwordModifyRequest *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error)
	Modify(modifyRequest *ldap.ModifyRequest) error
}

var _ Session = (*ldap.Conn)(nil)

// Dial opens and authenticates a single LDAP connection. The caller owns the
// returned connection and must Close it.
func Dial(ctx context.Context, cfg *ConnectionConfig) (*ldap.Conn, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.URL == "" {
		return nil, NewConnectionError("LDAP URL is required", nil)
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, NewConnectionError("invalid LDAP URL", err)
	}

	fields := map[string]any{
		"url":         cfg.URL,
		"auth_method": cfg.GetAuthMethod().String(),
		"start_tls":   cfg.StartTLS,
	}
	LogConnectionEvent(ctx, "connection_attempt", fields)

	tlsConfig, err := buildTLSConfig(cfg, u.Hostname())
	if err != nil {
		return nil, NewConnectionError("failed to build TLS configuration", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	var conn *ldap.Conn
	if strings.EqualFold(u.Scheme, "ldaps") {
		conn, err = ldap.DialURL(cfg.URL, ldap.DialWithTLSConfig(tlsConfig))
	} else {
		conn, err = ldap.DialURL(cfg.URL)
		if err == nil && cfg.StartTLS {
			if tlsErr := conn.StartTLS(tlsConfig); tlsErr != nil {
				conn.Close()
				err = fmt.Errorf("StartTLS failed: %w", tlsErr)
			}
		}
	}
	if err != nil {
		fields["error"] = err.Error()
		LogConnectionEvent(ctx, "connection_failed", fields)
		return nil, NewConnectionError("failed to connect to "+u.Host, err)
	}

	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}

	if err := authenticate(ctx, conn, cfg, u.Hostname()); err != nil {
		conn.Close()
		return nil, err
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	LogConnectionEvent(ctx, "connection_established", fields)

	return conn, nil
}

func buildTLSConfig(cfg *ConnectionConfig, serverName string) (*tls.Config, error) {
	var tlsConfig *tls.Config
	if cfg.TLSConfig != nil {
		tlsConfig = cfg.TLSConfig.Clone()
	} else {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = serverName
	}

	if cfg.TLSClientCertFile != "" && cfg.TLSClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSClientCertFile, cfg.TLSClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = append(tlsConfig.Certificates, cert)
	}

	return tlsConfig, nil
}

// authenticate performs authentication based on the configured method.
func authenticate(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig, host string) error {
	authMethod := cfg.GetAuthMethod()

	tflog.SubsystemDebug(ctx, "ldap", "Performing authentication", map[string]any{
		"auth_method": authMethod.String(),
	})

	start := time.Now()
	var err error

	switch authMethod {
	case AuthMethodSimpleBind:
		err = authenticateSimple(ctx, conn, cfg)
	case AuthMethodKerberos:
		err = performKerberosAuth(ctx, conn, cfg, host)
	case AuthMethodExternal:
		err = conn.ExternalBind()
	case AuthMethodAnonymous:
		return nil
	default:
		err = fmt.Errorf("unsupported authentication method: %s", authMethod.String())
	}

	if err != nil {
		LogConnectionEvent(ctx, "authentication_failed", map[string]any{
			"auth_method": authMethod.String(),
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return WrapError("bind", err)
	}

	LogConnectionEvent(ctx, "authentication_success", map[string]any{
		"auth_method": authMethod.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

// authenticateSimple performs simple bind authentication.
func authenticateSimple(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig) error {
	fields := map[string]any{
		"username":        cfg.Username,
		"unauthenticated": cfg.Password == "",
	}

	tflog.SubsystemDebug(ctx, "ldap", "Performing simple bind", fields)

	var err error
	if cfg.Password == "" {
		err = conn.UnauthenticatedBind(cfg.Username)
	} else {
		err = conn.Bind(cfg.Username, cfg.Password)
	}

	if err != nil {
		LogLDAPError(ctx, "ldap", "simple_bind", err, fields)
		return err
	}

	return nil
}
