package ldap

import (
	"crypto/tls"
	"time"
)

// ConnectionConfig holds configuration for dialing a single LDAP session.
type ConnectionConfig struct {
	// Connection settings
	URL     string        // LDAP or LDAPS URL
	Timeout time.Duration // Per-request timeout applied to the connection

	// Authentication settings
	Username       string // Bind DN, UPN, or Kerberos principal
	Password       string // Password for simple bind or Kerberos password auth
	KerberosRealm  string // Kerberos realm for GSSAPI authentication
	KerberosKeytab string // Path to Kerberos keytab file
	KerberosConfig string // Path to Kerberos config file (krb5.conf)
	KerberosCCache string // Path to Kerberos credential cache
	KerberosSPN    string // Override for the LDAP service principal

	// TLS settings
	TLSConfig         *tls.Config // Custom TLS configuration
	StartTLS          bool        // Upgrade ldap:// connections with StartTLS
	TLSClientCertFile string      // Path to client certificate file
	TLSClientKeyFile  string      // Path to client private key file
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Timeout: 30 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: false,
		},
	}
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the RFC 4516 URL form of the scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// ParseSearchScope accepts the URL forms plus a few common aliases.
func ParseSearchScope(s string) (SearchScope, bool) {
	switch s {
	case "base", "baseObject":
		return ScopeBaseObject, true
	case "one", "onelevel", "singleLevel", "level":
		return ScopeSingleLevel, true
	case "sub", "subtree", "wholeSubtree":
		return ScopeWholeSubtree, true
	default:
		return 0, false
	}
}

// DerefAliases defines alias dereferencing behavior.
type DerefAliases int

const (
	NeverDerefAliases DerefAliases = iota
	DerefInSearching
	DerefFindingBaseObj
	DerefAlways
)

func (d DerefAliases) String() string {
	switch d {
	case NeverDerefAliases:
		return "never"
	case DerefInSearching:
		return "searching"
	case DerefFindingBaseObj:
		return "finding"
	case DerefAlways:
		return "always"
	default:
		return "unknown"
	}
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthMethodSimpleBind AuthMethod = iota // Username/password authentication
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
	AuthMethodExternal                     // External/certificate authentication
	AuthMethodAnonymous                    // No bind
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	case AuthMethodExternal:
		return "external"
	case AuthMethodAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// GetAuthMethod determines the authentication method from the configuration.
func (c *ConnectionConfig) GetAuthMethod() AuthMethod {
	// Kerberos authentication takes precedence
	if c.KerberosRealm != "" && (c.KerberosKeytab != "" || c.KerberosCCache != "" || c.Username != "") {
		return AuthMethodKerberos
	}

	if c.Username != "" {
		return AuthMethodSimpleBind
	}

	// External authentication (certificates)
	if c.TLSClientCertFile != "" && c.TLSClientKeyFile != "" {
		return AuthMethodExternal
	}

	return AuthMethodAnonymous
}

// ConnectionError represents connection-related errors.
type ConnectionError struct {
	message string
	cause   error
}

func (e *ConnectionError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) *ConnectionError {
	return &ConnectionError{
		message: message,
		cause:   cause,
	}
}
