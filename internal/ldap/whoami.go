package ldap

import (
	"regexp"
	"strings"
)

// WhoAmIResult is the outcome of the RFC 4532 "Who am I?" operation.
// AuthzID is exactly what the server returned; the remaining fields are
// derived from it.
type WhoAmIResult struct {
	AuthzID           string
	Format            string // dn, upn, sam, sid, empty, or unknown
	DN                string
	UserPrincipalName string
	SAMAccountName    string
	SID               string
}

var (
	dnPattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*=`)
	sidPattern = regexp.MustCompile(`^S-\d+-\d+(-\d+)+$`)
)

// NewWhoAmIResult wraps a raw authorization identity and classifies it.
func NewWhoAmIResult(authzID string) *WhoAmIResult {
	result := &WhoAmIResult{AuthzID: authzID}
	ParseAuthzID(result)
	return result
}

// ParseAuthzID fills the derived fields of result from result.AuthzID.
// RFC 4513 prefixes ("dn:" and "u:") are stripped before classification.
func ParseAuthzID(result *WhoAmIResult) {
	authzID := result.AuthzID

	if authzID == "" {
		result.Format = "empty"
		return
	}

	if dn, ok := strings.CutPrefix(authzID, "dn:"); ok {
		result.Format = "dn"
		result.DN = dn
		return
	}

	clean := strings.TrimPrefix(authzID, "u:")

	switch {
	case isDNFormat(clean):
		result.Format = "dn"
		result.DN = clean
	case strings.Contains(clean, "@") && !strings.Contains(clean, `\`):
		result.Format = "upn"
		result.UserPrincipalName = clean
	case strings.Contains(clean, `\`) && !strings.HasPrefix(clean, "S-"):
		result.Format = "sam"
		result.SAMAccountName = clean
	case sidPattern.MatchString(clean):
		result.Format = "sid"
		result.SID = clean
	default:
		result.Format = "unknown"
	}
}

// isDNFormat checks if the string looks like a Distinguished Name.
func isDNFormat(s string) bool {
	if !dnPattern.MatchString(s) {
		return false
	}
	upper := strings.ToUpper(s)
	return strings.Contains(upper, "CN=") || strings.Contains(upper, "OU=") ||
		strings.Contains(upper, "DC=") || strings.Contains(upper, "UID=") || strings.Contains(upper, "O=")
}
