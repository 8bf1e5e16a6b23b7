package ldap

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
)

// minSIDLength is revision + sub-authority count + 6-byte identifier authority.
const minSIDLength = 8

// SIDFromBytes converts a binary objectSid to its S-1-5-21-... form.
func SIDFromBytes(binarySID []byte) (string, error) {
	if len(binarySID) < minSIDLength {
		return "", fmt.Errorf("binary SID too short: %d bytes", len(binarySID))
	}

	count := int(binarySID[1])
	if len(binarySID) != minSIDLength+4*count {
		return "", fmt.Errorf("binary SID length %d does not match %d sub-authorities", len(binarySID), count)
	}

	return objectsid.Decode(binarySID).String(), nil
}

// ExtractSID returns the objectSid of entry as a string, or "" when absent.
func ExtractSID(entry *ldap.Entry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("LDAP entry cannot be nil")
	}

	raw := entry.GetEqualFoldRawAttributeValue("objectSid")
	if len(raw) == 0 {
		return "", nil
	}

	return SIDFromBytes(raw)
}
