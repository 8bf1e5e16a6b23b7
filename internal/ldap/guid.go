package ldap

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// GUIDBytesLength is the size of an objectGUID value.
const GUIDBytesLength = 16

// GUIDFromBytes converts an Active Directory objectGUID to a UUID.
// AD stores the first three GUID fields little-endian (mixed-endian layout).
func GUIDFromBytes(guidBytes []byte) (uuid.UUID, error) {
	if len(guidBytes) != GUIDBytesLength {
		return uuid.Nil, fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(guidBytes))
	}

	standard := make([]byte, GUIDBytesLength)

	// Data1 (bytes 0-3)
	standard[0] = guidBytes[3]
	standard[1] = guidBytes[2]
	standard[2] = guidBytes[1]
	standard[3] = guidBytes[0]

	// Data2 (bytes 4-5)
	standard[4] = guidBytes[5]
	standard[5] = guidBytes[4]

	// Data3 (bytes 6-7)
	standard[6] = guidBytes[7]
	standard[7] = guidBytes[6]

	// Data4 (bytes 8-15) is already big-endian
	copy(standard[8:], guidBytes[8:])

	return uuid.FromBytes(standard)
}

// ExtractGUID returns the objectGUID of entry, or uuid.Nil when absent.
func ExtractGUID(entry *ldap.Entry) (uuid.UUID, error) {
	if entry == nil {
		return uuid.Nil, fmt.Errorf("LDAP entry cannot be nil")
	}

	raw := entry.GetEqualFoldRawAttributeValue("objectGUID")
	if len(raw) == 0 {
		return uuid.Nil, nil
	}

	return GUIDFromBytes(raw)
}
