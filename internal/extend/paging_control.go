package extend

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
)

// pagedResultsControl is the RFC 2696 request control. It encodes exactly as
// ldap.ControlPaging, which has no way to express criticality, plus the
// criticality field when critical is set.
type pagedResultsControl struct {
	size     uint32
	cookie   []byte
	critical bool
}

var _ ldap.Control = (*pagedResultsControl)(nil)

func (c *pagedResultsControl) GetControlType() string {
	return ldap.ControlTypePaging
}

func (c *pagedResultsControl) Encode() *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, ldap.ControlTypePaging, "Control Type ("+ldap.ControlTypeMap[ldap.ControlTypePaging]+")"))
	if c.critical {
		packet.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, true, "Criticality"))
	}

	value := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value (Paging)")
	seq := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Search Control Value")
	seq.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(c.size), "Paging Size"))
	cookie := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Cookie")
	cookie.Value = c.cookie
	cookie.Data.Write(c.cookie)
	seq.AppendChild(cookie)
	value.AppendChild(seq)

	packet.AppendChild(value)
	return packet
}

func (c *pagedResultsControl) String() string {
	return fmt.Sprintf("Control Type: %s (%q)  Criticality: %t  PagingSize: %d  Cookie: %q",
		ldap.ControlTypeMap[ldap.ControlTypePaging], ldap.ControlTypePaging, c.critical, c.size, c.cookie)
}

// responseCookie extracts the continuation cookie from a search response. A
// missing paging control yields a nil cookie, which ends the search.
func responseCookie(controls []ldap.Control) []byte {
	if c, ok := ldap.FindControl(controls, ldap.ControlTypePaging).(*ldap.ControlPaging); ok {
		return c.Cookie
	}
	return nil
}
