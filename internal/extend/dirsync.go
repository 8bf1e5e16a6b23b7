package extend

import (
	"context"
	"encoding/hex"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/creasty/defaults"
	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

const dirSyncOperation = "dir_sync"

// DirSyncRequest configures an Active Directory DirSync cursor
// (MS-ADTS 3.1.1.3.4.1.3). Use NewDirSyncRequest for the usual defaults.
type DirSyncRequest struct {
	SyncBase   string
	Filter     string   `default:"(objectclass=*)"`
	Attributes []string `default:"[\"*\"]"`
	// Cookie resumes a previous synchronization; nil starts from scratch.
	Cookie []byte

	ObjectSecurity    bool
	AncestorsFirst    bool `default:"true"`
	PublicDataOnly    bool
	IncrementalValues bool  `default:"true"`
	MaxLength         int64 `default:"2147483647"`
	// HexGUID asks for GUID and SID in the extended DN as hex strings.
	HexGUID bool
}

// NewDirSyncRequest returns a request for every object under syncBase with
// all attributes, ancestors first and incremental values.
func NewDirSyncRequest(syncBase string) *DirSyncRequest {
	req := &DirSyncRequest{SyncBase: syncBase}
	if err := defaults.Set(req); err != nil {
		panic(fmt.Sprintf("dirsync defaults: %v", err))
	}
	return req
}

// Flags returns the DirSync control flags for the request.
func (r *DirSyncRequest) Flags() int64 {
	var flags int64
	if r.ObjectSecurity {
		flags |= ldap.DirSyncObjectSecurity
	}
	if r.AncestorsFirst {
		flags |= ldap.DirSyncAncestorsFirstOrder
	}
	if r.PublicDataOnly {
		flags |= ldap.DirSyncPublicDataOnly
	}
	if r.IncrementalValues {
		flags |= ldap.DirSyncIncrementalValues
	}
	return flags
}

// DirSync polls a naming context for changes. Each Loop is one search that
// returns the changes since the last cookie. Unlike a paged search the cursor
// stays usable after MoreResults turns false; a later Loop picks up newer
// changes.
//
// A DirSync is not safe for concurrent use.
type DirSync struct {
	session ldapclient.Session
	request DirSyncRequest
	cookie  []byte
	more    bool
	rounds  int
}

// NewDirSync validates req and returns a cursor. Empty Filter, Attributes and
// MaxLength fall back to their defaults.
func NewDirSync(session ldapclient.Session, req *DirSyncRequest) (*DirSync, error) {
	if req == nil {
		return nil, validationError(dirSyncOperation, ErrNilRequest)
	}
	if req.SyncBase == "" {
		return nil, validationError(dirSyncOperation, ErrMissingSyncBase)
	}

	d := &DirSync{
		session: session,
		request: *req,
		cookie:  req.Cookie,
		more:    true,
	}
	if d.request.Filter == "" {
		d.request.Filter = "(objectclass=*)"
	}
	if len(d.request.Attributes) == 0 {
		d.request.Attributes = []string{"*"}
	}
	if d.request.MaxLength <= 0 {
		d.request.MaxLength = math.MaxInt32
	}

	if _, err := ldap.CompileFilter(d.request.Filter); err != nil {
		return nil, validationError(dirSyncOperation, fmt.Errorf("invalid filter %q: %w", d.request.Filter, err))
	}

	return d, nil
}

// Cookie is the resume point after the last Loop.
func (d *DirSync) Cookie() []byte { return d.cookie }

// MoreResults reports whether the server has more changes ready now.
func (d *DirSync) MoreResults() bool { return d.more }

// Loop fetches the next batch of changed entries.
func (d *DirSync) Loop(ctx context.Context) ([]*ldap.Entry, error) {
	fields := map[string]any{
		"sync_base":     d.request.SyncBase,
		"round":         d.rounds + 1,
		"flags":         d.request.Flags(),
		"cookie_length": len(d.cookie),
	}

	return invoke(ctx, dirSyncOperation, fields, func() ([]*ldap.Entry, error) {
		result, err := d.session.Search(d.searchRequest())
		if err != nil {
			return nil, err
		}

		control, ok := ldap.FindControl(result.Controls, ldap.ControlTypeDirSync).(*ldap.ControlDirSync)
		if !ok {
			return nil, protocolError(dirSyncOperation, ErrMissingDirSyncControl)
		}

		d.rounds++
		d.cookie = control.Cookie
		d.more = control.Flags != 0

		return result.Entries, nil
	})
}

func (d *DirSync) searchRequest() *ldap.SearchRequest {
	controls := []ldap.Control{
		ldap.NewRequestControlDirSync(d.request.Flags(), d.request.MaxLength, d.cookie),
		&extendedDNControl{hex: d.request.HexGUID},
		ldap.NewControlMicrosoftShowDeleted(),
	}

	return ldap.NewSearchRequest(
		d.request.SyncBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		0,
		false,
		d.request.Filter,
		d.request.Attributes,
		controls,
	)
}

// Changes runs Loop until the server reports no more results and yields every
// change in order. A failing round yields its error and ends the sequence.
func (d *DirSync) Changes(ctx context.Context) iter.Seq2[*Change, error] {
	return func(yield func(*Change, error) bool) {
		for {
			entries, err := d.Loop(ctx)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, entry := range entries {
				change, err := NewChange(entry)
				if err != nil {
					yield(nil, protocolError(dirSyncOperation, err))
					return
				}
				if !yield(change, nil) {
					return
				}
			}

			if !d.more {
				return
			}
		}
	}
}

// Change is one entry returned by DirSync.
type Change struct {
	DN         string
	ObjectGUID uuid.UUID
	ObjectSID  string
	Deleted    bool
	Attributes map[string][]string
}

// NewChange decodes entry. Identity is taken from the extended DN when the
// server sent one and from objectGUID and objectSid otherwise.
func NewChange(entry *ldap.Entry) (*Change, error) {
	if entry == nil {
		return nil, fmt.Errorf("entry must not be nil")
	}

	dn, ext, err := parseExtendedDN(entry.DN)
	if err != nil {
		return nil, err
	}

	change := &Change{
		DN:         dn,
		ObjectGUID: ext.guid,
		ObjectSID:  ext.sid,
		Attributes: make(map[string][]string, len(entry.Attributes)),
	}

	if change.ObjectGUID == uuid.Nil {
		if change.ObjectGUID, err = ldapclient.ExtractGUID(entry); err != nil {
			return nil, err
		}
	}
	if change.ObjectSID == "" {
		if change.ObjectSID, err = ldapclient.ExtractSID(entry); err != nil {
			return nil, err
		}
	}

	for _, attr := range entry.Attributes {
		switch {
		case strings.EqualFold(attr.Name, "objectGUID"), strings.EqualFold(attr.Name, "objectSid"):
			continue
		case strings.EqualFold(attr.Name, "isDeleted"):
			change.Deleted = len(attr.Values) > 0 && strings.EqualFold(attr.Values[0], "TRUE")
		}
		change.Attributes[attr.Name] = attr.Values
	}

	return change, nil
}

type extendedDN struct {
	guid uuid.UUID
	sid  string
}

// parseExtendedDN splits "<GUID=..>;<SID=..>;dn" into its parts. Both the hex
// and the string forms are understood. A plain DN is returned unchanged.
func parseExtendedDN(s string) (string, extendedDN, error) {
	var ext extendedDN

	for strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return "", ext, fmt.Errorf("malformed extended DN %q", s)
		}

		key, value, ok := strings.Cut(s[1:end], "=")
		if !ok {
			return "", ext, fmt.Errorf("malformed extended DN component %q", s[:end+1])
		}

		var err error
		switch strings.ToUpper(key) {
		case "GUID":
			ext.guid, err = parseExtendedGUID(value)
		case "SID":
			ext.sid, err = parseExtendedSID(value)
		}
		if err != nil {
			return "", ext, fmt.Errorf("extended DN %s: %w", key, err)
		}

		s = strings.TrimPrefix(s[end+1:], ";")
	}

	return s, ext, nil
}

func parseExtendedGUID(value string) (uuid.UUID, error) {
	if len(value) == 2*ldapclient.GUIDBytesLength && !strings.Contains(value, "-") {
		raw, err := hex.DecodeString(value)
		if err != nil {
			return uuid.Nil, err
		}
		return ldapclient.GUIDFromBytes(raw)
	}
	return uuid.Parse(value)
}

func parseExtendedSID(value string) (string, error) {
	if strings.HasPrefix(strings.ToUpper(value), "S-") {
		return value, nil
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return "", err
	}
	return ldapclient.SIDFromBytes(raw)
}

// extendedDNControl is the LDAP_SERVER_EXTENDED_DN_OID control. go-ldap
// knows the OID but has no encoder for it.
type extendedDNControl struct {
	hex bool
}

var _ ldap.Control = (*extendedDNControl)(nil)

func (c *extendedDNControl) GetControlType() string {
	return ldap.ControlTypeMicrosoftExtendedDN
}

// Encode sends option 0 for hex and 1 for the string form.
func (c *extendedDNControl) Encode() *ber.Packet {
	option := int64(1)
	if c.hex {
		option = 0
	}

	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, ldap.ControlTypeMicrosoftExtendedDN, "Control Type ("+ldap.ControlTypeMap[ldap.ControlTypeMicrosoftExtendedDN]+")"))

	value := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value (Extended DN)")
	seq := ber.NewSequence("ExtendedDNRequestValue")
	seq.AppendChild(newInteger(option, "Flag"))
	value.AppendChild(seq)
	packet.AppendChild(value)

	return packet
}

func (c *extendedDNControl) String() string {
	return fmt.Sprintf("Control Type: %s (%q)  Criticality: false  Hex: %t",
		ldap.ControlTypeMap[ldap.ControlTypeMicrosoftExtendedDN], ldap.ControlTypeMicrosoftExtendedDN, c.hex)
}
