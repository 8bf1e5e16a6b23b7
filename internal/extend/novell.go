package extend

import (
	"context"
	"fmt"
	"slices"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// eDirectory extended operation OIDs.
const (
	oidGetBindDNRequest            = "2.16.840.1.113719.1.27.100.31"
	oidGetBindDNResponse           = "2.16.840.1.113719.1.27.100.32"
	oidListReplicasRequest         = "2.16.840.1.113719.1.27.100.19"
	oidListReplicasResponse        = "2.16.840.1.113719.1.27.100.20"
	oidPartitionEntryCountRequest  = "2.16.840.1.113719.1.27.100.13"
	oidPartitionEntryCountResponse = "2.16.840.1.113719.1.27.100.14"
	oidReplicaInfoRequest          = "2.16.840.1.113719.1.27.100.17"
	oidReplicaInfoResponse         = "2.16.840.1.113719.1.27.100.18"
	oidNMASGetUniversalPwdRequest  = "2.16.840.1.113719.1.39.42.100.13"
	oidNMASGetUniversalPwdResponse = "2.16.840.1.113719.1.39.42.100.14"
	oidNMASSetUniversalPwdRequest  = "2.16.840.1.113719.1.39.42.100.11"
	oidNMASSetUniversalPwdResponse = "2.16.840.1.113719.1.39.42.100.12"
	nmasLDAPVersion                = 1
)

// ReplicaInfo describes one replica of a partition held by a server.
type ReplicaInfo struct {
	PartitionID      int64
	ReplicaState     int64
	ModificationTime time.Time
	PurgeTime        time.Time
	LocalPartitionID int64
	PartitionDN      string
	ReplicaType      int64
	Flags            int64
}

// Novell groups the eDirectory extended operations.
type Novell struct {
	session ldapclient.Session
}

// Operations lists the names of the eDirectory operations.
func (n *Novell) Operations() Catalog { return slices.Clone(novellCatalog) }

func (n *Novell) String() string { return novellCatalog.String() }

func (n *Novell) GetBindDN(ctx context.Context) (string, error) {
	return NewGetBindDNOperation(n.session).Send(ctx)
}

func (n *Novell) GetUniversalPassword(ctx context.Context, user string) (string, error) {
	return NewGetUniversalPasswordOperation(n.session, user).Send(ctx)
}

func (n *Novell) SetUniversalPassword(ctx context.Context, user, newPassword string) (bool, error) {
	return NewSetUniversalPasswordOperation(n.session, user, newPassword).Send(ctx)
}

func (n *Novell) ListReplicas(ctx context.Context, serverDN string) ([]string, error) {
	return NewListReplicasOperation(n.session, serverDN).Send(ctx)
}

func (n *Novell) PartitionEntryCount(ctx context.Context, partitionDN string) (int64, error) {
	return NewPartitionEntryCountOperation(n.session, partitionDN).Send(ctx)
}

func (n *Novell) ReplicaInfo(ctx context.Context, serverDN, partitionDN string) (*ReplicaInfo, error) {
	return NewReplicaInfoOperation(n.session, serverDN, partitionDN).Send(ctx)
}

// checkDN rejects empty or malformed distinguished names.
func checkDN(dns ...string) error {
	for _, dn := range dns {
		if dn == "" {
			return ErrMissingDN
		}
		if _, err := ldap.ParseDN(dn); err != nil {
			return fmt.Errorf("invalid DN %q: %w", dn, err)
		}
	}
	return nil
}

// NewGetBindDNOperation returns the DN the session is bound as.
func NewGetBindDNOperation(session ldapclient.Session) Operation[string] {
	return &extendedOperation[string]{
		session:      session,
		name:         "get_bind_dn",
		requestName:  oidGetBindDNRequest,
		responseName: oidGetBindDNResponse,
		decode: func(p *ber.Packet) (string, error) {
			// Anonymous sessions get no value back.
			if p == nil {
				return "", nil
			}
			return decodeOctetString(p, "identity")
		},
	}
}

// NewGetUniversalPasswordOperation reads the NMAS universal password of user.
func NewGetUniversalPasswordOperation(session ldapclient.Session, user string) Operation[string] {
	const name = "get_universal_password"

	value := ber.NewSequence("NMAS Get Universal Password Request")
	value.AppendChild(newInteger(nmasLDAPVersion, "NMAS LDAP Version"))
	value.AppendChild(newOctetString(user, "Request DN"))

	return &extendedOperation[string]{
		session:      session,
		name:         name,
		requestName:  oidNMASGetUniversalPwdRequest,
		responseName: oidNMASGetUniversalPwdResponse,
		value:        value,
		fields:       map[string]any{"user": user},
		invalid:      checkDN(user),
		decode: func(p *ber.Packet) (string, error) {
			children, err := decodeNMASResponse(name, p)
			if err != nil {
				return "", err
			}
			if len(children) < 3 {
				return "", nil
			}
			return decodeOctetString(children[2], "password")
		},
	}
}

// NewSetUniversalPasswordOperation sets the NMAS universal password of user.
func NewSetUniversalPasswordOperation(session ldapclient.Session, user, newPassword string) Operation[bool] {
	const name = "set_universal_password"

	value := ber.NewSequence("NMAS Set Universal Password Request")
	value.AppendChild(newInteger(nmasLDAPVersion, "NMAS LDAP Version"))
	value.AppendChild(newOctetString(user, "Request DN"))
	value.AppendChild(newOctetString(newPassword, "New Password"))

	return &extendedOperation[bool]{
		session:      session,
		name:         name,
		requestName:  oidNMASSetUniversalPwdRequest,
		responseName: oidNMASSetUniversalPwdResponse,
		value:        value,
		fields:       map[string]any{"user": user, "new_password": newPassword},
		invalid:      checkDN(user),
		decode: func(p *ber.Packet) (bool, error) {
			if _, err := decodeNMASResponse(name, p); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

// decodeNMASResponse checks SEQUENCE{version, err, ...} and turns a non-zero
// err into an error.
func decodeNMASResponse(operation string, p *ber.Packet) ([]*ber.Packet, error) {
	if err := requireValue(p); err != nil {
		return nil, err
	}
	children, err := decodeSequence(p, "NMAS response", 2)
	if err != nil {
		return nil, err
	}
	code, err := decodeInteger(children[1], "err")
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, nmasError(operation, code)
	}
	return children, nil
}

// NewListReplicasOperation lists the replicas held by serverDN.
func NewListReplicasOperation(session ldapclient.Session, serverDN string) Operation[[]string] {
	return &extendedOperation[[]string]{
		session:      session,
		name:         "list_replicas",
		requestName:  oidListReplicasRequest,
		responseName: oidListReplicasResponse,
		value:        newOctetString(serverDN, "Server DN"),
		fields:       map[string]any{"server_dn": serverDN},
		invalid:      checkDN(serverDN),
		decode: func(p *ber.Packet) ([]string, error) {
			replicas := make([]string, 0)
			if p == nil {
				return replicas, nil
			}
			children, err := decodeSequence(p, "replica list", 0)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				dn, err := decodeOctetString(child, "replica DN")
				if err != nil {
					return nil, err
				}
				replicas = append(replicas, dn)
			}
			return replicas, nil
		},
	}
}

// NewPartitionEntryCountOperation counts the entries in partitionDN.
func NewPartitionEntryCountOperation(session ldapclient.Session, partitionDN string) Operation[int64] {
	return &extendedOperation[int64]{
		session:      session,
		name:         "partition_entry_count",
		requestName:  oidPartitionEntryCountRequest,
		responseName: oidPartitionEntryCountResponse,
		value:        newOctetString(partitionDN, "Partition DN"),
		fields:       map[string]any{"partition_dn": partitionDN},
		invalid:      checkDN(partitionDN),
		decode: func(p *ber.Packet) (int64, error) {
			if err := requireValue(p); err != nil {
				return 0, err
			}
			return decodeInteger(p, "entry count")
		},
	}
}

// NewReplicaInfoOperation describes the replica of partitionDN on serverDN.
func NewReplicaInfoOperation(session ldapclient.Session, serverDN, partitionDN string) Operation[*ReplicaInfo] {
	value := ber.NewSequence("Replica Info Request")
	value.AppendChild(newOctetString(serverDN, "Server DN"))
	value.AppendChild(newOctetString(partitionDN, "Partition DN"))

	return &extendedOperation[*ReplicaInfo]{
		session:      session,
		name:         "replica_info",
		requestName:  oidReplicaInfoRequest,
		responseName: oidReplicaInfoResponse,
		value:        value,
		fields:       map[string]any{"server_dn": serverDN, "partition_dn": partitionDN},
		invalid:      checkDN(serverDN, partitionDN),
		decode:       decodeReplicaInfo,
	}
}

func decodeReplicaInfo(p *ber.Packet) (*ReplicaInfo, error) {
	if err := requireValue(p); err != nil {
		return nil, err
	}
	children, err := decodeSequence(p, "replica info", 8)
	if err != nil {
		return nil, err
	}

	var ints [8]int64
	for i, field := range []string{"partitionID", "replicaState", "modificationTime", "purgeTime", "localPartitionID", "", "replicaType", "flags"} {
		if field == "" {
			continue
		}
		if ints[i], err = decodeInteger(children[i], field); err != nil {
			return nil, err
		}
	}

	partitionDN, err := decodeOctetString(children[5], "partitionDN")
	if err != nil {
		return nil, err
	}

	return &ReplicaInfo{
		PartitionID:      ints[0],
		ReplicaState:     ints[1],
		ModificationTime: time.Unix(ints[2], 0).UTC(),
		PurgeTime:        time.Unix(ints[3], 0).UTC(),
		LocalPartitionID: ints[4],
		PartitionDN:      partitionDN,
		ReplicaType:      ints[6],
		Flags:            ints[7],
	}, nil
}
