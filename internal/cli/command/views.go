package command

import (
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldif"
	"github.com/google/uuid"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// ldifFoldWidth is the line length RFC 2849 output is folded at.
const ldifFoldWidth = 76

type entryView struct {
	DN               string              `json:"dn" yaml:"dn"`
	Attributes       map[string][]string `json:"attributes" yaml:"attributes"`
	BinaryAttributes map[string][]string `json:"binary_attributes,omitempty" yaml:"binary_attributes,omitempty"`
}

func newEntryView(entry *ldap.Entry) entryView {
	values := make(map[string][]string, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		values[attr.Name] = attr.Values
	}
	text, binary := splitAttributes(values)
	return entryView{DN: entry.DN, Attributes: text, BinaryAttributes: binary}
}

// splitAttributes keeps attributes whose values are all UTF-8 as they are and
// moves the others to binary with every value base64 encoded.
func splitAttributes(attrs map[string][]string) (text, binary map[string][]string) {
	text = make(map[string][]string, len(attrs))
	for name, values := range attrs {
		if !slices.ContainsFunc(values, func(v string) bool { return !utf8.ValidString(v) }) {
			text[name] = values
			continue
		}
		if binary == nil {
			binary = make(map[string][]string)
		}
		encoded := make([]string, len(values))
		for i, v := range values {
			encoded[i] = base64.StdEncoding.EncodeToString([]byte(v))
		}
		binary[name] = encoded
	}
	return text, binary
}

// writeLDIF writes entry as one RFC 2849 record followed by a blank line.
func writeLDIF(w io.Writer, entry *ldap.Entry) error {
	record, err := ldif.ToLDIF(entry)
	if err != nil {
		return err
	}
	record.FoldWidth = ldifFoldWidth

	data, err := ldif.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s as LDIF: %w", entry.DN, err)
	}
	_, err = io.WriteString(w, strings.TrimRight(data, "\n")+"\n\n")
	return err
}

type searchView struct {
	Entries []entryView `json:"entries" yaml:"entries"`
	Pages   int         `json:"pages" yaml:"pages"`
}

type operationsView struct {
	Namespace  string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Operations []string `json:"operations" yaml:"operations"`
}

func (v operationsView) Text(w io.Writer) error {
	_, err := fmt.Fprintln(w, extend.Catalog(v.Operations).String())
	return err
}

type whoAmIView struct {
	AuthzID           string `json:"authz_id" yaml:"authz_id"`
	Format            string `json:"format" yaml:"format"`
	DN                string `json:"dn,omitempty" yaml:"dn,omitempty"`
	UserPrincipalName string `json:"user_principal_name,omitempty" yaml:"user_principal_name,omitempty"`
	SAMAccountName    string `json:"sam_account_name,omitempty" yaml:"sam_account_name,omitempty"`
	SID               string `json:"sid,omitempty" yaml:"sid,omitempty"`
}

func newWhoAmIView(r *ldapclient.WhoAmIResult) whoAmIView {
	return whoAmIView{
		AuthzID:           r.AuthzID,
		Format:            r.Format,
		DN:                r.DN,
		UserPrincipalName: r.UserPrincipalName,
		SAMAccountName:    r.SAMAccountName,
		SID:               r.SID,
	}
}

func (v whoAmIView) Text(w io.Writer) error {
	if v.AuthzID == "" {
		_, err := fmt.Fprintln(w, "anonymous")
		return err
	}
	_, err := fmt.Fprintln(w, v.AuthzID)
	return err
}

type passwordView struct {
	GeneratedPassword string `json:"generated_password,omitempty" yaml:"generated_password,omitempty"`
}

func (v passwordView) Text(w io.Writer) error {
	if v.GeneratedPassword != "" {
		_, err := fmt.Fprintln(w, v.GeneratedPassword)
		return err
	}
	_, err := fmt.Fprintln(w, "password changed")
	return err
}

// valueView wraps a single scalar result.
type valueView[T any] struct {
	Value T `json:"value" yaml:"value"`
}

func (v valueView[T]) Text(w io.Writer) error {
	_, err := fmt.Fprintln(w, v.Value)
	return err
}

type replicasView struct {
	Replicas []string `json:"replicas" yaml:"replicas"`
}

func (v replicasView) Text(w io.Writer) error {
	for _, dn := range v.Replicas {
		if _, err := fmt.Fprintln(w, dn); err != nil {
			return err
		}
	}
	return nil
}

type replicaInfoView struct {
	PartitionID      int64  `json:"partition_id" yaml:"partition_id"`
	ReplicaState     int64  `json:"replica_state" yaml:"replica_state"`
	ModificationTime string `json:"modification_time" yaml:"modification_time"`
	PurgeTime        string `json:"purge_time" yaml:"purge_time"`
	LocalPartitionID int64  `json:"local_partition_id" yaml:"local_partition_id"`
	PartitionDN      string `json:"partition_dn" yaml:"partition_dn"`
	ReplicaType      int64  `json:"replica_type" yaml:"replica_type"`
	Flags            int64  `json:"flags" yaml:"flags"`
}

func newReplicaInfoView(info *extend.ReplicaInfo) replicaInfoView {
	return replicaInfoView{
		PartitionID:      info.PartitionID,
		ReplicaState:     info.ReplicaState,
		ModificationTime: info.ModificationTime.Format(time.RFC3339),
		PurgeTime:        info.PurgeTime.Format(time.RFC3339),
		LocalPartitionID: info.LocalPartitionID,
		PartitionDN:      info.PartitionDN,
		ReplicaType:      info.ReplicaType,
		Flags:            info.Flags,
	}
}

func (v replicaInfoView) Text(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Partition DN:       %s\nPartition ID:       %d\nLocal partition ID: %d\nReplica type:       %d\nReplica state:      %d\nFlags:              %d\nModified:           %s\nPurged:             %s\n",
		v.PartitionDN, v.PartitionID, v.LocalPartitionID, v.ReplicaType, v.ReplicaState, v.Flags, v.ModificationTime, v.PurgeTime)
	return err
}

type changeView struct {
	DN               string              `json:"dn" yaml:"dn"`
	ObjectGUID       string              `json:"object_guid,omitempty" yaml:"object_guid,omitempty"`
	ObjectSID        string              `json:"object_sid,omitempty" yaml:"object_sid,omitempty"`
	Deleted          bool                `json:"deleted" yaml:"deleted"`
	Attributes       map[string][]string `json:"attributes" yaml:"attributes"`
	BinaryAttributes map[string][]string `json:"binary_attributes,omitempty" yaml:"binary_attributes,omitempty"`
}

func newChangeView(change *extend.Change) changeView {
	view := changeView{
		DN:        change.DN,
		ObjectSID: change.ObjectSID,
		Deleted:   change.Deleted,
	}
	if change.ObjectGUID != uuid.Nil {
		view.ObjectGUID = change.ObjectGUID.String()
	}
	view.Attributes, view.BinaryAttributes = splitAttributes(change.Attributes)
	return view
}

type dirSyncView struct {
	Changes []changeView `json:"changes" yaml:"changes"`
	Cookie  string       `json:"cookie" yaml:"cookie"`
}
