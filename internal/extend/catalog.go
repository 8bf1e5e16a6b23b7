package extend

import "strings"

// Catalog is the fixed list of names exposed by a namespace.
type Catalog []string

// String renders one name per line, indented by two spaces.
func (c Catalog) String() string {
	var b strings.Builder
	for i, name := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(name)
	}
	return b.String()
}

var (
	rootCatalog      = Catalog{"microsoft", "novell", "standard"}
	standardCatalog  = Catalog{"modify_password", "paged_search", "who_am_i"}
	novellCatalog    = Catalog{"get_bind_dn", "get_universal_password", "list_replicas", "partition_entry_count", "replica_info", "set_universal_password"}
	microsoftCatalog = Catalog{"dir_sync", "modify_password"}
)
