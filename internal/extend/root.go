package extend

import (
	"slices"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Root is the entry point to the operation catalog of one session. The
// session stays owned by the caller and is never closed here.
//
// Neither Root nor its namespaces are safe for concurrent use; callers
// sharing a session serialize access to it.
type Root struct {
	Standard  *Standard
	Novell    *Novell
	Microsoft *Microsoft
}

// New binds the catalog to session.
func New(session ldapclient.Session) *Root {
	return &Root{
		Standard:  &Standard{session: session},
		Novell:    &Novell{session: session},
		Microsoft: &Microsoft{session: session},
	}
}

// Operations lists the namespace names.
func (r *Root) Operations() Catalog { return slices.Clone(rootCatalog) }

func (r *Root) String() string { return rootCatalog.String() }

// Namespace returns the operation names of the named namespace.
func (r *Root) Namespace(name string) (Catalog, bool) {
	switch name {
	case "standard":
		return r.Standard.Operations(), true
	case "novell":
		return r.Novell.Operations(), true
	case "microsoft":
		return r.Microsoft.Operations(), true
	default:
		return nil, false
	}
}
