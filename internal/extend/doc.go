/*
Package extend is the catalog of LDAP extended operations and the paged
search engine.

A Root is obtained for a connected, authenticated session and exposes three
namespaces:

	root := extend.New(conn)
	id, err := root.Standard.WhoAmI(ctx)
	count, err := root.Novell.PartitionEntryCount(ctx, "o=example")
	sync, err := root.Microsoft.DirSync(extend.NewDirSyncRequest("dc=example,dc=com"))

Each namespace lists its operations with Operations; nothing is sent to the
server to do so.

# Paged search

PagedSearch threads the RFC 2696 cookie from one page to the next until the
server returns an empty cookie. Standard.PagedSearch returns the entries as a
lazy iter.Seq2 that performs one round trip per page on demand, and
Standard.PagedSearchAll collects them:

	req := extend.NewPagedSearchRequest("ou=people,dc=example,dc=com", "(objectClass=person)")
	req.PageSize = 500
	seq, err := root.Standard.PagedSearch(ctx, req)
	if err != nil {
		return err
	}
	for entry, err := range seq {
		if err != nil {
			return err
		}
		fmt.Println(entry.DN)
	}

Cursors are single use. After completion, a failed round, or a break out of
the loop, further rounds fail with ErrCursorExhausted.
*/
package extend
