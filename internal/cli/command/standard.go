package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-ldapext/internal/cli/output"
	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// WhoAmICommand runs the RFC 4532 Who Am I operation.
func WhoAmICommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authorization identity of the bound session",
		Action: func(c *cli.Context) error {
			return withRoot(c, func(ctx context.Context, root *extend.Root) error {
				result, err := root.Standard.WhoAmI(ctx)
				if err != nil {
					return err
				}
				return render(c, newWhoAmIView(result))
			})
		},
	}
}

// SearchCommand runs a paged search. Text output is streamed page by page;
// json and yaml collect every entry first.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Paged search (RFC 2696)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base", Aliases: []string{"b"}, Usage: "Search base DN"},
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Search filter", Value: "(objectClass=*)"},
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Usage: "Scope: base, one, sub", Value: "sub"},
			&cli.StringSliceFlag{Name: "attr", Aliases: []string{"a"}, Usage: "Attribute to return (repeatable)"},
			&cli.IntFlag{Name: "page-size", Aliases: []string{"p"}, Usage: "Entries per page (default from page.size)"},
			&cli.BoolFlag{Name: "critical", Usage: "Mark the paging control critical"},
			&cli.BoolFlag{Name: "operational", Usage: "Also return operational attributes"},
			&cli.IntFlag{Name: "size-limit", Usage: "Maximum entries per page round"},
			&cli.DurationFlag{Name: "time-limit", Usage: "Server time limit per round"},
			&cli.BoolFlag{Name: "types-only", Usage: "Return attribute names only"},
		},
		Action: search,
	}
}

func searchRequest(c *cli.Context) (*extend.PagedSearchRequest, error) {
	scope, ok := ldapclient.ParseSearchScope(c.String("scope"))
	if !ok {
		return nil, fmt.Errorf("invalid scope %q: use base, one or sub", c.String("scope"))
	}

	req := extend.NewPagedSearchRequest(c.String("base"), c.String("filter"))
	req.Scope = scope
	req.Attributes = c.StringSlice("attr")
	req.PageSize = current(c).cfg.Page.Size
	if c.IsSet("page-size") {
		req.PageSize = c.Int("page-size")
	}
	req.Critical = c.Bool("critical")
	req.OperationalAttributes = c.Bool("operational")
	req.SizeLimit = c.Int("size-limit")
	req.TimeLimit = c.Duration("time-limit")
	req.TypesOnly = c.Bool("types-only")

	return req, nil
}

func search(c *cli.Context) error {
	req, err := searchRequest(c)
	if err != nil {
		return err
	}

	return withRoot(c, func(ctx context.Context, root *extend.Root) error {
		cursor, err := root.Standard.NewPagedSearch(req)
		if err != nil {
			return err
		}

		if output.Format(current(c).cfg.Output) == output.FormatText {
			w := writer(c)
			count := 0
			for entry, err := range cursor.Entries(ctx) {
				if err != nil {
					return err
				}
				if err := writeLDIF(w, entry); err != nil {
					return err
				}
				count++
			}
			_, err := fmt.Fprintf(w, "# %d entries in %d pages\n", count, cursor.Pages())
			return err
		}

		entries, err := cursor.All(ctx)
		if err != nil {
			return err
		}
		view := searchView{Entries: make([]entryView, len(entries)), Pages: cursor.Pages()}
		for i, entry := range entries {
			view.Entries[i] = newEntryView(entry)
		}
		return render(c, view)
	})
}

// PasswdCommand runs the RFC 3062 Password Modify operation.
func PasswdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "Change a password with the Password Modify extended operation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User identity (default: bound identity)"},
			&cli.StringFlag{Name: "old", Usage: "Current password"},
			&cli.StringFlag{Name: "new", Usage: "New password (empty: server generated)"},
			&cli.StringFlag{Name: "hash", Usage: "Hash the new password locally: " + hashNames()},
			&cli.StringFlag{Name: "salt", Usage: "Salt for salted schemes (default: random)"},
		},
		Action: passwd,
	}
}

func hashNames() string {
	var names []string
	for _, alg := range extend.HashAlgorithms() {
		names = append(names, string(alg))
	}
	return strings.Join(names, ", ")
}

func passwd(c *cli.Context) error {
	opts := extend.PasswordModifyOptions{
		User:        c.String("user"),
		OldPassword: c.String("old"),
		NewPassword: c.String("new"),
	}
	if c.IsSet("hash") {
		alg, err := extend.ParseHashAlgorithm(c.String("hash"))
		if err != nil {
			return err
		}
		opts.HashAlgorithm = alg
	}
	if c.IsSet("salt") {
		opts.Salt = []byte(c.String("salt"))
	}

	return withRoot(c, func(ctx context.Context, root *extend.Root) error {
		result, err := root.Standard.ModifyPassword(ctx, opts)
		if err != nil {
			return err
		}
		return render(c, passwordView{GeneratedPassword: result.GeneratedPassword})
	})
}
