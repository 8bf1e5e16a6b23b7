package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-ldapext/internal/cli/output"
	"github.com/isometry/terraform-provider-ldapext/internal/extend"
)

// ADCommand groups the Active Directory operations.
func ADCommand() *cli.Command {
	return &cli.Command{
		Name:    "ad",
		Aliases: []string{"microsoft"},
		Usage:   "Active Directory operations",
		Subcommands: []*cli.Command{
			{
				Name:  "dirsync",
				Usage: "Fetch changes with the DirSync control; prints the cookie to resume from",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base", Aliases: []string{"b"}, Usage: "Naming context to synchronize", Required: true},
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Search filter"},
					&cli.StringSliceFlag{Name: "attr", Aliases: []string{"a"}, Usage: "Attribute to return (repeatable)"},
					&cli.StringFlag{Name: "cookie", Usage: "Base64 cookie from a previous run"},
					&cli.BoolFlag{Name: "hex-guid", Usage: "Request GUID and SID in hex form"},
					&cli.BoolFlag{Name: "object-security", Usage: "Only return objects the caller can read"},
					&cli.BoolFlag{Name: "public-only", Usage: "Omit secret attributes"},
					&cli.Int64Flag{Name: "max-length", Usage: "Maximum attribute bytes per response"},
				},
				Action: dirSync,
			},
			{
				Name:  "passwd",
				Usage: "Change (with --old) or reset a password through unicodePwd",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User DN", Required: true},
					&cli.StringFlag{Name: "new", Usage: "New password", Required: true},
					&cli.StringFlag{Name: "old", Usage: "Current password"},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						ok, err := root.Microsoft.ModifyPassword(ctx, c.String("user"), c.String("new"), c.String("old"))
						if err != nil {
							return err
						}
						return render(c, valueView[bool]{Value: ok})
					})
				},
			},
		},
	}
}

func dirSyncRequest(c *cli.Context) (*extend.DirSyncRequest, error) {
	req := extend.NewDirSyncRequest(c.String("base"))
	if c.IsSet("filter") {
		req.Filter = c.String("filter")
	}
	if c.IsSet("attr") {
		req.Attributes = c.StringSlice("attr")
	}
	if c.IsSet("max-length") {
		req.MaxLength = c.Int64("max-length")
	}
	if cookie := c.String("cookie"); cookie != "" {
		raw, err := base64.StdEncoding.DecodeString(cookie)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie: %w", err)
		}
		req.Cookie = raw
	}
	req.HexGUID = c.Bool("hex-guid")
	req.ObjectSecurity = c.Bool("object-security")
	req.PublicDataOnly = c.Bool("public-only")

	return req, nil
}

func dirSync(c *cli.Context) error {
	req, err := dirSyncRequest(c)
	if err != nil {
		return err
	}

	return withRoot(c, func(ctx context.Context, root *extend.Root) error {
		sync, err := root.Microsoft.DirSync(req)
		if err != nil {
			return err
		}

		var changes []*extend.Change
		for change, err := range sync.Changes(ctx) {
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		cookie := base64.StdEncoding.EncodeToString(sync.Cookie())

		if output.Format(current(c).cfg.Output) == output.FormatText {
			return writeChanges(writer(c), changes, cookie)
		}

		view := dirSyncView{Changes: make([]changeView, len(changes)), Cookie: cookie}
		for i, change := range changes {
			view.Changes[i] = newChangeView(change)
		}
		return render(c, view)
	})
}

// writeChanges prints changes as LDIF records, each preceded by comments
// carrying its identity, followed by the resume cookie.
func writeChanges(w io.Writer, changes []*extend.Change, cookie string) error {
	for _, change := range changes {
		if change.ObjectGUID != uuid.Nil {
			fmt.Fprintf(w, "# objectGUID: %s\n", change.ObjectGUID)
		}
		if change.ObjectSID != "" {
			fmt.Fprintf(w, "# objectSid: %s\n", change.ObjectSID)
		}
		if change.Deleted {
			fmt.Fprintln(w, "# deleted")
		}
		if err := writeLDIF(w, ldap.NewEntry(change.DN, change.Attributes)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "# cookie: %s\n", cookie)
	return err
}
