package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
)

// NovellCommand groups the eDirectory extended operations.
func NovellCommand() *cli.Command {
	return &cli.Command{
		Name:    "novell",
		Aliases: []string{"edir"},
		Usage:   "eDirectory extended operations",
		Subcommands: []*cli.Command{
			{
				Name:  "bind-dn",
				Usage: "Show the DN the session is bound as",
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						dn, err := root.Novell.GetBindDN(ctx)
						if err != nil {
							return err
						}
						return render(c, valueView[string]{Value: dn})
					})
				},
			},
			{
				Name:  "list-replicas",
				Usage: "List the replicas held by a server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Usage: "Server DN", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						replicas, err := root.Novell.ListReplicas(ctx, c.String("server"))
						if err != nil {
							return err
						}
						return render(c, replicasView{Replicas: replicas})
					})
				},
			},
			{
				Name:  "entry-count",
				Usage: "Count the entries in a partition",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "partition", Usage: "Partition root DN", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						count, err := root.Novell.PartitionEntryCount(ctx, c.String("partition"))
						if err != nil {
							return err
						}
						return render(c, valueView[int64]{Value: count})
					})
				},
			},
			{
				Name:  "replica-info",
				Usage: "Describe the replica of a partition on a server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Usage: "Server DN", Required: true},
					&cli.StringFlag{Name: "partition", Usage: "Partition root DN", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						info, err := root.Novell.ReplicaInfo(ctx, c.String("server"), c.String("partition"))
						if err != nil {
							return err
						}
						return render(c, newReplicaInfoView(info))
					})
				},
			},
			{
				Name:  "get-password",
				Usage: "Read a universal password through NMAS",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "User DN", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						password, err := root.Novell.GetUniversalPassword(ctx, c.String("user"))
						if err != nil {
							return err
						}
						return render(c, valueView[string]{Value: password})
					})
				},
			},
			{
				Name:  "set-password",
				Usage: "Set a universal password through NMAS",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "User DN", Required: true},
					&cli.StringFlag{Name: "password", Usage: "New password", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withRoot(c, func(ctx context.Context, root *extend.Root) error {
						ok, err := root.Novell.SetUniversalPassword(ctx, c.String("user"), c.String("password"))
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
