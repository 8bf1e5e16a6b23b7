package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-ldapext/internal/extend"
)

// OperationsCommand lists the catalog. It never dials.
func OperationsCommand() *cli.Command {
	return &cli.Command{
		Name:      "operations",
		Aliases:   []string{"ops"},
		Usage:     "List namespaces, or the operations of one namespace",
		ArgsUsage: "[standard|novell|microsoft]",
		Action:    listOperations,
	}
}

func listOperations(c *cli.Context) error {
	root := extend.New(nil)

	name := c.Args().First()
	if name == "" {
		return render(c, operationsView{Operations: root.Operations()})
	}

	ops, ok := root.Namespace(name)
	if !ok {
		return fmt.Errorf("unknown namespace %q; namespaces are:\n%s", name, root)
	}
	return render(c, operationsView{Namespace: name, Operations: ops})
}
