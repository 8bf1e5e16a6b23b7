// Package main provides the entry point for ldapext.
//
// ldapext runs LDAP extended operations and paged searches from the command
// line. Run "ldapext operations" to list what each namespace offers.
package main

import (
	"fmt"
	"os"

	"github.com/isometry/terraform-provider-ldapext/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
