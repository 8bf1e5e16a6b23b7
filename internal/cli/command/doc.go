// Package command defines the ldapext command-line tool.
//
// Each command dials one session, binds the operation catalog to it with
// extend.New, runs exactly one operation and prints the result in the
// selected output format (text, json or yaml). Connection settings come from
// global flags, LDAPEXT_* environment variables and ~/.ldapext/config.yaml.
//
//	ldapext operations
//	ldapext --url ldaps://dc1.example.com --bind-dn admin@example.com whoami
//	ldapext search --base dc=example,dc=com --filter '(objectClass=person)' --attr cn
//	ldapext novell list-replicas --server cn=server1,o=example
//	ldapext ad dirsync --base dc=example,dc=com --cookie "$COOKIE"
package command
