// Package config loads the ldapext command-line configuration.
//
// Values are layered with the following priority (highest first):
//
//  1. command-line flags
//  2. LDAPEXT_* environment variables (LDAPEXT_BIND_DN sets bind.dn)
//  3. the YAML configuration file
//  4. struct defaults
//
// A minimal configuration file:
//
//	url: ldaps://ldap.example.com
//	bind:
//	  dn: cn=admin,dc=example,dc=com
//	page:
//	  size: 500
package config
