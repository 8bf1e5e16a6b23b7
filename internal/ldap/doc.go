/*
Package ldap provides the session plumbing shared by the ldapext tool and
Terraform provider.

# Sessions

Session is the narrow view of a go-ldap connection used by the extended
operation catalog in package extend. Dial opens a single connection and binds
it using one of:

  - Simple bind (DN or UPN with password, or an unauthenticated bind)
  - Kerberos GSSAPI (credential cache, keytab, or password)
  - SASL EXTERNAL over a TLS client certificate
  - Anonymous (no bind)

There is no pooling and no retry; a failed request is reported to the caller.

# Errors

LDAPError wraps go-ldap result errors with the operation name, a category,
the result code and server diagnostic, and for paged searches the page that
failed. Local parameter problems are reported with ErrorCategoryValidation
before any request reaches the server.

# Logging

All helpers log through terraform-plugin-log subsystems ("ldap", "kerberos",
"extend", "provider"). Sensitive fields are redacted by SanitizeFields.

# Active Directory values

GUIDFromBytes and SIDFromBytes decode objectGUID and objectSid values as
returned by Active Directory.
*/
package ldap
