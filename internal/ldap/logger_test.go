package ldap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFields(t *testing.T) {
	fields := map[string]any{
		"user":         "cn=jdoe,dc=example,dc=com",
		"password":     "hunter2",
		"New_Password": "hunter3",
		"salt":         []byte{1, 2, 3},
		"filter":       "(&(uid=jdoe)(objectClass=person))",
		"note":         "password=leaked",
		"page":         2,
	}

	got := SanitizeFields(fields)

	assert.Equal(t, "cn=jdoe,dc=example,dc=com", got["user"])
	assert.Equal(t, "[REDACTED]", got["password"])
	assert.Equal(t, "[REDACTED]", got["New_Password"])
	assert.Equal(t, "[REDACTED]", got["salt"])
	assert.Equal(t, "[REDACTED]", got["note"])
	assert.Equal(t, "(&(uid=jdoe)(objectClass=person))", got["filter"])
	assert.Equal(t, 2, got["page"])

	assert.Equal(t, "hunter2", fields["password"], "input must not be modified")
}

func TestSanitizeFields_Nil(t *testing.T) {
	got := SanitizeFields(nil)
	assert.NotNil(t, got)
	got["x"] = 1
}

func TestLogOperation(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := LogOperation(ctx, "extend", "who_am_i", nil, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	fields := map[string]any{"password": "secret"}
	err = LogOperation(ctx, "extend", "modify_password", fields, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Len(t, fields, 1, "caller fields must not gain log keys")
}

func TestLogDataSourceOperation(t *testing.T) {
	done := LogDataSourceOperation(context.Background(), "ldapext_search", "read", nil)
	done(nil)
	done(errors.New("failed"))
}
