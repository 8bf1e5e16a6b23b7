package extend

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	tests := []struct {
		algorithm HashAlgorithm
		want      string
	}{
		{HashPlain, "password"},
		{HashMD5, "{MD5}X03MO1qnZdYdgyfeuILPmQ=="},
		{HashSHA, "{SHA}W6ph5Mm5Pz8GgiULbPgzG37mj9g="},
		{HashSHA256, "{SHA256}XohImNooBHFR0OVvjcYpJ3NgPQ1qq73WKhHvch0VQtg="},
		{HashSHA384, "{SHA384}qLZLq9CsqRpZvbt3YbQh1PK7OCgNOnW6DyHyvrxFWD1EbFmGYMlM5oDEfRnDB4On"},
		{HashSHA512, "{SHA512}sQnzu7wkTrgkQZF+0G1hi5AI3Qmzvv0bXgc5THBqi7mAsdd4Xll27ASbRt9fEyavWi6m0QP9B8lThf+rDKy8hg=="},
		{HashSMD5, "{SMD5}57CXHlLKXMjQU5+zQS9jFgECAwQFBgcI"},
		{HashSSHA, "{SSHA}N+vXsN2ny8mTqd6ZYuHcJVHvE00BAgMEBQYHCA=="},
		{HashSSHA256, "{SSHA256}JDUXfxQQU2uq0qzBVcD5R4PVg4RXPLD3IVdENgYoXT8BAgMEBQYHCA=="},
		{HashSSHA384, "{SSHA384}5p6w67a9t0xiyNCQnbNtJgjIDrfdIbXIRQiFz+1jTCpTbT7lAfPWOVLVBY9GhNB+AQIDBAUGBwg="},
		{HashSSHA512, "{SSHA512}cwNVhOuAAA1oPn+CL+wS1f0tPZracezN0yYU0xqYornXQBQ9qBELs44UJoU10/Tk7xHjUDA1r9zldrcPUqHBNAECAwQFBgcI"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algorithm), func(t *testing.T) {
			got, err := HashPassword(tt.algorithm, "password", salt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashPassword_RandomSalt(t *testing.T) {
	first, err := HashPassword(HashSSHA, "password", nil)
	require.NoError(t, err)
	second, err := HashPassword(HashSSHA, "password", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(first, "{SSHA}"))
	require.NoError(t, err)
	require.Len(t, raw, sha1.Size+DefaultSaltLength)

	salt := raw[sha1.Size:]
	again, err := HashPassword(HashSSHA, "password", salt)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestHashPassword_Unsupported(t *testing.T) {
	_, err := HashPassword("CRYPT", "password", nil)
	assert.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestParseHashAlgorithm(t *testing.T) {
	for _, in := range []string{"ssha", "{SSHA}", "SSHA"} {
		got, err := ParseHashAlgorithm(in)
		require.NoError(t, err)
		assert.Equal(t, HashSSHA, got)
	}

	got, err := ParseHashAlgorithm("plain")
	require.NoError(t, err)
	assert.Equal(t, HashPlain, got)

	_, err = ParseHashAlgorithm("bcrypt")
	assert.ErrorIs(t, err, ErrUnsupportedHash)

	for _, algorithm := range HashAlgorithms() {
		parsed, err := ParseHashAlgorithm(string(algorithm))
		require.NoError(t, err)
		assert.Equal(t, algorithm, parsed)
	}
}
