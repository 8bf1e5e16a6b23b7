package extend

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"
)

// HashAlgorithm names an RFC 2307 userPassword scheme.
type HashAlgorithm string

const (
	HashPlain   HashAlgorithm = "PLAIN"
	HashMD5     HashAlgorithm = "MD5"
	HashSHA     HashAlgorithm = "SHA"
	HashSHA256  HashAlgorithm = "SHA256"
	HashSHA384  HashAlgorithm = "SHA384"
	HashSHA512  HashAlgorithm = "SHA512"
	HashSMD5    HashAlgorithm = "SMD5"
	HashSSHA    HashAlgorithm = "SSHA"
	HashSSHA256 HashAlgorithm = "SSHA256"
	HashSSHA384 HashAlgorithm = "SSHA384"
	HashSSHA512 HashAlgorithm = "SSHA512"
)

// DefaultSaltLength is the number of random bytes used when no salt is given.
const DefaultSaltLength = 8

type hashScheme struct {
	digest func() hash.Hash
	salted bool
}

var hashSchemes = map[HashAlgorithm]hashScheme{
	HashMD5:     {digest: md5.New},
	HashSHA:     {digest: sha1.New},
	HashSHA256:  {digest: sha256.New},
	HashSHA384:  {digest: sha512.New384},
	HashSHA512:  {digest: sha512.New},
	HashSMD5:    {digest: md5.New, salted: true},
	HashSSHA:    {digest: sha1.New, salted: true},
	HashSSHA256: {digest: sha256.New, salted: true},
	HashSSHA384: {digest: sha512.New384, salted: true},
	HashSSHA512: {digest: sha512.New, salted: true},
}

// HashAlgorithms lists the supported schemes in a stable order.
func HashAlgorithms() []HashAlgorithm {
	return []HashAlgorithm{
		HashPlain, HashMD5, HashSHA, HashSHA256, HashSHA384, HashSHA512,
		HashSMD5, HashSSHA, HashSSHA256, HashSSHA384, HashSSHA512,
	}
}

// ParseHashAlgorithm accepts a scheme name in any case, with or without braces.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	name := HashAlgorithm(strings.ToUpper(strings.Trim(s, "{}")))
	if name == HashPlain {
		return name, nil
	}
	if _, ok := hashSchemes[name]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedHash, s)
}

// HashPassword renders password as {SCHEME}base64(digest). Salted schemes
// hash password||salt and append the salt to the digest; a nil salt is
// replaced with DefaultSaltLength random bytes. PLAIN returns the password
// unchanged.
func HashPassword(algorithm HashAlgorithm, password string, salt []byte) (string, error) {
	if algorithm == HashPlain {
		return password, nil
	}

	scheme, ok := hashSchemes[algorithm]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedHash, algorithm)
	}

	h := scheme.digest()
	h.Write([]byte(password))

	if !scheme.salted {
		return "{" + string(algorithm) + "}" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
	}

	if salt == nil {
		salt = make([]byte, DefaultSaltLength)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	h.Write(salt)
	sum := append(h.Sum(nil), salt...)
	return "{" + string(algorithm) + "}" + base64.StdEncoding.EncodeToString(sum), nil
}
