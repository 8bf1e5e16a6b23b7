package provider

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// Environment variables for acceptance test configuration.
const (
	EnvTestURL      = "LDAPEXT_TEST_URL"
	EnvTestBindDN   = "LDAPEXT_TEST_BIND_DN"
	EnvTestPassword = "LDAPEXT_TEST_PASSWORD"
	EnvTestBaseDN   = "LDAPEXT_TEST_BASE_DN"
	EnvTestKeytab   = "LDAPEXT_TEST_KEYTAB"
	EnvTestRealm    = "LDAPEXT_TEST_REALM"
	// EnvTestEDirectory marks the test directory as eDirectory, enabling the
	// Novell data source tests.
	EnvTestEDirectory = "LDAPEXT_TEST_EDIRECTORY"

	DefaultTestBaseDN = "dc=example,dc=com"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	URL         string
	BindDN      string
	Password    string
	BaseDN      string
	Keytab      string
	Realm       string
	UseKerberos bool
	EDirectory  bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		URL:        os.Getenv(EnvTestURL),
		BindDN:     os.Getenv(EnvTestBindDN),
		Password:   os.Getenv(EnvTestPassword),
		BaseDN:     getEnvWithDefault(EnvTestBaseDN, DefaultTestBaseDN),
		Keytab:     os.Getenv(EnvTestKeytab),
		Realm:      os.Getenv(EnvTestRealm),
		EDirectory: os.Getenv(EnvTestEDirectory) != "",
	}

	config.UseKerberos = config.Keytab != "" && config.Realm != ""

	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig skips unless TF_ACC is set and a directory is
// configured. Anonymous binds are allowed.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.URL == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestURL)
	}

	if config.BindDN != "" && config.Password == "" && !config.UseKerberos {
		t.Skipf("Skipping test: %s must be set with %s (or configure Kerberos)", EnvTestPassword, EnvTestBindDN)
	}

	return config
}

// TestProviderConfig generates the provider block for acceptance tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var b strings.Builder
	b.WriteString("provider \"ldapext\" {\n")
	fmt.Fprintf(&b, "  url = %q\n", config.URL)

	if config.BindDN != "" {
		fmt.Fprintf(&b, "  bind_dn = %q\n", config.BindDN)
	}

	if config.UseKerberos {
		fmt.Fprintf(&b, "  kerberos_realm  = %q\n", config.Realm)
		fmt.Fprintf(&b, "  kerberos_keytab = %q\n", config.Keytab)
	} else if config.Password != "" {
		fmt.Fprintf(&b, "  password = %q\n", config.Password)
	}

	b.WriteString("}\n")
	return b.String()
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
