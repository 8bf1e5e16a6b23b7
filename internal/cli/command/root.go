package command

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-ldapext/internal/cli/output"
	"github.com/isometry/terraform-provider-ldapext/internal/config"
	"github.com/isometry/terraform-provider-ldapext/internal/extend"
	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const (
	stateKey     = "state"
	logEnvPrefix = "LDAPEXT_LOG"
)

// Conn is a session the command owns and closes.
type Conn interface {
	ldapclient.Session
	Close() error
}

// Dialer opens the session used by one command.
type Dialer func(ctx context.Context, cfg *ldapclient.ConnectionConfig) (Conn, error)

func dialLDAP(ctx context.Context, cfg *ldapclient.ConnectionConfig) (Conn, error) {
	conn, err := ldapclient.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// App returns the ldapext application.
func App() *cli.App {
	return NewApp(dialLDAP)
}

// NewApp returns the application with a custom dialer.
func NewApp(dial Dialer) *cli.App {
	return &cli.App{
		Name:    "ldapext",
		Usage:   "Run LDAP extended operations and paged searches",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			OperationsCommand(),
			WhoAmICommand(),
			SearchCommand(),
			PasswdCommand(),
			NovellCommand(),
			ADCommand(),
		},
		Before: func(c *cli.Context) error {
			return setup(c, dial)
		},
		Metadata: map[string]any{},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.ldapext/config.yaml)",
		},
		&cli.StringFlag{Name: "url", Usage: "LDAP URL, e.g. ldaps://ldap.example.com"},
		&cli.StringFlag{Name: "bind-dn", Usage: "Bind DN or user principal name"},
		&cli.StringFlag{Name: "password", Usage: "Bind password"},
		&cli.StringFlag{Name: "kerberos-realm", Usage: "Kerberos realm; enables GSSAPI bind"},
		&cli.StringFlag{Name: "kerberos-keytab", Usage: "Kerberos keytab file"},
		&cli.StringFlag{Name: "kerberos-config", Usage: "krb5.conf path"},
		&cli.StringFlag{Name: "kerberos-ccache", Usage: "Kerberos credential cache"},
		&cli.StringFlag{Name: "kerberos-spn", Usage: "LDAP service principal override"},
		&cli.BoolFlag{Name: "insecure", Usage: "Skip TLS certificate verification"},
		&cli.BoolFlag{Name: "starttls", Usage: "Upgrade ldap:// connections with StartTLS"},
		&cli.DurationFlag{Name: "timeout", Usage: "Request timeout"},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
		},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: trace, debug, info, warn, error, off"},
	}
}

// flagKeys maps global flags to configuration keys.
var flagKeys = []struct{ flag, key string }{
	{"url", "url"},
	{"bind-dn", "bind.dn"},
	{"password", "bind.password"},
	{"kerberos-realm", "kerberos.realm"},
	{"kerberos-keytab", "kerberos.keytab"},
	{"kerberos-config", "kerberos.config"},
	{"kerberos-ccache", "kerberos.ccache"},
	{"kerberos-spn", "kerberos.spn"},
	{"insecure", "tls.insecure"},
	{"starttls", "tls.starttls"},
	{"timeout", "timeout"},
	{"output", "output"},
	{"log-level", "log.level"},
}

// flagValues returns the global flags the user set, keyed for the loader.
func flagValues(c *cli.Context) map[string]any {
	values := make(map[string]any)
	for _, f := range flagKeys {
		if c.IsSet(f.flag) {
			values[f.key] = c.Value(f.flag)
		}
	}
	return values
}

// state is shared by every command of one run.
type state struct {
	ctx  context.Context
	cfg  *config.Config
	dial Dialer
}

func setup(c *cli.Context, dial Dialer) error {
	cfg, err := config.NewLoader(config.WithConfigFile(c.String("config"))).Load(flagValues(c))
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("ldapext"),
		tfsdklog.WithLevel(cfg.LogLevel()),
		tfsdklog.WithoutLocation(),
	)
	ctx = ldapclient.InitSubsystems(ctx, logEnvPrefix)

	c.App.Metadata[stateKey] = &state{ctx: ctx, cfg: cfg, dial: dial}
	return nil
}

func current(c *cli.Context) *state {
	if s, ok := c.App.Metadata[stateKey].(*state); ok {
		return s
	}
	// Commands run without Before only in tests.
	cfg := &config.Config{Output: config.OutputText, Page: config.PageConfig{Size: 100}}
	return &state{ctx: context.Background(), cfg: cfg, dial: dialLDAP}
}

// withRoot dials a session, runs fn against its catalog and closes it.
func withRoot(c *cli.Context, fn func(ctx context.Context, root *extend.Root) error) error {
	s := current(c)

	conn, err := s.dial(s.ctx, s.cfg.ConnectionConfig())
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(s.ctx, extend.New(conn))
}

// render prints data in the configured output format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(output.Format(current(c).cfg.Output)).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	return c.App.Writer
}
