package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kinly/internal/auth"
	"kinly/internal/config"
	"kinly/internal/logging"
	"kinly/internal/service"
	"kinly/internal/store"
	"kinly/internal/store/postgres"
	"kinly/internal/store/sqlite"
	"kinly/internal/taxonomy"
)

type app struct {
	cfg      config.Config
	closeLog func() error
	// readPassword prompts on the terminal; tests swap it out.
	readPassword func(prompt string) (string, error)
}

func newApp() *app {
	return &app{readPassword: promptPassword}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "kinly",
		Short:         "Kinly IP creation platform",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Name() == "serve")
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.AddCommand(newServeCmd(a), newUserCmd(a), newTaxonomyCmd(a))
	return root
}

// init loads configuration and installs the logger. Maintenance commands
// log warnings only so their stdout stays readable.
func (a *app) init(server bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	opts := logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, File: cfg.LogFile}
	if !server {
		opts.Level = "warn"
		opts.Pretty = true
		opts.Stdout = os.Stderr
	}
	a.closeLog, err = logging.Setup(opts)
	return err
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.cfg
	switch cfg.DBDriver {
	case config.DriverPostgres:
		// Open runs the schema migration.
		st, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{MaxOpenConns: cfg.DBMaxOpenConns})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := sqlite.Open(ctx, cfg.SQLitePath(), sqlite.Options{
			BusyTimeout:  cfg.DBBusyTimeout,
			LockTimeout:  cfg.DBLockTimeout,
			MaxOpenConns: cfg.DBMaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func (a *app) signer() (*auth.Signer, error) {
	secret := []byte(strings.TrimSpace(a.cfg.AuthSecret))
	if len(secret) == 0 {
		var err error
		secret, err = auth.LoadOrInitSecret(a.cfg.SecretPath())
		if err != nil {
			return nil, fmt.Errorf("load secret: %w", err)
		}
	}
	return auth.NewSigner(secret)
}

func (a *app) accounts(st store.Users) (*service.Accounts, error) {
	signer, err := a.signer()
	if err != nil {
		return nil, err
	}
	return service.NewAccounts(st, signer, service.AccountsConfig{
		SessionTTL:     a.cfg.SessionTTL,
		ConfirmTTL:     a.cfg.ConfirmTTL,
		RequireConfirm: a.cfg.RequireConfirm,
		BaseURL:        a.cfg.PublicBaseURL(),
		OutboxDir:      a.cfg.OutboxPath(),
	}), nil
}

func (a *app) portfolio(st store.Store) (*service.Portfolio, error) {
	tax, err := taxonomy.ByName(a.cfg.Taxonomy)
	if err != nil {
		return nil, err
	}
	return service.NewPortfolio(st, tax), nil
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}
