// trikectl is the operator tool for triketime: it migrates the schema and
// manages accounts (admins are only ever created here).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Skotchmaster/triketime/internal/config"
	"github.com/Skotchmaster/triketime/internal/db"
	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/repo"
	"github.com/Skotchmaster/triketime/internal/service"
)

const usage = `Usage: trikectl <command> [flags]

Commands:
  migrate                                   create or update tables and indexes
  create-user --username U --password P [--role driver|admin]
  deactivate  --username U                  block login and revoke tokens
  revoke-all  --username U                  revoke every refresh token of U

Configuration is read from the environment (and .env) like the server.
`

func main() {
	config.LoadDotEnv()
	if err := run(os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(out, usage)
		return nil
	}
	command, rest := args[0], args[1:]

	var username, password, role string
	flagSet := pflag.NewFlagSet("trikectl "+command, pflag.ContinueOnError)
	flagSet.SetOutput(out)
	switch command {
	case "create-user":
		flagSet.StringVarP(&username, "username", "u", "", "account name")
		flagSet.StringVarP(&password, "password", "p", "", "account password")
		flagSet.StringVar(&role, "role", models.RoleDriver, "driver or admin")
	case "deactivate", "revoke-all":
		flagSet.StringVarP(&username, "username", "u", "", "account name")
	case "migrate":
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
	if err := flagSet.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if command != "migrate" && username == "" {
		return errors.New("--username is required")
	}

	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logging.IntoContext(ctx, logging.NewWithWriter(os.Stderr, cfg.LogLevel))

	gdb, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	gormRepo := &repo.GormRepo{DB: gdb}
	svc := &service.AuthService{
		Repo: gormRepo,
		Tokens: &service.TokenService{
			Repo:       gormRepo,
			Secret:     cfg.Secret,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
	}

	switch command {
	case "migrate":
		fmt.Fprintln(out, "schema up to date")
	case "create-user":
		user, err := svc.Register(ctx, username, password, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created user %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
	case "deactivate":
		if err := svc.Deactivate(ctx, username); err != nil {
			return err
		}
		fmt.Fprintf(out, "deactivated %s\n", username)
	case "revoke-all":
		n, err := svc.RevokeAll(ctx, username)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked %d refresh tokens of %s\n", n, username)
	}
	return nil
}
