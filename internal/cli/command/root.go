// Package command provides the command definitions for snippetctl, the
// administration tool of the snippet service.
//
// The HTTP API exposes users read-only; snippetctl is how they are created.
// It talks to the database directly, so it must run where the server's
// database file is reachable.
package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/config"
	sqliteRepo "github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/service"
)

// Build information, set via ldflags.
var Version = "dev"

const envKey = "env"

// env is what every subcommand needs; it is built once in Before.
type env struct {
	cfg   *config.Config
	db    *sqliteRepo.DB
	users *service.UserService
}

// App creates the CLI application. Output goes to out so tests can capture it.
func App(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "snippetctl",
		Usage:     "Manage users of the snippets service",
		Version:   Version,
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML, TOML or JSON config file",
				EnvVars: []string{"SNIPPETS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			UserCommand(),
			TokenCommand(),
		},
		Before: func(c *cli.Context) error {
			// Help and version need no database.
			switch c.Args().First() {
			case "", "help", "h":
				return nil
			}
			return setup(c)
		},
		After: func(c *cli.Context) error {
			if e, ok := c.App.Metadata[envKey].(*env); ok {
				return e.db.Close()
			}
			return nil
		},
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
	}

	// Only warnings and errors: stdout belongs to the command output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[envKey] = &env{
		cfg:   cfg,
		db:    db,
		users: service.NewUserService(db, auth.NewPasswordService(), logger),
	}
	return nil
}

func getEnv(c *cli.Context) (*env, error) {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e, nil
	}
	return nil, errors.New("not initialised")
}
