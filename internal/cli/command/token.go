package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/service"
)

// TokenCommand returns the token command. The printed JWT can be sent as
// "Authorization: Bearer <token>" so that snippets created without an owner
// are attributed to this user.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Check a user's password and print a bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Login name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Password",
				EnvVars:  []string{"SNIPPETS_PASSWORD"},
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: auth.DefaultTokenTTL,
			},
		},
		Action: tokenIssue,
	}
}

func tokenIssue(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	if e.cfg.JWTSecret == "" {
		return errors.New("jwt_secret is not configured; set SNIPPETS_JWT_SECRET or JWT_SECRET")
	}
	tokens, err := auth.NewTokenService(e.cfg.JWTSecret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	user, err := e.users.Authenticate(ctx, c.String("username"), c.String("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("authenticating: %w", err)
	}

	token, err := tokens.GenerateWithDuration(user.ID, c.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
