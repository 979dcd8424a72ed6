package command

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/service"
)

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Login name (letters, digits and @/./+/-/_)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Password, at least 8 characters",
						EnvVars:  []string{"SNIPPETS_PASSWORD"},
						Required: true,
					},
				},
				Action: userAdd,
			},
			{
				Name:   "list",
				Usage:  "List users and how many snippets each owns",
				Action: userList,
			},
		},
	}
}

func userAdd(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	user, err := e.users.Register(ctx, service.UserInput{
		Username: c.String("username"),
		Password: c.String("password"),
	})
	if err != nil {
		var appErr *apperror.AppError
		switch {
		case errors.Is(err, apperror.ErrConflict):
			return fmt.Errorf("user %q already exists", c.String("username"))
		case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
			return fmt.Errorf("invalid input: %s", appErr.Message)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created user %q with id %d\n", user.Username, user.ID)
	return nil
}

func userList(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	users, err := e.users.List(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(c.App.Writer, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tJOINED\tSNIPPETS")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			u.User.ID,
			u.User.Username,
			u.User.DateJoined.Format(time.RFC3339),
			len(u.SnippetIDs),
		)
	}
	return w.Flush()
}
