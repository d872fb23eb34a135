package users

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/andrebq/keybox/auth"
	"github.com/andrebq/keybox/internal/cmdflags"
	"github.com/andrebq/keybox/userdb"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	dataDir := "./keybox-data"
	var db *userdb.DB
	return &cli.Command{
		Name:  "users",
		Usage: "Manage users directly in the database, bypassing the HTTP API.",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			db, err = userdb.Open(ctx.Context, dataDir)
			return err
		},
		After: func(ctx *cli.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
		Subcommands: []*cli.Command{
			registerCmd(&db),
		},
	}
}

func registerCmd(db **userdb.DB) *cli.Command {
	var username string
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user to register",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user to register",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = (*db).Create(ctx.Context, username, email, hash)
			return err
		},
	}
}
