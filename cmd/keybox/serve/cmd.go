package serve

import (
	"time"

	"github.com/andrebq/keybox/auth"
	"github.com/andrebq/keybox/auth/api"
	"github.com/andrebq/keybox/internal/cmdflags"
	"github.com/andrebq/keybox/internal/httpserver"
	"github.com/andrebq/keybox/internal/logutil"
	"github.com/andrebq/keybox/session"
	"github.com/andrebq/keybox/userdb"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7009"
	dataDir := "./keybox-data"
	sessionTTL := session.DefaultTTL
	sweepInterval := time.Hour
	var memSessions bool
	var insecureCookie bool
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the keybox auth API (login/signup/logout/check)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind and export the auth endpoints",
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.DataDir(&dataDir),
			cmdflags.SessionTTL(&sessionTTL),
			&cli.DurationFlag{
				Name:        "sweep-interval",
				Usage:       "How often expired sessions are swept from the database",
				Value:       sweepInterval,
				Destination: &sweepInterval,
			},
			&cli.BoolFlag{
				Name:        "mem-sessions",
				Usage:       "Keep sessions in memory only (everyone is logged out on restart)",
				Destination: &memSessions,
			},
			&cli.BoolFlag{
				Name:        "insecure-cookie",
				Usage:       "Allow the session cookie over plain http (local development only)",
				Destination: &insecureCookie,
			},
		},
		Action: func(ctx *cli.Context) error {
			users, err := userdb.Open(ctx.Context, dataDir)
			if err != nil {
				return err
			}
			defer users.Close()
			var sessions session.Store
			if memSessions {
				sessions = session.InMemoryStore(sessionTTL)
			} else {
				store, err := session.OpenSQLiteStore(ctx.Context, dataDir, sessionTTL)
				if err != nil {
					return err
				}
				defer store.Close()
				go store.RunSweeper(logutil.WithComponent(ctx.Context, "session-sweeper"), sweepInterval)
				sessions = store
			}
			svc, err := auth.NewService(users, sessions)
			if err != nil {
				return err
			}
			handler := api.NewHandler(svc, sessionTTL, insecureCookie)
			return httpserver.Serve(ctx.Context, bindAddr, handler.AsHandler())
		},
	}
}
