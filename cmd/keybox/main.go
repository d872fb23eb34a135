package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/keybox/cmd/keybox/serve"
	"github.com/andrebq/keybox/cmd/keybox/users"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "keybox",
		Usage: "Session based authentication backend, nothing more, nothing less.",
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
