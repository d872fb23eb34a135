package cmdflags

import (
	"time"

	"github.com/urfave/cli/v2"
)

func DataDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "data-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory holding the user and session databases",
		Destination: out,
		Value:       *out,
	}
}

func SessionTTL(out *time.Duration) cli.Flag {
	return &cli.DurationFlag{
		Name:        "session-ttl",
		Usage:       "How long a session stays valid after login",
		Destination: out,
		Value:       *out,
	}
}
