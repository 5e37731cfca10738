package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "drivethru",
		Usage: "drive-thru order taking core",
		Commands: []*cli.Command{
			sessionCommand(),
			replayCommand(),
			menuCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("FAILURE: command failed", "error", err)
		os.Exit(1)
	}
}
