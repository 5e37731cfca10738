package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"drivethru"
	"drivethru/order"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "rebuild an order from its incremental log",
		ArgsUsage: "<incremental_log.jsonl>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "steps", Usage: "print the order state after every event"},
			&cli.BoolFlag{Name: "dump", Usage: "print a typed dump of the final state"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("replay needs exactly one log file", 2)
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			return runReplay(f, c.App.Writer, c.Bool("steps"), c.Bool("dump"))
		},
	}
}

func runReplay(in io.Reader, out io.Writer, steps, dump bool) error {
	events, err := order.ReadEvents(in)
	if err != nil {
		return err
	}

	if steps {
		states, err := order.ReplaySteps(events)
		if err != nil {
			return err
		}
		for i, st := range states {
			fmt.Fprintf(out, "%3d %-16s %-11s qty=%d  %s\n",
				i+1, events[i].Event, st.Status, st.TotalQuantity(), order.Summary(st.LineItems))
		}
	}

	final, err := order.Replay(events)
	if err != nil {
		return err
	}

	if dump {
		drivethru.Fdump(out, final)
		return nil
	}

	fmt.Fprintf(out, "session:  %s\nstatus:   %s\nitems:    %d\nquantity: %d\nsummary:  %s\n",
		final.SessionID, final.Status, len(final.LineItems), final.TotalQuantity(), order.Summary(final.LineItems))
	return nil
}
