package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"drivethru"
	"drivethru/coordinator"
	"drivethru/order"
	"drivethru/storage"
	"drivethru/tools"
	"drivethru/validation"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "run one order session, reading one model output per line from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "session id (generated when empty)"},
			&cli.BoolFlag{Name: "print-prompt", Usage: "print the system prompt for the dialogue layer and exit"},
			&cli.StringFlag{Name: "log", Value: "file", Usage: "coordination log: file (coordination.json in the session dir), stdout (one JSON line per turn) or none"},
		},
		Action: func(c *cli.Context) error {
			return runSession(c, os.Stdin, c.App.Writer)
		},
	}
}

func runSession(c *cli.Context, in io.Reader, out io.Writer) error {
	ctx := c.Context

	cfg, err := drivethru.LoadConfig()
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(ctx, cfg.Menu)
	if err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}
	validator := validation.New(catalog, cfg.Match.Validation())

	if c.Bool("print-prompt") {
		ledger := order.NewLedger("prompt", storage.NewMemoryJournal(), storage.NewMemorySnapshotStore())
		prompt, err := coordinator.SystemPrompt(tools.NewRegistry(tools.NewOrderTools(catalog, validator, ledger)), catalog.AllCategories())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, prompt)
		return err
	}

	id := c.String("id")
	if id == "" {
		id = uuid.NewString()
	}

	sess, err := storage.OpenSession(cfg.Order.OutputDir, id, cfg.Order.Sync)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			slog.Error("SESSION: failed to close journal", "session_id", id, "error", cerr)
		}
	}()

	snapshots, err := snapshotStore(ctx, cfg.Order, sess)
	if err != nil {
		return err
	}

	notify, closers, err := notifiers(cfg.Notify, http.DefaultClient)
	if err != nil {
		return err
	}
	defer func() {
		for _, cl := range closers {
			_ = cl()
		}
	}()

	opts := []coordinator.Option{coordinator.WithNotifiers(notify...)}

	turnLog, finishLog, err := turnLogger(c.String("log"), id, sess.CoordinationPath)
	if err != nil {
		return err
	}
	defer finishLog()
	opts = append(opts, coordinator.WithLogger(turnLog))

	if cfg.OtelEnabled {
		tracerProvider, meterProvider, otelShutdown, err := drivethru.InitOtel(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		opts = append(opts, coordinator.WithTelemetry(
			tracerProvider.Tracer(drivethru.TracerNameSession),
			meterProvider.Meter(drivethru.TracerNameSession),
		))
	}

	ledger := order.NewLedger(id, sess.Journal, snapshots)
	orderTools := tools.NewOrderTools(catalog, validator, ledger)
	session := coordinator.NewSession(id, tools.NewRegistry(orderTools), orderTools, opts...)

	slog.Info("SESSION: started", "session_id", id, "dir", sess.Dir)

	if err := driveSession(ctx, session, ledger, in, out); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	slog.Info("SESSION: finished", "session_id", id, "status", ledger.Status(), "summary", ledger.Summary())
	return nil
}

// turnLogger returns the coordination logger named by kind and a func that
// flushes and releases it.
func turnLogger(kind, sessionID, path string) (drivethru.CoordinationLogger, func(), error) {
	switch kind {
	case "", "file":
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create coordination log: %w", err)
		}
		l := drivethru.NewFileCoordinationLogger(sessionID, f)
		return l, func() {
			if err := l.Flush(); err != nil {
				slog.Error("SESSION: failed to flush coordination log", "session_id", sessionID, "error", err)
			}
			f.Close()
		}, nil
	case "stdout":
		return drivethru.NewStdoutCoordinationLogger(), func() {}, nil
	case "none":
		return drivethru.NewNoOpCoordinationLogger(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown coordination log %q: want file, stdout or none", kind)
}

// driveSession feeds one model output per line to session until the order
// leaves progress or input ends. A completed order whose snapshot write failed
// gets one more write before the session gives up.
func driveSession(ctx context.Context, session *coordinator.Session, ledger *order.Ledger, in io.Reader, out io.Writer) error {
	err := feedSession(ctx, session, in, out)
	if ledger.Status() != order.StatusCompleted || ledger.SnapshotWritten() {
		return err
	}

	slog.Warn("SESSION: retrying final snapshot", "session_id", session.ID(), "error", err)
	if werr := ledger.WriteSnapshot(ctx); werr != nil {
		return fmt.Errorf("final snapshot still not written: %w", errors.Join(err, werr))
	}
	slog.Info("SESSION: final snapshot written on retry", "session_id", session.ID())
	session.NotifyCompleted(ctx)

	if order.IsPersistence(err) {
		return nil
	}
	return err
}

func feedSession(ctx context.Context, session *coordinator.Session, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		reply, err := session.Handle(ctx, line)
		if err != nil {
			return err
		}
		if err := enc.Encode(reply); err != nil {
			return err
		}
		if reply.OrderStatus != order.StatusInProgress {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read model output: %w", err)
	}
	return nil
}
