package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/console"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/db"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/destination"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/session"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/source"
	engine "github.com/chmdznr/oss-drive-to-blob-copier/internal/sync"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/utils"
	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gitlab.com/tozd/go/errors"
)

const logTail = 20

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// openSession builds the stores and the catalog from the command line and
// loads both listings. The returned close func releases the catalog.
func openSession(c *cli.Context, listeners ...engine.EventEmitter) (context.Context, *session.Session, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cfg.Debug)
	ctx := logger.WithContext(c.Context)

	src, err := source.New(ctx, cfg.Source)
	if err != nil {
		return nil, nil, nil, errors.Errorf("creating source: %w", err)
	}
	dst, err := destination.New(cfg.Destination)
	if err != nil {
		return nil, nil, nil, errors.Errorf("creating destination: %w", err)
	}

	catalog, err := db.New()
	if err != nil {
		return nil, nil, nil, errors.Errorf("opening catalog: %w", err)
	}
	closeFn := func() {
		if err := catalog.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing catalog")
		}
	}

	sess := session.New(ctx, src, dst, catalog, listeners...)
	if err := sess.Load(ctx); err != nil {
		closeFn()
		return nil, nil, nil, errors.Errorf("loading listings: %w", err)
	}
	logger.Debug().
		Str("source", cfg.Source.Kind).
		Str("destination", cfg.Destination.Kind).
		Str("container", cfg.Destination.Container).
		Msg("session loaded")
	return ctx, sess, closeFn, nil
}

func listFiles(c *cli.Context) error {
	_, sess, closeFn, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeFn()

	out := c.App.Writer
	if c.Bool("dest") {
		files, err := sess.DestinationFiles()
		if err != nil {
			return err
		}
		console.WriteDestinationFiles(out, files)
		return nil
	}

	files, err := sess.SourceFiles()
	if err != nil {
		return err
	}
	console.WriteSourceFiles(out, files, nil)
	return nil
}

func startSync(c *cli.Context) error {
	ids := c.StringSlice("id")
	all := c.Bool("all")
	if all == (len(ids) > 0) {
		return errors.New("exactly one of --all or --id is required")
	}

	out := c.App.Writer
	ctx, sess, closeFn, err := openSession(c, newBatchProgress(out))
	if err != nil {
		return err
	}
	defer closeFn()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := sess.Toggle(id); err != nil {
			return errors.Errorf("selecting %s: %w", id, err)
		}
	}

	var batch []models.RemoteFile
	if all {
		batch, err = sess.SourceFiles()
	} else {
		batch, err = sess.SelectedFiles()
	}
	if err != nil {
		return err
	}

	if !c.Bool("yes") && len(batch) > 0 {
		ok, err := confirm(out, fmt.Sprintf("Sync %d files (%s)?", len(batch), utils.FormatSize(totalSize(batch))))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var outcomes []models.SyncOutcome
	if all {
		outcomes, err = sess.SyncAll(ctx)
	} else {
		outcomes, err = sess.SyncSelected(ctx)
	}
	if err != nil {
		return err
	}

	logs, err := sess.Logs(logTail)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	console.WriteLogs(out, logs)
	fmt.Fprintln(out)
	console.WriteOutcomes(out, outcomes)
	return nil
}

func startShell(c *cli.Context) error {
	ctx, sess, closeFn, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeFn()
	return runShell(ctx, sess, c.App.Reader, c.App.Writer)
}

// confirm waits for a single key press. Only y or Y accepts.
func confirm(w io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	char, _, err := keyboard.GetSingleKey()
	if err != nil {
		return false, errors.Errorf("reading key: %w", err)
	}
	fmt.Fprintln(w, strings.TrimSpace(string(char)))
	return char == 'y' || char == 'Y', nil
}

func totalSize(files []models.RemoteFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
