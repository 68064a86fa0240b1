package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/console"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/session"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/utils"
	"gitlab.com/tozd/go/errors"
)

const shellHelp = `Commands:
  files              list source files (* marks selected)
  bucket             list destination objects
  select <n|id>...   toggle selection by row number or file ID
  sync all           sync every source file
  sync selected      sync the selected files
  refresh            reload both listings
  status             show counts for the current listing and whether a sync runs
  logs [n]           show the newest n log lines (default 20)
  help               show this help
  quit               leave the shell`

var errQuit = errors.New("quit")

// runShell reads one command per line until quit or end of input
func runShell(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "dsync shell. Type help for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "dsync> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		err := execLine(ctx, sess, out, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func execLine(ctx context.Context, sess *session.Session, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
	case "files", "ls":
		return showSource(sess, out)
	case "bucket", "dest":
		files, err := sess.DestinationFiles()
		if err != nil {
			return err
		}
		console.WriteDestinationFiles(out, files)
	case "select":
		if len(args) == 0 {
			return errors.New("usage: select <n|id>...")
		}
		return selectFiles(sess, out, args)
	case "sync":
		return shellSync(ctx, sess, out, args)
	case "refresh":
		if err := sess.Load(ctx); err != nil {
			return err
		}
		return showSource(sess, out)
	case "status":
		stats, err := sess.Stats()
		if err != nil {
			return err
		}
		state := "idle"
		if sess.Syncing() {
			state = "running"
		}
		fmt.Fprintf(out, "%d files (%s): %d synced, %d pending, %d failed, %d selected, sync %s\n",
			stats.TotalFiles, utils.FormatSize(stats.TotalSize),
			stats.SyncedFiles, stats.PendingFiles, stats.FailedFiles, stats.Selected, state)
	case "logs", "log":
		limit := logTail
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return errors.Errorf("invalid log count %q", args[0])
			}
			limit = n
		}
		logs, err := sess.Logs(limit)
		if err != nil {
			return err
		}
		console.WriteLogs(out, logs)
	default:
		return errors.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

func showSource(sess *session.Session, out io.Writer) error {
	files, err := sess.SourceFiles()
	if err != nil {
		return err
	}
	selected, err := sess.SelectedFiles()
	if err != nil {
		return err
	}
	marks := make(map[string]bool, len(selected))
	for _, f := range selected {
		marks[f.ID] = true
	}
	console.WriteSourceFiles(out, files, marks)
	return nil
}

// resolveFile maps a 1-based row number or a file ID onto a listed file
func resolveFile(files []models.RemoteFile, arg string) (models.RemoteFile, error) {
	for _, f := range files {
		if f.ID == arg {
			return f, nil
		}
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(files) {
			return models.RemoteFile{}, errors.Errorf("row %d out of range 1-%d", n, len(files))
		}
		return files[n-1], nil
	}
	return models.RemoteFile{}, errors.Errorf("no listed file %q", arg)
}

func selectFiles(sess *session.Session, out io.Writer, args []string) error {
	files, err := sess.SourceFiles()
	if err != nil {
		return err
	}
	for _, arg := range args {
		f, err := resolveFile(files, arg)
		if err != nil {
			return err
		}
		on, err := sess.Toggle(f.ID)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintf(out, "selected %s\n", f.Name)
		} else {
			fmt.Fprintf(out, "deselected %s\n", f.Name)
		}
	}
	return nil
}

func shellSync(ctx context.Context, sess *session.Session, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: sync all|selected")
	}

	var (
		outcomes []models.SyncOutcome
		err      error
	)
	switch strings.ToLower(args[0]) {
	case "all":
		outcomes, err = sess.SyncAll(ctx)
	case "selected":
		outcomes, err = sess.SyncSelected(ctx)
	default:
		return errors.Errorf("unknown sync mode %q", args[0])
	}
	if err != nil {
		return err
	}

	logs, err := sess.Logs(len(outcomes)*3 + 3)
	if err != nil {
		return err
	}
	console.WriteLogs(out, logs)
	console.WriteOutcomes(out, outcomes)
	return nil
}
