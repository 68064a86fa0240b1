// Package console renders session listings and the log console for a
// terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/utils"
	"github.com/fatih/color"
)

const (
	indexWidth  = 4
	nameWidth   = 40
	sizeWidth   = 10
	statusWidth = 10
)

// FormatLogEntry renders one log line as "[15:04:05] message"
func FormatLogEntry(entry models.LogEntry) string {
	line := fmt.Sprintf("[%s] %s", entry.Timestamp.Format("15:04:05"), entry.Message)
	switch entry.Severity {
	case models.SeveritySuccess:
		return color.New(color.FgGreen).Sprint("✅ " + line)
	case models.SeverityError:
		return color.New(color.FgRed).Sprint("❌ " + line)
	default:
		return line
	}
}

// WriteLogs prints entries in the order given (the session returns them
// newest first)
func WriteLogs(w io.Writer, entries []models.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("(log is empty)"))
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, FormatLogEntry(e))
	}
}

func statusBadge(status models.SyncStatus) string {
	switch status {
	case models.StatusSynced:
		return color.New(color.FgGreen).Sprintf("%-*s", statusWidth, "synced")
	case models.StatusError:
		return color.New(color.FgRed).Sprintf("%-*s", statusWidth, "error")
	case models.StatusPending:
		return color.New(color.Faint).Sprintf("%-*s", statusWidth, "pending")
	default:
		return strings.Repeat(" ", statusWidth)
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// WriteSourceFiles prints the source listing with its selection markers and
// statuses. Rows are numbered from 1 so they can be selected by number.
func WriteSourceFiles(w io.Writer, files []models.RemoteFile, selected map[string]bool) {
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("Files (source) %d", len(files)))
	if len(files) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("No files found."))
		return
	}
	for i, f := range files {
		mark := "[ ]"
		if selected[f.ID] {
			mark = color.New(color.FgCyan).Sprint("[x]")
		}
		fmt.Fprintf(w, "%*d %s %-*s %*s %s\n",
			indexWidth, i+1,
			mark,
			nameWidth, truncate(f.Name, nameWidth),
			sizeWidth, utils.FormatSizeOrNA(f.Size),
			statusBadge(f.Status))
	}
}

// WriteDestinationFiles prints the destination listing
func WriteDestinationFiles(w io.Writer, files []models.RemoteFile) {
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("Objects (destination) %d", len(files)))
	if len(files) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("No files found."))
		return
	}
	for _, f := range files {
		fmt.Fprintf(w, "%*s 📄 %-*s %*s\n",
			indexWidth, "",
			nameWidth, truncate(f.Name, nameWidth),
			sizeWidth, utils.FormatSize(f.Size))
	}
}

// WriteOutcomes prints a one-line summary per outcome and a total
func WriteOutcomes(w io.Writer, outcomes []models.SyncOutcome) {
	var synced, failed int
	for _, o := range outcomes {
		if o.Success {
			synced++
			fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), o.Name)
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s: %s\n", color.New(color.FgRed).Sprint("✗"), o.Name, o.Reason)
	}
	fmt.Fprintf(w, "%d synced, %d failed\n", synced, failed)
}
