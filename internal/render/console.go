package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/udi-speedb/log-parser/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Underline(true)
)

const labelWidth = 25

// WriteConsole renders the short human summary: file metadata, extraction
// quality, and a per-column-family table.
func WriteConsole(w io.Writer, snap *model.Snapshot) error {
	title := fmt.Sprintf("Parsing of: %s", snap.Metadata.Path)
	if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Repeat("=", len(title)))

	product := snap.Metadata.Product
	if product == "" {
		product = "unknown"
	}
	version := snap.Metadata.Version
	if version == "" {
		version = "unknown"
	}

	printField(w, "Product", fmt.Sprintf("%s %s", product, version))
	if snap.Metadata.GitHash != "" {
		printField(w, "Git Hash", snap.Metadata.GitHash)
	}
	if snap.Metadata.DBSessionID != "" {
		printField(w, "DB Session Id", snap.Metadata.DBSessionID)
	}
	printField(w, "Time Span", timeSpan(snap))
	printField(w, "Counters", fmt.Sprintf("%d", len(snap.Counters)))
	printField(w, "Histograms", fmt.Sprintf("%d", len(snap.Histograms)))
	printField(w, "Compactions", fmt.Sprintf("%d (%d pending)", len(snap.Compactions), pendingCompactions(snap)))
	printField(w, "Warnings / Errors", fmt.Sprintf("%d", len(snap.Warnings)))
	printField(w, "Stats Dumps", fmt.Sprintf("%d", snap.DBWide.StatsDumps))
	if snap.DBWide.CumulativeStall > 0 {
		printField(w, "Cumulative Stall",
			fmt.Sprintf("%s (%.1f%%)", snap.DBWide.CumulativeStall, snap.DBWide.CumulativeStallPercent))
	}

	// Extraction quality: the user must be able to gauge completeness.
	printField(w, "Unparsed Lines", fmt.Sprintf("%d of %d", snap.UnrecognizedCount, snap.TotalLines))
	if snap.UnrecognizedOverflow > 0 {
		printField(w, "Unparsed Entries", fmt.Sprintf("%d (%d retained, +%d more)",
			snap.UnrecognizedEntries, len(snap.UnrecognizedSample), snap.UnrecognizedOverflow))
	}
	if len(snap.ParseIssues) > 0 {
		printField(w, "Parse Issues", fmt.Sprintf("%d", len(snap.ParseIssues)))
	}

	if len(snap.ColumnFamilies) > 0 {
		fmt.Fprintln(w)
		writeCFTable(w, snap.ColumnFamilies)
	}

	return nil
}

func printField(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%-*s: %s\n", labelWidth, name, value)
}

func timeSpan(snap *model.Snapshot) string {
	if snap.Metadata.StartTime.IsZero() {
		return "empty file"
	}
	return fmt.Sprintf("%s .. %s",
		snap.Metadata.StartTime.Format(model.TimestampLayout),
		snap.Metadata.EndTime.Format(model.TimestampLayout))
}

func pendingCompactions(snap *model.Snapshot) int {
	n := 0
	for i := range snap.Compactions {
		if snap.Compactions[i].State == model.CompactionPending {
			n++
		}
	}
	return n
}

func writeCFTable(w io.Writer, cfs []model.ColumnFamilyStats) {
	cols := []string{"Column Family", "Size", "Files", "Flushes", "Compactions", "Stalls", "Stops"}
	widths := []int{22, 12, 7, 9, 13, 8, 7}

	var header strings.Builder
	for i, col := range cols {
		header.WriteString(fmt.Sprintf("%-*s", widths[i], col))
	}
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header.String(), " ")))

	for i := range cfs {
		cf := &cfs[i]
		cells := []string{
			cf.Name,
			FormatBytes(cf.SizeBytes),
			fmt.Sprintf("%d", cf.NumFiles),
			fmt.Sprintf("%d", cf.FlushesStarted),
			fmt.Sprintf("%d/%d", cf.CompactionsFinished, cf.CompactionsStarted),
			fmt.Sprintf("%d", cf.StallCount),
			fmt.Sprintf("%d", cf.StopCount),
		}
		var row strings.Builder
		for j, cell := range cells {
			row.WriteString(fmt.Sprintf("%-*s", widths[j], cell))
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
}

// FormatBytes renders a byte count with the log's binary-prefixed units.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<40:
		return fmt.Sprintf("%.2f TB", float64(n)/(1<<40))
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
