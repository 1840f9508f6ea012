package batch

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/rankr/internal/domain/types"
)

const nameColumn = 2

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// PrintTop writes entries as a bordered table.
func PrintTop(w io.Writer, entries []types.Entry) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Position", "Rank", "Organization", "Rating", "Reviews", "Score").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == nameColumn:
				return nameStyle
			default:
				return cellStyle
			}
		})
	for _, e := range entries {
		t.Row(
			strconv.Itoa(e.Position),
			strconv.Itoa(e.Rank),
			e.Name,
			strconv.FormatFloat(e.Rating, 'f', 1, 64),
			strconv.Itoa(e.Votes),
			strconv.FormatFloat(e.Score, 'f', 2, 64),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// PrintSummary writes the run timings.
func PrintSummary(w io.Writer, summary *types.RunSummary, stats *Stats, verbose bool) {
	fmt.Fprintf(w, "\nrun %s: %d records, mean %.4f (%s, m=%g)\n",
		summary.RunID, summary.Records, summary.GlobalMean, summary.Policy, summary.MinVotes)
	if stats.RowsRead > 0 {
		fmt.Fprintf(w, "read %d rows, %d accepted, %d skipped in %s\n",
			stats.RowsRead, stats.Accepted, stats.Skipped, stats.ReadTime)
	}
	if verbose {
		for i, p := range summary.Passes {
			fmt.Fprintf(w, "pass %d: %s by %s on %d workers in %s\n", i+1, p.Algorithm, p.Key, p.Parallelism, p.Elapsed)
		}
	}
	fmt.Fprintf(w, "ranked in %s, total %s\n", summary.Elapsed, stats.Duration)
}
