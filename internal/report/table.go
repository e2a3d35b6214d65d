package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"roomload/internal/stats"
)

// RenderRooms writes the per-room latency breakdown as a table.
func RenderRooms(w io.Writer, rooms []stats.RoomSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Requests", "Failed", "Avg ms", "P50 ms", "P90 ms", "P99 ms", "Max ms"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range rooms {
		table.Append([]string{
			r.Room,
			fmt.Sprintf("%d", r.Requests),
			fmt.Sprintf("%d", r.Fail),
			fmt.Sprintf("%.2f", r.AvgMs),
			fmt.Sprintf("%.2f", r.P50Ms),
			fmt.Sprintf("%.2f", r.P90Ms),
			fmt.Sprintf("%.2f", r.P99Ms),
			fmt.Sprintf("%.2f", r.MaxMs),
		})
	}
	table.Render()
}

// RenderErrors writes failure signatures, most frequent first.
func RenderErrors(w io.Writer, errs map[string]uint64) {
	if len(errs) == 0 {
		return
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if errs[keys[i]] != errs[keys[j]] {
			return errs[keys[i]] > errs[keys[j]]
		}
		return keys[i] < keys[j]
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Count", "Failure"})
	table.SetAutoWrapText(false)
	for _, k := range keys {
		table.Append([]string{fmt.Sprintf("%d", errs[k]), k})
	}
	table.Render()
}
