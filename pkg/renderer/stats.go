package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// FrameStats describes one rendered frame
type FrameStats struct {
	Frame      int           // Accumulated frame count after this frame
	Paths      int           // Paths traced (one per pixel)
	Workers    int           // Workers that shared the frame
	RenderTime time.Duration // Wall time of the frame
}

// PathsPerSecond returns the frame throughput
func (fs FrameStats) PathsPerSecond() float64 {
	if fs.RenderTime <= 0 {
		return 0
	}
	return float64(fs.Paths) / fs.RenderTime.Seconds()
}

// StatsTable formats frame statistics with a total footer
func StatsTable(stats []FrameStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Frame", "Paths", "Workers", "Render time", "Paths/s"})

	var total time.Duration
	paths := 0
	for _, stat := range stats {
		table.Append([]string{
			fmt.Sprintf("%d", stat.Frame),
			fmt.Sprintf("%d", stat.Paths),
			fmt.Sprintf("%d", stat.Workers),
			stat.RenderTime.Round(time.Microsecond).String(),
			fmt.Sprintf("%.0f", stat.PathsPerSecond()),
		})
		total += stat.RenderTime
		paths += stat.Paths
	}

	overall := FrameStats{Paths: paths, RenderTime: total}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", paths), "", total.Round(time.Microsecond).String(), fmt.Sprintf("%.0f", overall.PathsPerSecond())})
	table.Render()
	return buf.String()
}
