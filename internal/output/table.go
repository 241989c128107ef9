package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bizlens/bizlens/internal/core"
)

// TableFormatter renders status reports as ASCII tables.
type TableFormatter struct{}

// FormatStatus renders the per-endpoint status table with a cache summary
// footer.
func (f *TableFormatter) FormatStatus(report *core.StatusReport) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Service", "Endpoint", "Prio", "Health", "Score", "Success", "Avg Latency", "Breaker", "Cost"})

	for _, service := range report.Services {
		for _, ep := range service.Endpoints {
			t.AppendRow(table.Row{
				service.Service,
				ep.Name,
				ep.Priority,
				string(ep.Health),
				fmt.Sprintf("%.2f", ep.HealthScore),
				successLabel(ep),
				ep.AvgLatency.Round(time.Millisecond).String(),
				ep.BreakerState,
				fmt.Sprintf("%.4f", ep.Cost),
			})
		}
	}

	t.AppendFooter(table.Row{
		"", "", "", "",
		fmt.Sprintf("cache %d/%d", report.Cache.Size, report.Cache.Capacity),
		fmt.Sprintf("hit rate %.0f%%", report.Cache.HitRate*100),
		"",
		"",
		fmt.Sprintf("%.4f", report.TotalCost),
	})

	return t.Render(), nil
}

func successLabel(ep core.EndpointMetrics) string {
	if ep.Requests == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%% (%d/%d)", ep.SuccessRate*100, ep.Successes, ep.Requests)
}
