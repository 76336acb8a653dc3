package web

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-rover/pkg/telemetry"
)

// telemetryChart plots temperature and distance over time. Unknown
// distances are left as gaps.
func telemetryChart(entries []telemetry.Entry) *charts.Line {
	times := make([]string, len(entries))
	temps := make([]opts.LineData, len(entries))
	dists := make([]opts.LineData, len(entries))
	for i, e := range entries {
		times[i] = e.Time.Format("15:04:05")
		temps[i] = opts.LineData{Value: e.Reading.Temperature}
		if e.Reading.Distance.Known() {
			dists[i] = opts.LineData{Value: e.Reading.Distance.CM}
		} else {
			dists[i] = opts.LineData{Value: "-"}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rover Telemetry", Theme: "dark", Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rover Telemetry", Subtitle: fmt.Sprintf("%d samples", len(entries))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
	)
	line.SetXAxis(times).
		AddSeries("Temperature (°C)", temps).
		AddSeries("Distance (cm)", dists)
	return line
}

// handleTelemetryChart renders the in-memory log as an HTML chart
func (s *Server) handleTelemetryChart(c *fiber.Ctx) error {
	entries := s.backend.Telemetry().Entries()
	if len(entries) == 0 {
		return errorJSON(c, fiber.StatusNotFound, telemetry.ErrNoData)
	}

	var buf bytes.Buffer
	if err := telemetryChart(entries).Render(&buf); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, fmt.Errorf("failed to render chart: %w", err))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
