package dashboard

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/erazemk/auberge/internal/model"
)

// DayTotal is the revenue of one calendar day.
type DayTotal struct {
	Day   time.Time
	Total float64
}

// RevenueByDay sums order totals per day, oldest first. Cancelled and
// refunded orders and orders without a date are left out.
func RevenueByDay(orders []model.Order) []DayTotal {
	totals := map[time.Time]float64{}
	for _, o := range orders {
		if o.CreatedAt.IsZero() || o.Status == model.OrderCancelled || o.Status == model.OrderRefunded {
			continue
		}
		y, m, d := o.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, o.CreatedAt.Location())
		totals[day] += o.Total
	}
	out := make([]DayTotal, 0, len(totals))
	for day, total := range totals {
		out = append(out, DayTotal{Day: day, Total: math.Round(total*100) / 100})
	}
	slices.SortFunc(out, func(a, b DayTotal) int { return a.Day.Compare(b.Day) })
	return out
}

// RenderRevenueChart writes a standalone line chart page of daily revenue.
func RenderRevenueChart(w io.Writer, orders []model.Order) error {
	days := RevenueByDay(orders)
	xAxis := make([]string, len(days))
	data := make([]opts.LineData, len(days))
	for i, d := range days {
		xAxis[i] = d.Day.Format("02/01")
		data[i] = opts.LineData{Name: xAxis[i], Value: d.Total}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Chiffre d'affaires", Subtitle: "Commandes récentes, par jour"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("€", data)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering revenue chart: %w", err)
	}
	return nil
}
