// Package charts renders category distributions as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/analytics"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// DistributionPie draws the non-zero rows of b as a pie chart.
func DistributionPie(title string, b analytics.Breakdown) ([]byte, error) {
	rows := b.NonZero()
	if b.Total.Minor == 0 || len(rows) == 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", r.Category, r.Amount, r.Percent),
			Value: r.Amount.Major(),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		})
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  800,
		Height: 800,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render distribution pie: %w", err)
	}
	return buffer.Bytes(), nil
}

// BudgetBars draws spent amount per budgeted category of r.
func BudgetBars(r analytics.BudgetReport) ([]byte, error) {
	var (
		bars []chart.Value
		top  float64
	)
	for _, l := range r.Lines {
		if l.Ceiling.Minor == 0 {
			continue
		}
		top = max(top, l.Spent.Major(), l.Ceiling.Major())
		color := chart.ColorGreen
		switch l.Status {
		case analytics.StatusWarning:
			color = chart.ColorRed.WithAlpha(120)
		case analytics.StatusOver:
			color = chart.ColorRed
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", l.Category, l.Utilization),
			Value: l.Spent.Major(),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Title:    "Budgets " + r.Period.String(),
		Width:    800,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		// Pinned so a single bar or all-zero spending still has a scale.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render budget bars: %w", err)
	}
	return buffer.Bytes(), nil
}
