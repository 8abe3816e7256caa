package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/getpaidbd/referralbot/internal/service"
)

// ChartGenerator renders the charts attached to account views.
type ChartGenerator struct{}

func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// GenerateEarningsChart renders the user's balance, referral earnings and
// withdrawn total as a bar chart. Returns nil bytes when there is nothing to
// show yet.
func (g *ChartGenerator) GenerateEarningsChart(stats *service.AccountStats) ([]byte, error) {
	if stats.Balance == 0 && stats.ReferralEarnings == 0 && stats.WithdrawnTotal == 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:    "Earnings Overview",
		Width:    900,
		Height:   500,
		BarWidth: 120,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   30,
				Right:  30,
				Bottom: 30,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.Style{
			FontSize:  12,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f৳", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: []chart.Value{
			{
				Label: fmt.Sprintf("Balance %d৳", stats.Balance),
				Value: float64(stats.Balance),
				Style: chart.Style{FillColor: chart.ColorGreen, StrokeColor: chart.ColorGreen},
			},
			{
				Label: fmt.Sprintf("Referral %d৳", stats.ReferralEarnings),
				Value: float64(stats.ReferralEarnings),
				Style: chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue},
			},
			{
				Label: fmt.Sprintf("Withdrawn %d৳", stats.WithdrawnTotal),
				Value: float64(stats.WithdrawnTotal),
				Style: chart.Style{FillColor: chart.ColorOrange, StrokeColor: chart.ColorOrange},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render earnings chart: %w", err)
	}
	return buffer.Bytes(), nil
}
