package plots

import (
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
)

// ScorelineBins is the number of unit-width goal bins per axis, covering [0,10).
const ScorelineBins = 10

// ScorelineSample is one posterior draw of a match result.
type ScorelineSample struct {
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

// Histogram2D holds scoreline probabilities indexed [homeGoals][awayGoals].
type Histogram2D [ScorelineBins][ScorelineBins]float64

// Sum adds every bin.
func (h *Histogram2D) Sum() float64 {
	var s float64
	for i := range h {
		for j := range h[i] {
			s += h[i][j]
		}
	}
	return s
}

// ScorelineHistogram bins the samples of the home/away pair and normalises the
// counts to probabilities. Samples outside [0,10) on either axis are ignored; n
// is the number of samples that landed in a bin. With n == 0 every bin is zero.
func ScorelineHistogram(samples []ScorelineSample, home, away string) (h Histogram2D, n int) {
	var counts [ScorelineBins][ScorelineBins]int
	for _, s := range samples {
		if s.Home != home || s.Away != away {
			continue
		}
		if s.HomeGoals < 0 || s.HomeGoals >= ScorelineBins || s.AwayGoals < 0 || s.AwayGoals >= ScorelineBins {
			continue
		}
		counts[s.HomeGoals][s.AwayGoals]++
		n++
	}
	if n == 0 {
		return h, 0
	}
	for i := range counts {
		for j := range counts[i] {
			h[i][j] = float64(counts[i][j]) / float64(n)
		}
	}
	return h, n
}

// Scoreline draws the scoreline distribution of one fixture as a heatmap with home
// goals along x and away goals along y.
func Scoreline(samples []ScorelineSample, home, away string) *Figure {
	h, _ := ScorelineHistogram(samples, home, away)

	axis := make([]float64, ScorelineBins)
	for i := range axis {
		axis[i] = float64(i)
	}
	// plotly heatmaps index z[row=y][col=x]
	z := make([][]float64, ScorelineBins)
	for a := range z {
		z[a] = make([]float64, ScorelineBins)
		for hg := range z[a] {
			z[a][hg] = h[hg][a]
		}
	}

	return &Figure{
		Data: grob.Traces{&grob.Heatmap{
			Type:          grob.TraceTypeHeatmap,
			Name:          fmt.Sprintf("%s - %s Scoreline Probability", home, away),
			X:             axis,
			Y:             axis,
			Z:             z,
			Colorscale:    [][2]any{{0, "white"}, {1, "#4b5563"}},
			Hovertemplate: "Probability: %{z:.01%}<extra></extra>",
		}},
		Layout: &grob.Layout{
			Width:  600,
			Height: 600,
			Xaxis:  &grob.LayoutXaxis{Title: xTitle(fmt.Sprintf("Home (%s) Goals", home)), Dtick: 1},
			Yaxis:  &grob.LayoutYaxis{Title: yTitle(fmt.Sprintf("Away (%s) Goals", away)), Dtick: 1},
		},
	}
}
