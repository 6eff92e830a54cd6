package plots

import (
	"errors"
	"fmt"
	"math"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
)

// MaxSubstitutes is the bench size of a squad snapshot.
const MaxSubstitutes = 4

var ErrTooManySubstitutes = errors.New("too many substitutes")

// SquadPlayer is one row of an optimiser selection snapshot.
type SquadPlayer struct {
	// Player is the "<id>_<name>" key written by the optimiser.
	Player     string  `json:"player"`
	Team       string  `json:"team_name"`
	Position   string  `json:"position"`
	Picked     bool    `json:"picked"`
	FirstXI    bool    `json:"first_xi"`
	MeanPoints float64 `json:"mean_points_pred"`
	Value      float64 `json:"value"`
}

// Name strips the id prefix from the player key.
func (p SquadPlayer) Name() string {
	parts := strings.Split(p.Player, "_")
	if len(parts) < 2 {
		return p.Player
	}
	return parts[1]
}

// Surname is the last word of the display name, used as the pitch label.
func (p SquadPlayer) Surname() string {
	f := strings.Fields(p.Name())
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// RoundedPoints is the predicted mean rounded to one decimal place.
func (p SquadPlayer) RoundedPoints() float64 {
	return math.Round(p.MeanPoints*10) / 10
}

const (
	pitchColor  = "#9fbbe3"
	playerColor = "#4B5563"

	// pitchSpan is the width starters in one row are spread across.
	pitchSpan = 500.0
)

// pitchRows lists starter rows from the top of the pitch down.
var pitchRows = []struct {
	position string
	y        float64
}{
	{FWD, 350},
	{MID, 75},
	{DEF, -250},
	{GK, -475},
}

// substituteSpots are the off-pitch bench coordinates, filled in order.
var substituteSpots = [MaxSubstitutes][2]float64{
	{375, -90},
	{375, -30},
	{375, 30},
	{375, 90},
}

const squadHover = "<b>%{customdata[0]}</b>" +
	"<br><br><b>Team:</b> %{customdata[1]}" +
	"<br><b>Mean Predicted Points:</b> %{customdata[2]}" +
	"<extra></extra>"

// RowX spreads k players evenly over the pitch span, symmetric about 0. A lone
// player sits at x=0.
func RowX(k int) []float64 {
	switch {
	case k <= 0:
		return []float64{}
	case k == 1:
		return []float64{0}
	}
	step := pitchSpan / float64(k-1)
	xs := make([]float64, k)
	for i := range xs {
		xs[i] = -pitchSpan/2 + float64(i)*step
	}
	return xs
}

func (s *series) addPlayer(x, y float64, p SquadPlayer) {
	s.add(x, y, p.Name(), p.Team, p.RoundedPoints())
	s.label(p.Surname())
}

func playerMarkers(tr *grob.Scatter) {
	tr.Marker = &grob.ScatterMarker{Size: 25, Color: playerColor}
	tr.Textfont = &grob.ScatterTextfont{Color: playerColor, Size: 10}
}

// SquadPitch lays the picked squad out on a pitch: starters in position rows,
// substitutes on the bench beside it. Empty rows still get a trace.
func SquadPitch(players []SquadPlayer) (*Figure, error) {
	var starters, subs []SquadPlayer
	for _, p := range players {
		if !p.Picked {
			continue
		}
		if p.FirstXI {
			starters = append(starters, p)
		} else {
			subs = append(subs, p)
		}
	}
	if len(subs) > MaxSubstitutes {
		return nil, fmt.Errorf("%w: %d on the bench, at most %d", ErrTooManySubstitutes, len(subs), MaxSubstitutes)
	}

	fig := pitch()
	for _, row := range pitchRows {
		var inRow []SquadPlayer
		for _, p := range starters {
			if p.Position == row.position {
				inRow = append(inRow, p)
			}
		}
		s := newSeries(row.position, "markers+text")
		s.text = []string{}
		for i, x := range RowX(len(inRow)) {
			s.addPlayer(x, row.y, inRow[i])
		}
		tr := s.trace(squadHover)
		playerMarkers(tr)
		tr.Textposition = "bottom center"
		fig.Data = append(fig.Data, tr)
	}

	bench := newSeries("Substitutes", "markers")
	bench.text = []string{}
	for i, p := range subs {
		bench.addPlayer(substituteSpots[i][0], substituteSpots[i][1], p)
	}
	tr := bench.trace(squadHover)
	playerMarkers(tr)
	tr.Textposition = "bottom left"
	fig.Data = append(fig.Data, tr)

	return fig, nil
}

// pitch draws the markings: touchlines, halfway line, centre circle and both
// penalty boxes.
func pitch() *Figure {
	const lineWidth = 3

	box := func(edge, inner float64) *grob.Scatter {
		return line([]float64{-180, -180, 180, 180}, []float64{edge, inner, inner, edge}, lineWidth)
	}

	return &Figure{
		Data: grob.Traces{
			line([]float64{-350, 350}, []float64{0, 0}, lineWidth),
			box(-550, -400),
			box(550, 400),
		},
		Layout: &grob.Layout{
			Width:      500,
			Height:     725,
			Showlegend: grob.False,
			Font:       &grob.LayoutFont{Family: "sans-serif"},
			// a zero bottom margin is dropped on encode, which plotly reads as 80px
			Margin:       &grob.LayoutMargin{T: 10, B: 1},
			PaperBgcolor: "rgba(0,0,0,0)",
			PlotBgcolor:  "rgba(0,0,0,0)",
			Xaxis:        &grob.LayoutXaxis{Range: []float64{-400, 400}, Visible: grob.False},
			Yaxis:        &grob.LayoutYaxis{Range: []float64{-550, 550}, Visible: grob.False},
			Shapes: []shape{
				{Type: "rect", XRef: "x", YRef: "paper", X0: -350, Y0: 0, X1: 350, Y1: 1, Line: &shapeLine{Color: pitchColor, Width: 4}},
				{Type: "circle", XRef: "x", YRef: "y", X0: -100, Y0: -100, X1: 100, Y1: 100, Line: &shapeLine{Color: pitchColor, Width: lineWidth - 1}},
			},
		},
	}
}

// SquadValue plots every player of the snapshot by market value and predicted
// points, picked players in the darker colour.
func SquadValue(players []SquadPlayer) *Figure {
	notPicked := newSeries("Not picked", "markers")
	picked := newSeries("Picked", "markers")
	for _, p := range players {
		s := notPicked
		if p.Picked {
			s = picked
		}
		s.add(p.Value, p.RoundedPoints(), p.Name(), p.Team, p.RoundedPoints())
	}

	out := notPicked.trace(squadHover)
	out.Marker = &grob.ScatterMarker{Color: pitchColor}
	in := picked.trace(squadHover)
	in.Marker = &grob.ScatterMarker{Color: playerColor}

	return &Figure{
		Data: grob.Traces{out, in},
		Layout: &grob.Layout{
			Width:        700,
			Height:       800,
			Showlegend:   grob.False,
			PaperBgcolor: "rgba(0,0,0,0)",
			PlotBgcolor:  "rgba(0,0,0,0)",
			Font:         &grob.LayoutFont{Family: "sans-serif", Color: playerColor},
			Margin:       &grob.LayoutMargin{T: 10, B: 1},
			Xaxis: &grob.LayoutXaxis{
				Title:          xTitle("Player Value (as of previous GW)"),
				Showticklabels: grob.False,
			},
			Yaxis: &grob.LayoutYaxis{
				Title:          yTitle("Mean Predicted Points"),
				Showticklabels: grob.False,
			},
		},
	}
}
