// Package plots turns query rows into Plotly figure specifications.
//
// Every builder is a pure function: the same rows and filters always give the same
// Figure. A filter that matches nothing still yields its series, with empty x/y
// arrays, so legends stay stable between renders.
package plots

import (
	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
)

// Figure is the JSON document plotly.js takes as {data, layout}.
type Figure = grob.Fig

// series collects the points of one scatter trace before it is handed to plotly.
type series struct {
	name   string
	mode   grob.ScatterMode
	x, y   []float64
	text   []string
	custom [][]any
}

func newSeries(name string, mode grob.ScatterMode) *series {
	return &series{
		name:   name,
		mode:   mode,
		x:      []float64{},
		y:      []float64{},
		custom: [][]any{},
	}
}

func (s *series) add(x, y float64, custom ...any) {
	s.x = append(s.x, x)
	s.y = append(s.y, y)
	s.custom = append(s.custom, custom)
}

func (s *series) label(text string) {
	s.text = append(s.text, text)
}

// trace builds the scatter trace; callers style it further.
func (s *series) trace(hover string) *grob.Scatter {
	tr := &grob.Scatter{
		Type:          grob.TraceTypeScatter,
		Name:          s.name,
		Mode:          s.mode,
		X:             s.x,
		Y:             s.y,
		Customdata:    s.custom,
		Hovertemplate: hover,
	}
	if s.text != nil {
		tr.Text = s.text
	}
	return tr
}

// line is a hover-less polyline in the pitch colour.
func line(xs, ys []float64, width float64) *grob.Scatter {
	return &grob.Scatter{
		Type:      grob.TraceTypeScatter,
		Mode:      "lines",
		X:         xs,
		Y:         ys,
		Hoverinfo: "skip",
		Line:      &grob.ScatterLine{Color: pitchColor, Width: width},
	}
}

// shape is one entry of layout.shapes. go-plotly leaves the shapes items array
// untyped, so the pitch outline and centre circle are described here.
type shape struct {
	Type string     `json:"type"`
	XRef string     `json:"xref,omitempty"`
	YRef string     `json:"yref,omitempty"`
	X0   float64    `json:"x0"`
	Y0   float64    `json:"y0"`
	X1   float64    `json:"x1"`
	Y1   float64    `json:"y1"`
	Line *shapeLine `json:"line,omitempty"`
}

type shapeLine struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

func xTitle(s string) *grob.LayoutXaxisTitle { return &grob.LayoutXaxisTitle{Text: s} }

func yTitle(s string) *grob.LayoutYaxisTitle { return &grob.LayoutYaxisTitle{Text: s} }
