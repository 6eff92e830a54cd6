package plots

import grob "github.com/MetalBlueberry/go-plotly/graph_objects"

// Positions in the order the inference chart lists them.
const (
	GK  = "GK"
	DEF = "DEF"
	MID = "MID"
	FWD = "FWD"
)

type PlayerInference struct {
	Name        string  `json:"player_name"`
	Team        string  `json:"team_name"`
	Position    string  `json:"position"`
	Goals       float64 `json:"goals_scored"`
	Assists     float64 `json:"assists"`
	MeanMinutes float64 `json:"mean_minutes"`
}

type TeamInference struct {
	Team    string  `json:"team_name"`
	Attack  float64 `json:"attack"`
	Defence float64 `json:"defence"`
}

type positionGroup struct {
	position string
	name     string
	color    string
}

var playerGroups = []positionGroup{
	{GK, "Goalkeepers", "#abb8f1"},
	{DEF, "Defenders", "#818cb6"},
	{MID, "Midfielders", "#58617b"},
	{FWD, "Forwards", "black"},
}

const playerHover = "<b>%{customdata[0]}</b><br>Position: %{customdata[1]}" +
	"<br>Team: %{customdata[2]}<br>Avg Minutes: %{customdata[3]}" +
	"<br>Goals: %{y}<br>Assists: %{x}<extra></extra>"

// FilterMinutes keeps players whose mean minutes are strictly above minMinutes.
func FilterMinutes(rows []PlayerInference, minMinutes int) []PlayerInference {
	out := make([]PlayerInference, 0, len(rows))
	for _, r := range rows {
		if r.MeanMinutes > float64(minMinutes) {
			out = append(out, r)
		}
	}
	return out
}

// PlayerInferenceFigure plots assist probability against goal probability for
// players averaging more than minMinutes, one series per position. Players with an
// unknown position are left out.
func PlayerInferenceFigure(rows []PlayerInference, minMinutes int) *Figure {
	kept := FilterMinutes(rows, minMinutes)

	fig := &Figure{
		Data: grob.Traces{},
		Layout: &grob.Layout{
			Height: 600,
			Legend: &grob.LayoutLegend{Orientation: "h", X: 0.1, Y: -0.15},
			Xaxis:  &grob.LayoutXaxis{Title: xTitle("Assist Probability")},
			Yaxis:  &grob.LayoutYaxis{Title: yTitle("Goal Probability")},
		},
	}
	for _, g := range playerGroups {
		s := newSeries(g.name, "markers")
		for _, r := range kept {
			if r.Position == g.position {
				s.add(r.Assists, r.Goals, r.Name, r.Position, r.Team, r.MeanMinutes)
			}
		}
		tr := s.trace(playerHover)
		tr.Marker = &grob.ScatterMarker{Color: g.color}
		fig.Data = append(fig.Data, tr)
	}
	return fig
}

// TeamInferenceFigure plots each team's attack strength against its defence
// strength. Hover text shows both as percentages.
func TeamInferenceFigure(rows []TeamInference) *Figure {
	s := newSeries("", "markers")
	for _, r := range rows {
		s.add(r.Attack, r.Defence, r.Team, r.Attack, r.Defence)
	}
	tr := s.trace("<b>%{customdata[0]}</b><br>Attack: %{customdata[1]:.1%}" +
		"<br>Defence: %{customdata[2]:.1%}<extra></extra>")
	tr.Marker = &grob.ScatterMarker{Color: "#58617b"}

	return &Figure{
		Data: grob.Traces{tr},
		Layout: &grob.Layout{
			Width:  1000,
			Height: 600,
			Xaxis:  &grob.LayoutXaxis{Title: xTitle("Attack Strength")},
			Yaxis:  &grob.LayoutYaxis{Title: yTitle("Defence Strength")},
		},
	}
}
