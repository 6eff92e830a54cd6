package templates

// Chart is a figure ready to hand to Plotly.newPlot. JSON must be the encoded
// figure with HTML-sensitive characters escaped.
type Chart struct {
	ID   string
	JSON []byte
}

type AboutPageData struct {
	Showcase Chart
	Home     string
	Away     string
}

type ScorelinePageData struct {
	Gameweek int
	// Matches are "Home vs Away" labels for the selector.
	Matches  []string
	Selected string
	Chart    Chart
}

type InferencePageData struct {
	MinMinutes int
	Players    Chart
	Teams      Chart
}

type SelectionPageData struct {
	Gameweek int
	Pitch    Chart
	Value    Chart
}

// ErrorPageData is shown when a page cannot be built.
type ErrorPageData struct {
	Status  int
	Message string
}
