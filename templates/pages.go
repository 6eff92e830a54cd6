// Package templates renders the dashboard pages.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const plotlyScript = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var navLinks = []struct{ Path, Label string }{
	{"/", "About"},
	{"/scorelines", "Scorelines"},
	{"/inference", "Inference"},
	{"/selection", "Selection"},
}

const styles = `
body { font-family: "Inter", system-ui, sans-serif; margin: 0; color: #1f2937; background: #f9fafb; }
nav { display: flex; gap: 1.5rem; padding: 1rem 2rem; background: #4b5563; }
nav a { color: #e5e7eb; text-decoration: none; }
nav a.active { color: #fff; font-weight: 600; }
main { padding: 1.5rem 2rem; }
form { margin-bottom: 1rem; }
.charts { display: flex; flex-wrap: wrap; gap: 1rem; }
.tab { display: inline-block; margin-right: 1rem; }
`

// writer records the first write error so page bodies can be written linearly.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) chart(c Chart) {
	id := templ.EscapeString(c.ID)
	w.raw(`<div id="` + id + `"></div>`)
	w.raw(`<script>(function(){var f=`)
	w.raw(string(c.JSON))
	w.raw(`;Plotly.newPlot("` + id + `",f.data,f.layout,{displayModeBar:false});})();</script>`)
}

// Layout wraps body in the shared page shell.
func Layout(title, active string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(title + " | Lionel")
		w.raw(`</title><style>` + styles + `</style>`)
		w.raw(`<script src="` + plotlyScript + `"></script></head><body><nav>`)
		for _, l := range navLinks {
			class := ""
			if l.Path == active {
				class = ` class="active"`
			}
			w.raw(`<a href="` + l.Path + `"` + class + `>`)
			w.text(l.Label)
			w.raw(`</a>`)
		}
		w.raw(`</nav><main>`)
		if w.err != nil {
			return w.err
		}
		if err := body.Render(ctx, out); err != nil {
			return err
		}
		w.raw(`</main></body></html>`)
		return w.err
	})
}

func AboutPage(data AboutPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>About lionel</h1><h2>A Fantasy Premier League team optimisation tool</h2>`)
		w.raw(`<p>lionel predicts player performance with a Bayesian hierarchical model and picks the squad `)
		w.raw(`with linear programming, maximising expected points within the rules of the game.</p>`)
		w.raw(`<h3>Match level</h3><p>Home and away goals are Poisson counts whose log rate combines an intercept, `)
		w.raw(`the attacking team's attack strength, the defending team's defence strength and, for the home side, a home advantage term.</p>`)
		w.raw(`<h3>Player level</h3><p>Each simulated goal is shared out as a goal, an assist or neither across the players on the pitch. `)
		w.raw(`Points follow from those involvements, clean sheets and a per-player effect, scaled by expected minutes.</p>`)
		w.raw(`<h2>Predictions</h2><p>The fitted model is simulated many times. The chart below shows the predicted scoreline distribution for `)
		w.text(data.Home + " vs " + data.Away)
		w.raw(`.</p>`)
		w.chart(data.Showcase)
		w.raw(`<p>Next gameweek's scorelines are on the <a href="/scorelines">Scorelines</a> page and player and team estimates on the <a href="/inference">Inference</a> page.</p>`)
		w.raw(`<h2>Team selection</h2><p>The squad maximises mean expected points over the next five games, `)
		w.raw(`so picks hold up across several gameweeks rather than one.</p>`)
		w.raw(`<h2>Reproducibility</h2><p>FPL data before 2024-25 comes from the `)
		w.raw(`<a href="https://github.com/vaastav/Fantasy-Premier-League">vaastav/Fantasy-Premier-League</a> archive.</p>`)
		return w.err
	})
	return Layout("About", "/", body)
}

func ScorelinesPage(data ScorelinePageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>Scoreline predictions</h1>`)
		if data.Gameweek > 0 {
			w.raw(`<h2>Gameweek ` + strconv.Itoa(data.Gameweek) + `</h2>`)
		}
		w.raw(`<form method="get" action="/scorelines"><label for="match">Match</label> `)
		w.raw(`<select id="match" name="match" onchange="this.form.submit()">`)
		for _, m := range data.Matches {
			selected := ""
			if m == data.Selected {
				selected = " selected"
			}
			w.raw(`<option value="`)
			w.text(m)
			w.raw(`"` + selected + `>`)
			w.text(m)
			w.raw(`</option>`)
		}
		w.raw(`</select> <noscript><button type="submit">Show</button></noscript></form>`)
		w.chart(data.Chart)
		return w.err
	})
	return Layout("Scorelines", "/scorelines", body)
}

func InferencePage(data InferencePageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>Model inference</h1>`)
		w.raw(`<div><a class="tab" href="#players">Players</a><a class="tab" href="#teams">Teams</a></div>`)
		w.raw(`<section id="players"><h2>Player goal and assist probability</h2>`)
		w.raw(`<form method="get" action="/inference"><label for="min_minutes">Minimum average minutes</label> `)
		w.raw(fmt.Sprintf(`<input type="range" id="min_minutes" name="min_minutes" min="0" max="90" step="1" value="%d" onchange="this.form.submit()">`, data.MinMinutes))
		w.raw(` <output>` + strconv.Itoa(data.MinMinutes) + `</output></form>`)
		w.chart(data.Players)
		w.raw(`</section><section id="teams"><h2>Team attack and defence strength</h2>`)
		w.chart(data.Teams)
		w.raw(`</section>`)
		return w.err
	})
	return Layout("Inference", "/inference", body)
}

func SelectionPage(data SelectionPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		gw := strconv.Itoa(data.Gameweek)
		w.raw(`<h1>Team selections</h1><div class="charts"><div>`)
		w.raw(`<h2>Team selection for gameweek ` + gw + `</h2>`)
		w.chart(data.Pitch)
		w.raw(`</div><div><h2>Forecasts and values for gameweek ` + gw + `</h2>`)
		w.chart(data.Value)
		w.raw(`</div></div>`)
		return w.err
	})
	return Layout("Selection", "/selection", body)
}

func ErrorPage(data ErrorPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>` + strconv.Itoa(data.Status) + `</h1><p>`)
		w.text(data.Message)
		w.raw(`</p>`)
		return w.err
	})
	return Layout("Error", "", body)
}
