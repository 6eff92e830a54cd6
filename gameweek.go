package main

import (
	"errors"
	"sort"
	"time"
)

// ErrNoCompletedGameweek means no gameweek of the season has finished yet, so
// there is no "next" one to resolve.
var ErrNoCompletedGameweek = errors.New("no completed gameweek")

type Fixture struct {
	Season   int `json:"season"`
	Gameweek int `json:"gameweek"`
	HomeID   int `json:"home_id"`
	AwayID   int `json:"away_id"`
	// KickoffTime is zero while the fixture is unscheduled.
	KickoffTime time.Time `json:"kickoff_time"`
}

// gameweekWindow is the kickoff span of one gameweek.
type gameweekWindow struct {
	Gameweek     int
	FirstKickoff time.Time
	LastKickoff  time.Time
}

// gameweekWindows spans the scheduled fixtures of each gameweek. A gameweek with
// no scheduled fixture has no window.
func gameweekWindows(fixtures []Fixture) []gameweekWindow {
	byGW := make(map[int]*gameweekWindow)
	for _, f := range fixtures {
		if f.KickoffTime.IsZero() {
			continue
		}
		w, ok := byGW[f.Gameweek]
		if !ok {
			byGW[f.Gameweek] = &gameweekWindow{Gameweek: f.Gameweek, FirstKickoff: f.KickoffTime, LastKickoff: f.KickoffTime}
			continue
		}
		if f.KickoffTime.Before(w.FirstKickoff) {
			w.FirstKickoff = f.KickoffTime
		}
		if f.KickoffTime.After(w.LastKickoff) {
			w.LastKickoff = f.KickoffTime
		}
	}
	out := make([]gameweekWindow, 0, len(byGW))
	for _, w := range byGW {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gameweek < out[j].Gameweek })
	return out
}

// dateBefore compares calendar dates, each read in its own location.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// ResolveNextGameweek returns one past the latest gameweek whose last kickoff fell
// on a date strictly before today's date.
func ResolveNextGameweek(fixtures []Fixture, today time.Time) (int, error) {
	last := 0
	found := false
	for _, w := range gameweekWindows(fixtures) {
		if dateBefore(w.LastKickoff, today) {
			last = w.Gameweek
			found = true
		}
	}
	if !found {
		return 0, ErrNoCompletedGameweek
	}
	return last + 1, nil
}
