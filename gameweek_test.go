package main

import (
	"errors"
	"testing"
	"time"
)

func kickoff(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seasonFixtures() []Fixture {
	return []Fixture{
		{Season: 25, Gameweek: 1, KickoffTime: kickoff("2024-08-16T19:00:00Z")},
		{Season: 25, Gameweek: 1, KickoffTime: kickoff("2024-08-19T19:00:00Z")},
		{Season: 25, Gameweek: 2, KickoffTime: kickoff("2024-08-24T11:30:00Z")},
		{Season: 25, Gameweek: 2, KickoffTime: kickoff("2024-08-25T15:00:00Z")},
		{Season: 25, Gameweek: 3, KickoffTime: kickoff("2024-08-31T11:30:00Z")},
		{Season: 25, Gameweek: 3, KickoffTime: kickoff("2024-09-01T15:00:00Z")},
	}
}

func TestResolveNextGameweek(t *testing.T) {
	tests := []struct {
		name  string
		today string
		want  int
	}{
		{"after gw1", "2024-08-20T08:00:00Z", 2},
		// gw2's last kickoff is today, so it is not complete yet
		{"last kickoff today", "2024-08-25T23:00:00Z", 2},
		{"day after gw2", "2024-08-26T00:00:00Z", 3},
		{"mid gw3", "2024-08-31T20:00:00Z", 3},
		{"season over", "2025-06-01T00:00:00Z", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNextGameweek(seasonFixtures(), kickoff(tt.today))
			if err != nil {
				t.Fatalf("ResolveNextGameweek() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveNextGameweek() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveNextGameweekNoneComplete(t *testing.T) {
	_, err := ResolveNextGameweek(seasonFixtures(), kickoff("2024-08-19T10:00:00Z"))
	if !errors.Is(err, ErrNoCompletedGameweek) {
		t.Fatalf("err = %v, want ErrNoCompletedGameweek", err)
	}
	_, err = ResolveNextGameweek(nil, time.Now())
	if !errors.Is(err, ErrNoCompletedGameweek) {
		t.Fatalf("empty fixtures: err = %v, want ErrNoCompletedGameweek", err)
	}
}

func TestResolveNextGameweekUnorderedAndPostponed(t *testing.T) {
	// gw2 has a postponed game rescheduled after gw3, so gw3 finishing first
	// still resolves past it while gw2 stays open
	fixtures := []Fixture{
		{Gameweek: 3, KickoffTime: kickoff("2024-09-01T15:00:00Z")},
		{Gameweek: 1, KickoffTime: kickoff("2024-08-16T19:00:00Z")},
		{Gameweek: 2, KickoffTime: kickoff("2024-08-24T11:30:00Z")},
		{Gameweek: 2, KickoffTime: kickoff("2024-10-02T19:00:00Z")},
	}
	got, err := ResolveNextGameweek(fixtures, kickoff("2024-09-10T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("got %d, want 4 (highest completed gameweek + 1)", got)
	}
}

func TestResolveNextGameweekIdempotent(t *testing.T) {
	today := kickoff("2024-08-27T12:00:00Z")
	a, errA := ResolveNextGameweek(seasonFixtures(), today)
	b, errB := ResolveNextGameweek(seasonFixtures(), today)
	if errA != nil || errB != nil || a != b {
		t.Fatalf("not idempotent: (%d,%v) vs (%d,%v)", a, errA, b, errB)
	}
}

func TestResolveNextGameweekExceedsCompleted(t *testing.T) {
	fixtures := seasonFixtures()
	for d := 0; d < 30; d++ {
		today := kickoff("2024-08-20T00:00:00Z").AddDate(0, 0, d)
		got, err := ResolveNextGameweek(fixtures, today)
		if err != nil {
			t.Fatal(err)
		}
		for _, w := range gameweekWindows(fixtures) {
			if dateBefore(w.LastKickoff, today) && got <= w.Gameweek {
				t.Fatalf("%s: next gameweek %d not past completed gameweek %d", today.Format(time.DateOnly), got, w.Gameweek)
			}
		}
	}
}

func TestGameweekWindows(t *testing.T) {
	ws := gameweekWindows(seasonFixtures())
	if len(ws) != 3 {
		t.Fatalf("got %d windows, want 3", len(ws))
	}
	if !ws[1].FirstKickoff.Equal(kickoff("2024-08-24T11:30:00Z")) || !ws[1].LastKickoff.Equal(kickoff("2024-08-25T15:00:00Z")) {
		t.Errorf("gw2 window = %v..%v", ws[1].FirstKickoff, ws[1].LastKickoff)
	}
}

func TestResolveNextGameweekSkipsUnscheduled(t *testing.T) {
	fixtures := append(seasonFixtures(),
		// gw4 has only an unscheduled fixture, gw2 gains one
		Fixture{Season: 25, Gameweek: 4},
		Fixture{Season: 25, Gameweek: 2},
	)
	got, err := ResolveNextGameweek(fixtures, kickoff("2024-09-10T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("got %d, want 4", got)
	}

	ws := gameweekWindows(fixtures)
	if len(ws) != 3 {
		t.Fatalf("got %d windows, want 3 (gw4 has no kickoff)", len(ws))
	}
	if !ws[1].FirstKickoff.Equal(kickoff("2024-08-24T11:30:00Z")) {
		t.Errorf("gw2 first kickoff = %v, unscheduled fixture leaked in", ws[1].FirstKickoff)
	}

	_, err = ResolveNextGameweek([]Fixture{{Gameweek: 1}, {Gameweek: 2}}, kickoff("2024-09-10T00:00:00Z"))
	if !errors.Is(err, ErrNoCompletedGameweek) {
		t.Errorf("all unscheduled: err = %v, want ErrNoCompletedGameweek", err)
	}
}
