package cmd

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-14", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{" 2025-03-14 ", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"2025-03-14T18:30:00Z", time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := parseDay(c.in)
		if err != nil {
			t.Errorf("parseDay(%q): %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("parseDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := parseDay("14/03/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestReadRankingCSV(t *testing.T) {
	in := "rank,team,date\n1,Vitality,2025-03-10\n 2, NAVI ,2025-03-10\n"
	got, err := readRankingCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []rankingRecord{
		{Team: "Vitality", Date: "2025-03-10", Rank: 1},
		{Team: "NAVI", Date: "2025-03-10", Rank: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReadRankingCSVErrors(t *testing.T) {
	for name, in := range map[string]string{
		"missing column": "team,date\nVitality,2025-03-10\n",
		"bad rank":       "team,date,rank\nVitality,2025-03-10,first\n",
	} {
		if _, err := readRankingCSV(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "window Vitality", want: []string{"window", "Vitality"}},
		{in: `h2h "The MongolZ" NAVI  2025-01-01`, want: []string{"h2h", "The MongolZ", "NAVI", "2025-01-01"}},
		{in: "   ", want: nil},
		{in: `live "" x`, want: []string{"live", "", "x"}},
	}
	for _, c := range cases {
		if got := splitArgs(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("splitArgs(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
