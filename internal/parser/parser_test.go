package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"

	"github.com/pable/go-cs-forecast/internal/model"
)

func TestTeamFromCommon(t *testing.T) {
	tests := []struct {
		in   common.Team
		want model.Team
	}{
		{common.TeamTerrorists, model.TeamT},
		{common.TeamCounterTerrorists, model.TeamCT},
		{common.TeamSpectators, model.TeamSpectators},
		{common.TeamUnassigned, model.TeamUnknown},
	}
	for _, tt := range tests {
		if got := teamFromCommon(tt.in); got != tt.want {
			t.Errorf("teamFromCommon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHashDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.dem")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashDemo(path)
	if err != nil {
		t.Fatalf("HashDemo: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("HashDemo = %s, want %s", got, want)
	}
}

func TestParseDemoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dem")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDemo(path); err == nil {
		t.Error("expected error for a file that is not a demo")
	}
}
