package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pable/go-cs-forecast/internal/model"
)

func TestCounters(t *testing.T) {
	p := New(false)
	p.RowEmitted(false)
	p.RowEmitted(true)
	p.RowEmitted(true)
	p.RowSkipped(model.ReasonNoStatsA)

	if got := testutil.ToFloat64(p.rowsEmitted.WithLabelValues("true")); got != 2 {
		t.Errorf("imputed rows: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.rowsSkipped.WithLabelValues("no_stats_a")); got != 1 {
		t.Errorf("no_stats_a skips: got %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	p := New(false)
	p.RowSkipped(model.ReasonDuplicate)
	p.ObserveRun("build", 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "csforecast.prom")
	if err := p.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`csforecast_rows_skipped_total{reason="duplicate"} 1`,
		`csforecast_run_duration_seconds_count{kind="build"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestHandler(t *testing.T) {
	p := New(true)
	p.LiveRequest("row")

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `csforecast_live_requests_total{result="row"} 1`) {
		t.Error("live request counter not exposed")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("runtime collector not registered")
	}
}
