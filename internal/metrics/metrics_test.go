package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(itemsTotal.WithLabelValues("created"))
	Item("created")
	Item("created")
	if got := testutil.ToFloat64(itemsTotal.WithLabelValues("created")) - before; got != 2 {
		t.Fatalf("created delta = %v, want 2", got)
	}

	beforeImg := testutil.ToFloat64(imagesTotal.WithLabelValues("failed"))
	Images("failed", 0)
	Images("failed", 3)
	if got := testutil.ToFloat64(imagesTotal.WithLabelValues("failed")) - beforeImg; got != 3 {
		t.Fatalf("images delta = %v, want 3", got)
	}

	RunFinished("succeeded", 2*time.Second)
	if testutil.ToFloat64(runsTotal.WithLabelValues("succeeded")) < 1 {
		t.Fatalf("run counter not incremented")
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 99: "unknown"}
	for code, want := range cases {
		if got := classifyStatus(code); got != want {
			t.Fatalf("classifyStatus(%d) = %s, want %s", code, got, want)
		}
	}
}
