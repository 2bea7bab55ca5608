package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	before := testutil.ToFloat64(RefreshTotal.WithLabelValues("success"))
	RefreshTotal.WithLabelValues("success").Inc()
	if got := testutil.ToFloat64(RefreshTotal.WithLabelValues("success")); got != before+1 {
		t.Fatalf("refresh counter = %v, want %v", got, before+1)
	}
}
