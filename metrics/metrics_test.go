package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/reel-cortex/status"
)

func TestCounters(t *testing.T) {
	m := New(nil)

	m.SpinsTotal.Inc()
	m.SpinsTotal.Inc()
	m.HintsTotal.WithLabelValues(OutcomeFallback).Inc()
	m.LandedSymbols.WithLabelValues(SymbolLabel("sid")).Add(3)
	m.Score.Set(10000)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SpinsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HintsTotal.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LandedSymbols.WithLabelValues("SID")))
	assert.Equal(t, 10000.0, testutil.ToFloat64(m.Score))
}

func TestStatusCollector(t *testing.T) {
	reg := status.NewRegistry()
	reg.Ints.Get(status.KeyScore).Store(5000)
	reg.Bools.Get(status.KeyMotion).Store(true)
	reg.Floats.Get(status.KeyFrameDelta).Set(1.25)
	reg.Strings.Get(status.KeyPhase).Store("ready")

	c := NewStatusCollector(reg)
	assert.Equal(t, 3, testutil.CollectAndCount(c), "string values are not exported")

	expected := `
# HELP reel_cortex_status_value Live game status values keyed by name.
# TYPE reel_cortex_status_value gauge
reel_cortex_status_value{key="game.score"} 5000
reel_cortex_status_value{key="loop.dt"} 1.25
reel_cortex_status_value{key="reel.motion"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestSymbolLabel(t *testing.T) {
	assert.Equal(t, "INSIGHT_NODE", SymbolLabel("insight_node"))
	assert.Len(t, SymbolLabel(strings.Repeat("x", 100)), 32)
}

func TestRouter(t *testing.T) {
	reg := status.NewRegistry()
	reg.Ints.Get(status.KeySpins).Store(7)
	m := New(reg)
	m.SpinsTotal.Inc()

	srv := httptest.NewServer(NewRouter(m, reg))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "reel_cortex_spins_total 1")
	assert.Contains(t, body, `reel_cortex_status_value{key="spin.launched"} 7`)
	assert.Contains(t, body, "go_goroutines")

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"spin.launched":7`)

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerLifecycle(t *testing.T) {
	s := NewServer("127.0.0.1:0", New(nil), nil, nil)
	addr, err := s.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
