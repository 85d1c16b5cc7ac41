/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(rec, req)
	return rec
}

func TestSeenEndpoint(t *testing.T) {
	seen := core.NewSeenSet()
	seen.Add(core.CategoryGPU, "b-host")
	seen.Add(core.CategoryCPU, "a-host")
	seen.Add(core.CategoryGPU, "a-host")

	router := NewRouter(seen, prometheus.NewRegistry())
	rec := get(t, router, "/seen")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ok   bool `json:"ok"`
		Data struct {
			Count int `json:"count"`
			Hosts []struct {
				ID         string   `json:"id"`
				Categories []string `json:"categories"`
			} `json:"hosts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ok)
	assert.Equal(t, 2, body.Data.Count)
	require.Len(t, body.Data.Hosts, 2)
	assert.Equal(t, "a-host", body.Data.Hosts[0].ID)
	assert.ElementsMatch(t, []string{"cpu", "gpu"}, body.Data.Hosts[0].Categories)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "hostwatch_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	router := NewRouter(core.NewSeenSet(), reg)

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = get(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hostwatch_test_total 1")

	rec = get(t, router, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", core.NewSeenSet(), prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
