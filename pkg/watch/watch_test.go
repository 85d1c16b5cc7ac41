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

package watch

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	"gitlab.com/davidxarnold/hostwatch/pkg/marketplace"
	"gitlab.com/davidxarnold/hostwatch/pkg/notify"
	"gitlab.com/davidxarnold/hostwatch/pkg/render"
)

type fakeProvider struct {
	mu    sync.Mutex
	snaps []*core.Snapshot
	err   error
	calls int
}

func (p *fakeProvider) Fetch(_ context.Context, _ marketplace.Query) (*core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if len(p.snaps) == 0 {
		return &core.Snapshot{Success: true}, nil
	}
	s := p.snaps[0]
	if len(p.snaps) > 1 {
		p.snaps = p.snaps[1:]
	}
	return s, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeNotifier struct {
	texts  []string
	photos [][]byte
	fail   bool
}

func (n *fakeNotifier) deliveries() []notify.Delivery {
	if n.fail {
		return []notify.Delivery{{Destination: "1", Err: errors.New("boom")}, {Destination: "2"}}
	}
	return []notify.Delivery{{Destination: "1"}}
}

func (n *fakeNotifier) SendText(_ context.Context, text string) []notify.Delivery {
	n.texts = append(n.texts, text)
	return n.deliveries()
}

func (n *fakeNotifier) SendPhoto(_ context.Context, photo []byte, _ string) []notify.Delivery {
	n.photos = append(n.photos, photo)
	return n.deliveries()
}

func mult(f float64) *float64 { return &f }

func inventory() *core.Snapshot {
	return &core.Snapshot{
		Success: true,
		Hosts: []core.Host{
			{
				ID:       "cpu-host-1",
				Location: core.Location{City: "Oslo", Country: "Norway"},
				Online:   true,
				CPU:      core.CPUSpec{Type: "AMD Ryzen Threadripper PRO 3995WX", Amount: 64, Price: 0.003},
			},
			{
				ID:       "gpu-host-1",
				Location: core.Location{City: "Austin", Country: "USA"},
				Online:   true,
				CPU:      core.CPUSpec{Type: "Intel Xeon", Amount: 32, Price: 0.002},
				GPUs:     []core.GPUGroup{{Model: "geforcertx4090-pcie-24gb", Amount: 2, Price: 0.35}},
			},
		},
	}
}

func newTestWatcher(p marketplace.Provider, n notify.Notifier) *Watcher {
	return &Watcher{
		Provider: p,
		Notifier: n,
		Seen:     core.NewSeenSet(),
		Metrics:  NewMetrics(prometheus.NewRegistry()),
		Rand:     rand.New(rand.NewSource(7)),
		Criteria: core.Criteria{
			CPUType:   "3995",
			GPURules:  []core.GPURule{{Pattern: "4090", Multiplier: mult(2)}},
			EnableCPU: true,
			EnableGPU: true,
		},
		Interval: time.Millisecond,
	}
}

func TestRunCycleNotifiesOnce(t *testing.T) {
	p := &fakeProvider{snaps: []*core.Snapshot{inventory()}}
	n := &fakeNotifier{}
	w := newTestWatcher(p, n)

	var printed int
	w.Printer = func(res *core.Result, rows []render.Row) error {
		printed++
		assert.Len(t, rows, 2)
		return nil
	}

	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.NewCPU, 1)
	assert.Len(t, res.NewGPU, 1)
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "cpu-host-1")
	assert.Contains(t, n.texts[0], "gpu-host-1")

	res, err = w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.NewCPU)
	assert.Empty(t, res.NewGPU)
	assert.Len(t, res.CurrentCPU, 1)
	assert.Len(t, res.CurrentGPU, 1)
	assert.Len(t, n.texts, 1, "second cycle must not notify again")

	assert.Equal(t, 2, printed)
	assert.Equal(t, float64(2), testutil.ToFloat64(w.Metrics.Cycles.WithLabelValues(resultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.Metrics.NewHosts.WithLabelValues("cpu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.Metrics.NewHosts.WithLabelValues("gpu")))
	assert.Equal(t, float64(2), testutil.ToFloat64(w.Metrics.SeenHosts))
}

func TestRunCycleSendsPhoto(t *testing.T) {
	n := &fakeNotifier{}
	w := newTestWatcher(&fakeProvider{snaps: []*core.Snapshot{inventory()}}, n)
	w.SendPhoto = true

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, n.photos, 1)
	assert.Equal(t, "\x89PNG", string(n.photos[0][:4]))
}

func TestRunCycleFetchError(t *testing.T) {
	n := &fakeNotifier{}
	fetchErr := &marketplace.FetchError{Op: "status", Err: errors.New("503")}
	w := newTestWatcher(&fakeProvider{err: fetchErr}, n)

	_, err := w.RunCycle(context.Background())
	var fe *marketplace.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Empty(t, n.texts)
	assert.Equal(t, 0, w.Seen.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(w.Metrics.Cycles.WithLabelValues(resultFetchError)))
}

func TestRunCycleNotifyFailureKeepsHostsSeen(t *testing.T) {
	n := &fakeNotifier{fail: true}
	w := newTestWatcher(&fakeProvider{snaps: []*core.Snapshot{inventory()}}, n)

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Seen.Has(core.CategoryCPU, "cpu-host-1"))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.Metrics.NotifyFailures))

	_, err = w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.texts, 1)
}

func TestRunCycleUnsuccessfulSnapshot(t *testing.T) {
	n := &fakeNotifier{}
	w := newTestWatcher(&fakeProvider{snaps: []*core.Snapshot{{Success: false}}}, n)

	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasNew())
	assert.Empty(t, n.texts)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := &fakeProvider{err: errors.New("offline")}
	w := newTestWatcher(p, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Calls() >= 3 }, 2*time.Second, time.Millisecond,
		"fetch failures must not stop the loop")
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewWatcher(t *testing.T) {
	cfg := &Config{
		Provider: marketplace.ProviderFile,
		Fetch:    marketplace.Options{URL: "testdata/none.json"},
		Criteria: core.Criteria{EnableCPU: true},
	}
	w, err := NewWatcher(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, w.Interval)
	assert.IsType(t, notify.LogNotifier{}, w.Notifier)

	cfg.Telegram = notify.TelegramConfig{Token: "t", ChatIDs: []string{"1"}}
	w, err = NewWatcher(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.Telegram{}, w.Notifier)

	cfg.Telegram.ChatIDs = nil
	_, err = NewWatcher(cfg, nil)
	assert.Error(t, err)
}

func TestNewWatcherRejectsBadConfig(t *testing.T) {
	_, err := NewWatcher(&Config{Provider: "nope", Criteria: core.Criteria{EnableCPU: true}}, nil)
	assert.ErrorContains(t, err, "unknown provider")

	_, err = NewWatcher(&Config{Provider: marketplace.ProviderFile}, nil)
	assert.ErrorContains(t, err, "disabled")
}
