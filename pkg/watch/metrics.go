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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK         = "ok"
	resultFetchError = "fetch_error"
)

// Metrics are the counters and gauges updated by the polling loop.
type Metrics struct {
	Cycles         *prometheus.CounterVec
	NewHosts       *prometheus.CounterVec
	NotifyFailures prometheus.Counter
	SeenHosts      prometheus.Gauge
	LastSuccess    prometheus.Gauge
}

// NewMetrics creates the loop metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwatch_cycles_total",
				Help: "Polling cycles by result",
			},
			[]string{"result"},
		),
		NewHosts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwatch_new_hosts_total",
				Help: "Hosts reported as new, by category",
			},
			[]string{"category"},
		),
		NotifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hostwatch_notify_failures_total",
				Help: "Notification deliveries that failed",
			},
		),
		SeenHosts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwatch_seen_hosts",
				Help: "Host ids in the seen-set",
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwatch_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that fetched an inventory",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Cycles, m.NewHosts, m.NotifyFailures, m.SeenHosts, m.LastSuccess)
	}
	return m
}
