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

/*
Package watch runs the polling loop: fetch an inventory snapshot, classify
it against the criteria, print the table and notify about new hosts.
*/
package watch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	"gitlab.com/davidxarnold/hostwatch/pkg/marketplace"
	"gitlab.com/davidxarnold/hostwatch/pkg/notify"
	"gitlab.com/davidxarnold/hostwatch/pkg/render"
	"gitlab.com/davidxarnold/hostwatch/pkg/util"
)

// DefaultInterval is the base pause between cycles.
const DefaultInterval = 60 * time.Second

// Config is built once at startup and passed to NewWatcher.
type Config struct {
	Provider  string
	Fetch     marketplace.Options
	Query     marketplace.Query
	Criteria  core.Criteria
	Interval  time.Duration
	SendPhoto bool
	Telegram  notify.TelegramConfig
	Listen    string
}

// Printer writes the table of one cycle to the console.
type Printer func(res *core.Result, rows []render.Row) error

// Watcher owns the seen-set and drives the cycles. The exported fields may be
// replaced before Run is called.
type Watcher struct {
	Provider  marketplace.Provider
	Notifier  notify.Notifier
	Seen      *core.SeenSet
	Metrics   *Metrics
	Printer   Printer
	Rand      *rand.Rand
	Criteria  core.Criteria
	Query     marketplace.Query
	Interval  time.Duration
	SendPhoto bool
}

// NewWatcher resolves the provider and notifier named in cfg.
func NewWatcher(cfg *Config, metrics *Metrics) (*Watcher, error) {
	provider := marketplace.LookupProvider(cfg.Provider, cfg.Fetch)
	if provider == nil {
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if !cfg.Criteria.EnableCPU && !cfg.Criteria.EnableGPU {
		return nil, errors.New("both CPU and GPU monitoring are disabled")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		notifier = tg
	} else {
		log.Warn("no telegram token configured, notifications go to the log")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Watcher{
		Provider:  provider,
		Notifier:  notifier,
		Seen:      core.NewSeenSet(),
		Metrics:   metrics,
		Criteria:  cfg.Criteria,
		Query:     cfg.Query,
		Interval:  interval,
		SendPhoto: cfg.SendPhoto,
	}, nil
}

// Run executes cycles until ctx is cancelled. Cycle failures are logged and
// never stop the loop. Cancellation is a clean exit and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"interval":   w.Interval,
		"enable-cpu": w.Criteria.EnableCPU,
		"enable-gpu": w.Criteria.EnableGPU,
		"gpu-rules":  len(w.Criteria.GPURules),
	}).Info("starting host watch")

	for {
		if _, err := w.RunCycle(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("cycle failed")
		}

		pause := util.JitteredInterval(w.Interval, w.Rand)
		log.Debugf("sleeping %v", pause.Round(time.Millisecond))

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Info("stopping host watch")
			return nil
		case <-t.C:
		}
	}
}

// RunCycle performs one fetch, classify, print and notify pass.
func (w *Watcher) RunCycle(ctx context.Context) (*core.Result, error) {
	m := w.metrics()
	logger := log.WithField("cycle", uuid.NewString())

	snap, err := w.Provider.Fetch(ctx, w.Query)
	if err != nil {
		m.Cycles.WithLabelValues(resultFetchError).Inc()
		return nil, err
	}
	m.Cycles.WithLabelValues(resultOK).Inc()
	m.LastSuccess.SetToCurrentTime()

	if !snap.Success {
		logger.Warn("inventory reported success=false, treating as empty")
	}
	for _, rej := range snap.Rejected {
		logger.WithError(rej).Warn("skipping malformed host record")
	}

	res := core.Classify(snap, &w.Criteria, w.Seen)
	m.SeenHosts.Set(float64(w.Seen.Len()))
	m.NewHosts.WithLabelValues(core.CategoryCPU.String()).Add(float64(len(res.NewCPU)))
	m.NewHosts.WithLabelValues(core.CategoryGPU.String()).Add(float64(len(res.NewGPU)))

	logger.WithFields(log.Fields{
		"hosts":       len(snap.Hosts),
		"cpu-matches": len(res.CurrentCPU),
		"gpu-matches": len(res.CurrentGPU),
		"new-cpu":     len(res.NewCPU),
		"new-gpu":     len(res.NewGPU),
	}).Info("cycle complete")
	for i := range res.NewCPU {
		logger.WithField("id", res.NewCPU[i].ID).Info("new CPU host")
	}
	for i := range res.NewGPU {
		logger.WithField("id", res.NewGPU[i].ID).Info("new GPU host")
	}

	rows := render.BuildRows(&res)
	if w.Printer != nil {
		if err := w.Printer(&res, rows); err != nil {
			logger.WithError(err).Warn("unable to print table")
		}
	}

	if res.HasNew() {
		w.notify(ctx, logger, &res, rows)
	}
	return &res, nil
}

func (w *Watcher) notify(ctx context.Context, logger *log.Entry, res *core.Result, rows []render.Row) {
	if w.Notifier == nil {
		return
	}
	w.report(logger, "text", w.Notifier.SendText(ctx, render.NewNodesSummary(res, &w.Criteria)))

	if !w.SendPhoto || len(rows) == 0 {
		return
	}
	img, err := render.Image(rows)
	if err != nil {
		logger.WithError(err).Warn("unable to draw table image")
		return
	}
	w.report(logger, "photo", w.Notifier.SendPhoto(ctx, img, render.RowsCaption(rows, res)))
}

// report logs failed deliveries. Hosts stay seen whatever the outcome.
func (w *Watcher) report(logger *log.Entry, kind string, ds []notify.Delivery) {
	for _, d := range notify.Failed(ds) {
		w.metrics().NotifyFailures.Inc()
		logger.WithFields(log.Fields{
			"destination": d.Destination,
			"kind":        kind,
		}).WithError(d.Err).Error("notification failed")
	}
}

func (w *Watcher) metrics() *Metrics {
	if w.Metrics == nil {
		w.Metrics = NewMetrics(nil)
	}
	return w.Metrics
}
