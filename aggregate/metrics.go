// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package aggregate

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOk       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Metrics are the counters of one or more aggregation runs, kept on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	FilesTotal   *prometheus.CounterVec
	RowsTotal    prometheus.Counter
	FileDuration prometheus.Histogram
	BatchesTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.FilesTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "d2deval_files_total",
			Help: "Number of log files processed",
		},
		[]string{"status"}, // ok, failed, canceled
	)

	m.RowsTotal = promauto.With(m.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "d2deval_rows_total",
			Help: "Number of event rows loaded",
		},
	)

	m.FileDuration = promauto.With(m.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "d2deval_file_duration_seconds",
			Help:    "Time to load and enrich one log file in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	m.BatchesTotal = promauto.With(m.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "d2deval_batches_total",
			Help: "Number of aggregation runs",
		},
	)
	return m
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) recordFile(status string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(status).Inc()
	m.RowsTotal.Add(float64(rows))
	if status != StatusCanceled {
		m.FileDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) recordBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(fn string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(fn, m.registry), "write metrics to %s", fn)
}
