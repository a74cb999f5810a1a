/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics instruments the crawler with Prometheus counters
// without changing its return contract: every observation call wraps
// an operation that already happened and reports its outcome.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResultLabel is the outcome a fetch or parse observation reports.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// Metrics is the instrumentation bundle for one crawl run. Register
// it against a prometheus.Registerer before wiring it into a crawler.
type Metrics struct {
	VidxFetchTotal *prometheus.CounterVec
	PidxFetchTotal *prometheus.CounterVec
}

// New builds and registers the crawl metrics against reg. A caller
// that wants every series on one private registry (so /metrics only
// ever exposes this binary's own counters) passes its own
// prometheus.NewRegistry() rather than prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VidxFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmsis",
			Name:      "vidx_fetch_total",
			Help:      "Total VIDX fetch attempts by result.",
		}, []string{"result"}),
		PidxFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmsis",
			Name:      "pidx_fetch_total",
			Help:      "Total PIDX fetch attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.VidxFetchTotal, m.PidxFetchTotal)
	return m
}

func (m *Metrics) ObserveVidxFetch(err error) {
	m.VidxFetchTotal.WithLabelValues(string(resultOf(err))).Inc()
}

func (m *Metrics) ObservePidxFetch(err error) {
	m.PidxFetchTotal.WithLabelValues(string(resultOf(err))).Inc()
}

func resultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
