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

// Package crawler fans out over the CMSIS vendor-index ecosystem:
// given one or more VIDX URLs, it concurrently fetches and parses
// each one, and flattens a VIDX's own PIDX references into the PDSC
// references they in turn advertise.
package crawler

import (
	"context"

	"github.com/nrednav/cuid2"
	"go.uber.org/zap"

	"github.com/comcast/cmsis-crawler/config"
	"github.com/comcast/cmsis-crawler/fetch"
	"github.com/comcast/cmsis-crawler/metrics"
	"github.com/comcast/cmsis-crawler/pool"
	"github.com/comcast/cmsis-crawler/vidx"
)

// VidxResult is one element of the stream DownloadVidxList returns:
// exactly one per input URL, in completion order.
type VidxResult struct {
	URL  string
	Vidx *vidx.Vidx
	Err  error
}

// Crawler is the index-crawler capability: an HTTP fetch client plus
// a logger, shared immutably across every concurrent fetch task.
type Crawler struct {
	client      *fetch.Client
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
	concurrency int
}

// New builds a Crawler. A nil logger discards log output.
func New(client *fetch.Client, logger *zap.SugaredLogger) *Crawler {
	conc := config.GetConfig().PidxConcurrency
	if conc < 1 {
		conc = config.DefaultPidxConcurrency
	}
	return &Crawler{client: client, logger: logger, concurrency: conc}
}

// WithMetrics attaches m so every subsequent fetch this Crawler
// performs is observed on it. Optional: a Crawler with no metrics
// attached behaves exactly as before.
func (c *Crawler) WithMetrics(m *metrics.Metrics) *Crawler {
	c.metrics = m
	return c
}

func (c *Crawler) warnw(msg string, kv ...interface{}) {
	if c.logger != nil {
		c.logger.Warnw(msg, kv...)
	}
}

// DownloadVidxList fetches and parses urls concurrently. Every URL
// produces exactly one VidxResult; a transport or parse failure for
// one URL is reported on its own result and never aborts the others.
func (c *Crawler) DownloadVidxList(ctx context.Context, urls []string) <-chan VidxResult {
	tasks := make([]*pool.Task[VidxResult], 0, len(urls))
	for _, u := range urls {
		u := u
		tasks = append(tasks, pool.NewTask(func() (VidxResult, error) {
			traceID := cuid2.Generate()
			body, err := c.client.Fetch(ctx, u)
			if c.metrics != nil {
				c.metrics.ObserveVidxFetch(err)
			}
			if err != nil {
				c.warnw("vidx fetch failed", "trace_id", traceID, "url", u, "error", err)
				return VidxResult{URL: u, Err: err}, nil
			}
			v, err := vidx.Parse(body, u)
			if err != nil {
				c.warnw("vidx parse failed", "trace_id", traceID, "url", u, "error", err)
				return VidxResult{URL: u, Err: err}, nil
			}
			return VidxResult{URL: u, Vidx: v}, nil
		}))
	}

	p := pool.NewPool(tasks, c.concurrency)
	results := p.Stream()
	out := make(chan VidxResult)
	go func() {
		defer close(out)
		for r := range results {
			select {
			case out <- r:
			case <-ctx.Done():
				// drain so the pool's workers can finish; their fetches
				// see the cancelled ctx and fail fast.
				for range results {
				}
				return
			}
		}
	}()
	return out
}

// FlatmapPdscs emits every PdscRef reachable from rootVidx: the
// entries it carries directly, in document order, followed by the
// entries of every PIDX it references, in completion order. A PIDX
// that fails to fetch or parse is logged as a warning and silently
// dropped — it must not poison the stream.
func (c *Crawler) FlatmapPdscs(ctx context.Context, rootVidx *vidx.Vidx) <-chan vidx.PdscRef {
	out := make(chan vidx.PdscRef)

	go func() {
		defer close(out)

		for _, ref := range rootVidx.PdscIndex.Pdsc {
			select {
			case out <- ref:
			case <-ctx.Done():
				return
			}
		}

		pidxURLs := rootVidx.VendorIndex.Pidx
		if len(pidxURLs) == 0 {
			return
		}

		tasks := make([]*pool.Task[[]vidx.PdscRef], 0, len(pidxURLs))
		for _, p := range pidxURLs {
			p := p
			tasks = append(tasks, pool.NewTask(func() ([]vidx.PdscRef, error) {
				traceID := cuid2.Generate()
				uri := p.URI()
				body, err := c.client.Fetch(ctx, uri)
				if c.metrics != nil {
					c.metrics.ObservePidxFetch(err)
				}
				if err != nil {
					c.warnw("pidx fetch failed, dropping", "trace_id", traceID, "url", uri, "error", err)
					return nil, nil
				}
				v, err := vidx.Parse(body, uri)
				if err != nil {
					c.warnw("pidx parse failed, dropping", "trace_id", traceID, "url", uri, "error", err)
					return nil, nil
				}
				return v.PdscIndex.Pdsc, nil
			}))
		}

		p := pool.NewPool(tasks, c.concurrency)
		results := p.Stream()
		for refs := range results {
			for _, ref := range refs {
				select {
				case out <- ref:
				case <-ctx.Done():
					for range results {
					}
					return
				}
			}
		}
	}()

	return out
}
