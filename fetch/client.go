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

// Package fetch implements the HTTP fetch-with-redirect capability the
// index crawler is built on: given a client and a URI, follow a bounded
// chain of redirects and materialize the final response body in memory.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/comcast/cmsis-crawler/config"
)

// TransportError wraps a failure to complete an HTTP round trip:
// connection refused, DNS failure, TLS handshake failure, a non-2xx
// terminal status, or a redirect chain longer than MaxRedirects.
type TransportError struct {
	URI string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is the HTTP fetch capability. A zero Client is not usable; use
// NewClient.
type Client struct {
	hc           *retryablehttp.Client
	maxRedirects int
	userAgent    string
}

// NewClient builds a retryablehttp-backed Client, logging retry
// diagnostics through logger (an hclog.Logger; cmd/cmsis-crawler
// points its output at the process's zap root logger). A nil logger disables
// retryablehttp's own log lines. Per-request timeout, the redirect
// chain bound, and the outbound User-Agent come from
// config.GetConfig().
func NewClient(logger hclog.Logger) *Client {
	cfg := config.GetConfig()

	tr := &http.Transport{
		Dial: (&net.Dialer{Timeout: 5 * time.Second}).Dial,
		Proxy: http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		MaxConnsPerHost:       4,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			Renegotiation: tls.RenegotiateOnceAsClient,
		},
		TLSHandshakeTimeout: 10 * time.Second,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.CheckRetry = retryablehttp.ErrorPropagatedRetryPolicy
	retryClient.HTTPClient.Transport = tr
	retryClient.HTTPClient.Timeout = cfg.FetchTimeout
	retryClient.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		// redirects are followed explicitly by Fetch, not by the
		// underlying http.Client.
		return http.ErrUseLastResponse
	}
	if logger != nil {
		retryClient.Logger = logger
	} else {
		retryClient.Logger = hclog.NewNullLogger()
	}
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 4 * time.Second
	retryClient.RetryMax = 2

	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = config.DefaultMaxRedirects
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &Client{hc: retryClient, maxRedirects: maxRedirects, userAgent: userAgent}
}

// Fetch retrieves uri, following up to MaxRedirects redirects, and
// returns the full response body. Relative Location headers are
// resolved against the request URI, per RFC 3986.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	next := uri
	for depth := 0; depth <= c.maxRedirects; depth++ {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, &TransportError{URI: uri, Err: err}
		}
		req.Header.Set("Accept", "application/xml, text/xml, */*")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, &TransportError{URI: next, Err: err}
		}

		if isRedirect(resp.StatusCode) {
			loc := resp.Header.Get("Location")
			drain(resp)
			if loc == "" {
				return nil, &TransportError{URI: next, Err: errors.New("redirect with no Location header")}
			}
			resolved, err := resolveLocation(next, loc)
			if err != nil {
				return nil, &TransportError{URI: next, Err: err}
			}
			next = resolved
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			drain(resp)
			return nil, &TransportError{URI: next, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
		}

		body, err := io.ReadAll(resp.Body)
		drain(resp)
		if err != nil {
			return nil, &TransportError{URI: next, Err: fmt.Errorf("reading response body: %w", err)}
		}
		return body, nil
	}

	return nil, &TransportError{URI: uri, Err: fmt.Errorf("redirect chain exceeded %d hops", c.maxRedirects)}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func resolveLocation(requestURI, location string) (string, error) {
	base, err := url.Parse(requestURI)
	if err != nil {
		return "", fmt.Errorf("parsing request URI: %w", err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing Location header: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// drain is required to have a proper cleanup of the response body so
// that keep-alive connections work correctly.
func drain(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
