/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
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

package config

import (
	"sync"
	"time"
)

// Config holds process-wide crawler/parser settings. Fields mirror the
// flags cmd/cmsis-crawler exposes.
type Config struct {
	// FetchTimeout bounds a single HTTP round trip (not the whole
	// redirect chain).
	FetchTimeout time.Duration
	// MaxRedirects bounds the redirect chain fetch.Client will follow.
	MaxRedirects int
	// PidxConcurrency sizes the worker pool the crawler uses to fan
	// out PIDX fetches.
	PidxConcurrency int
	// UserAgent is sent on every outbound request.
	UserAgent string
}

type SSLVerifyConfig struct {
	SSLVerify bool
}

const (
	DefaultMaxRedirects    = 10
	DefaultPidxConcurrency = 16
	DefaultFetchTimeout    = 30 * time.Second
	DefaultUserAgent       = "cmsis-crawler/1.0"
)

var (
	config        *Config
	sslconfig     *SSLVerifyConfig
	once          sync.Once
	sslverifyonce sync.Once
)

func NewConfig(c *Config) {
	once.Do(func() {
		if c != nil {
			config = c
		} else {
			config = &Config{
				FetchTimeout:    DefaultFetchTimeout,
				MaxRedirects:    DefaultMaxRedirects,
				PidxConcurrency: DefaultPidxConcurrency,
				UserAgent:       DefaultUserAgent,
			}
		}
	})
}

func NewSSLVerifyConfig(c *SSLVerifyConfig) {
	sslverifyonce.Do(func() {
		if c != nil {
			sslconfig = c
		} else {
			sslconfig = &SSLVerifyConfig{}
		}
	})
}

func GetConfig() *Config {
	if config != nil {
		return config
	}

	NewConfig(nil)
	return config
}

func GetSSLVerifyConfig() *SSLVerifyConfig {
	if sslconfig != nil {
		return sslconfig
	}

	NewSSLVerifyConfig(nil)
	return sslconfig
}
