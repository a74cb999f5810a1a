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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/comcast/cmsis-crawler/buildinfo"
	"github.com/comcast/cmsis-crawler/config"
	"github.com/comcast/cmsis-crawler/crawler"
	"github.com/comcast/cmsis-crawler/credentials"
	"github.com/comcast/cmsis-crawler/fetch"
	"github.com/comcast/cmsis-crawler/logger"
	"github.com/comcast/cmsis-crawler/metrics"
	"github.com/comcast/cmsis-crawler/middleware/logging"
	"github.com/comcast/cmsis-crawler/middleware/muxprom"

	"github.com/prometheus/client_golang/prometheus"
)

const app = "cmsis-crawler"

var (
	a                 = kingpin.New(app, "CMSIS pack-index crawler with all the bells and whistles")
	sourcesFile       = a.Flag("sources", "path to a yaml file listing named VIDX roots").Default("").Envar("CMSIS_SOURCES").String()
	fetchTimeout      = a.Flag("fetch.timeout", "single HTTP round trip timeout").Default("30s").Envar("FETCH_TIMEOUT").Duration()
	maxRedirects      = a.Flag("fetch.max-redirects", "maximum redirect chain length to follow").Default("10").Envar("FETCH_MAX_REDIRECTS").Int()
	pidxConcurrency   = a.Flag("crawl.pidx-concurrency", "worker pool size for PIDX fan-out").Default("16").Envar("CRAWL_PIDX_CONCURRENCY").Int()
	logMethod         = a.Flag("log.method", "alternative method for logging in addition to stdout").PlaceHolder("[file|vector]").Default("").Envar("LOG_METHOD").String()
	logFilePath       = a.Flag("log.file-path", "directory path where log files are written if log-method is file").Default("/var/log/cmsis-crawler").Envar("LOG_FILE_PATH").String()
	logFileMaxSize    = a.Flag("log.file-max-size", "max file size in megabytes if log-method is file").Default("256").Envar("LOG_FILE_MAX_SIZE").Int()
	logFileMaxBackups = a.Flag("log.file-max-backups", "max file backups before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_BACKUPS").Int()
	logFileMaxAge     = a.Flag("log.file-max-age", "max file age in days before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_AGE").Int()
	vectorEndpoint    = a.Flag("vector.endpoint", "vector endpoint to send structured json logs to").Default("http://0.0.0.0:4444").Envar("VECTOR_ENDPOINT").String()
	exporterPort      = a.Flag("port", "exporter port").Default("9534").Envar("EXPORTER_PORT").String()
	vaultAddr         = a.Flag("vault.addr", "Vault instance address to get vendor credentials from").Default("https://vault.com").Envar("VAULT_ADDRESS").String()
	vaultRoleID       = a.Flag("vault.role-id", "Vault Role ID for AppRole").Default("").Envar("VAULT_ROLE_ID").String()
	vaultSecretID     = a.Flag("vault.secret-id", "Vault Secret ID for AppRole").Default("").Envar("VAULT_SECRET_ID").String()

	log *zap.Logger

	credSource *credentials.Source
)

// sourceList is the shape of the --sources yaml file: named VIDX roots,
// each optionally tied to a Vault credential profile for vendors that
// gate their pack indices.
type sourceList struct {
	Sources []struct {
		Name             string `yaml:"name"`
		URL              string `yaml:"url"`
		CredentialProfile string `yaml:"credentialProfile,omitempty"`
	} `yaml:"sources"`
}

func loadSources(path string) (sourceList, error) {
	var sl sourceList
	if path == "" {
		return sl, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return sl, fmt.Errorf("reading sources file: %w", err)
	}
	if err := yaml.Unmarshal(b, &sl); err != nil {
		return sl, fmt.Errorf("parsing sources file: %w", err)
	}
	return sl, nil
}

// crawlHandler triggers a crawl of every configured VIDX root and
// streams the resulting PDSC references as newline-delimited JSON.
func crawlHandler(c *crawler.Crawler, urls []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)

		for res := range c.DownloadVidxList(r.Context(), urls) {
			if res.Err != nil {
				log.Error("vidx download failed", zap.String("url", res.URL), zap.Error(res.Err), zap.Any("trace_id", r.Context().Value("traceID")))
				continue
			}
			for ref := range c.FlatmapPdscs(r.Context(), res.Vidx) {
				if err := enc.Encode(ref); err != nil {
					log.Error("encoding pdsc ref failed", zap.Error(err), zap.Any("trace_id", r.Context().Value("traceID")))
					return
				}
			}
		}
	}
}

func main() {
	ctx := context.Background()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	a.HelpFlag.Short('h')

	_, err = a.Parse(os.Args[1:])
	if err != nil {
		panic(fmt.Errorf("error parsing argument flags - %s", err.Error()))
	}

	if *logMethod == "file" {
		fd, err := os.Stat(*logFilePath)
		if os.IsNotExist(err) {
			panic(err)
		}
		if !fd.IsDir() {
			panic(fmt.Errorf("%s is not a directory", *logFilePath))
		}
	}

	logger.Initialize(app, hostname, logger.LoggerConfig{
		LogMethod: *logMethod,
		LogFile: logger.LogFile{
			Path:       *logFilePath,
			MaxSize:    *logFileMaxSize,
			MaxBackups: *logFileMaxBackups,
			MaxAge:     *logFileMaxAge,
		},
		VectorEndpoint: *vectorEndpoint,
	})
	log = zap.L()
	defer logger.Flush()

	config.NewConfig(&config.Config{
		FetchTimeout:    *fetchTimeout,
		MaxRedirects:    *maxRedirects,
		PidxConcurrency: *pidxConcurrency,
		UserAgent:       config.DefaultUserAgent,
	})

	if *vaultRoleID != "" && *vaultSecretID != "" {
		src, err := credentials.NewSource(ctx, credentials.Parameters{
			Address:         *vaultAddr,
			ApproleRoleID:   *vaultRoleID,
			ApproleSecretID: *vaultSecretID,
		})
		if err != nil {
			log.Error("failed initializing vault credential source", zap.Error(err))
		} else {
			credSource = src
		}
	}

	sl, err := loadSources(*sourcesFile)
	if err != nil {
		log.Error("failed loading sources file", zap.Error(err))
	}
	urls := make([]string, 0, len(sl.Sources))
	for _, s := range sl.Sources {
		urls = append(urls, s.URL)
		if s.CredentialProfile == "" || credSource == nil {
			continue
		}
		// fetch each gated vendor's token once at startup so it sits in
		// credSource's cache. The crawl itself does not attach tokens
		// to its requests.
		if _, err := credSource.Token(ctx, credentials.Profile{Name: s.CredentialProfile}); err != nil {
			log.Error("failed priming vendor credential", zap.String("profile", s.CredentialProfile), zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	crawlMetrics := metrics.New(reg)

	hclogger := hclog.New(&hclog.LoggerOptions{
		Name:   "fetch",
		Level:  hclog.Warn,
		Output: zap.NewStdLog(log).Writer(),
	})
	client := fetch.NewClient(hclogger)
	c := crawler.New(client, log.Sugar()).WithMetrics(crawlMetrics)

	router := mux.NewRouter()

	instrumentation := muxprom.NewDefaultInstrumentation()
	router.Use(instrumentation.Middleware)

	router.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(buildinfo.Info)
	}).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	router.HandleFunc("/crawl", crawlHandler(c, urls)).Methods("GET")

	router.HandleFunc("/verbosity", logger.Verbosity).Methods("GET")
	router.HandleFunc("/verbosity", logger.SetVerbosity).Methods("PUT")

	srv := &http.Server{
		Addr:    ":" + *exporterPort,
		Handler: logging.LoggingHandler(router),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("starting "+app+" service failed", zap.Error(err))
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-signals
		log.Info(s.String() + " signal caught, stopping app")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("started " + app + " service")

	wg.Wait()
}
