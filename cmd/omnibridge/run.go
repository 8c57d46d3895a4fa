/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goerajat/omnibridge-sub002/config"
	"github.com/goerajat/omnibridge-sub002/internal/clock"
	"github.com/goerajat/omnibridge-sub002/internal/engine"
	"github.com/goerajat/omnibridge-sub002/internal/metrics"
	"github.com/goerajat/omnibridge-sub002/internal/store"
	"github.com/goerajat/omnibridge-sub002/logger"
	logcfg "github.com/goerajat/omnibridge-sub002/logger/config"
)

func runServe() error {
	v, err := loadConfigViper()
	if err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("omnibridge: invalid configuration: %w", err)
	}

	lg := logger.New(context.Background())
	lg.SetLevel(cfg.LogLevel)
	if err := lg.SetOptions(&logcfg.Options{
		Stdout: &logcfg.OptionsStd{DisableStandard: false},
	}); err != nil {
		return fmt.Errorf("omnibridge: logger setup: %w", err)
	}
	logFn := func() logger.Logger { return lg }

	var st *store.Store
	if cfg.Persistence.Enabled {
		st, err = store.New(cfg.Persistence.Path, cfg.Persistence.MaxLogFileSize)
		if err != nil {
			return fmt.Errorf("omnibridge: persistence store: %w", err)
		}
	}

	mtr := metrics.NewPrometheus("omnibridge")
	registry := prometheus.NewRegistry()
	if err := registry.Register(combineCollectors(mtr)); err != nil {
		return fmt.Errorf("omnibridge: metrics registration: %w", err)
	}

	eng, err := engine.New(cfg, engine.Dependencies{
		Log:     logFn,
		Clock:   clock.System{},
		Store:   st,
		Metrics: mtr,
	})
	if err != nil {
		return fmt.Errorf("omnibridge: engine setup: %w", err)
	}

	var metricsSrv *http.Server
	if flagMetricsBind != "" {
		metricsSrv = newMetricsServer(flagMetricsBind, registry)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				lg.Error("omnibridge: metrics server exited", nil, err)
			}
		}()
	}

	if err := eng.Start(); err != nil {
		return fmt.Errorf("omnibridge: engine start: %w", err)
	}

	waitForSignal()
	lg.Info("omnibridge: shutdown signal received, draining sessions", nil)

	if err := eng.Stop(time.Duration(flagGrace)*time.Second, false); err != nil {
		lg.Error("omnibridge: engine stop returned an error", nil, err)
	}
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}
	return nil
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch
}

// combineCollectors exposes every vector *metrics.Prometheus owns as a
// single prometheus.Collector so it can be registered in one call.
func combineCollectors(p *metrics.Prometheus) prometheus.Collector {
	return multiCollector{collectors: p.Collectors()}
}

type multiCollector struct {
	collectors []prometheus.Collector
}

func (m multiCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

func (m multiCollector) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

func newMetricsServer(bind string, registry *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	return &http.Server{Addr: bind, Handler: router}
}
