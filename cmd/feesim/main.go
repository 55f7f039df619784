// Command feesim replays a workload through per-address congestion fee markets
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"feeEmulator/params"
	"feeEmulator/supervisor"
)

var (
	configFile  = flag.StringP("config", "c", "", "JSON parameter file (paramsConfig.json layout)")
	dataset     = flag.StringP("dataset", "d", params.DatasetFile, "Ethereum transaction CSV to replay")
	scenario    = flag.StringP("scenario", "s", params.Scenario, "synthetic scenario (stable, hot, mixed, empty); overrides --dataset")
	total       = flag.IntP("total", "n", params.TotalDataSize, "number of work units to inject")
	injectSpeed = flag.Int("inject-speed", params.InjectSpeed, "work units injected per second, 0 for unpaced")
	batch       = flag.IntP("batch", "b", params.TxBatchSize, "work units per injection batch")
	seed        = flag.Int64("seed", params.Seed, "seed of the synthetic generator")
	lanes       = flag.IntP("lanes", "l", params.LaneNum, "number of execution lanes")
	logLevel    = flag.String("log-level", params.LogLevel, "trace, debug, info, warn, error or crit")
	metricsAddr = flag.String("metrics-addr", params.MetricsAddr, "Prometheus listen address, empty to disable")
	outDir      = flag.StringP("out", "o", params.ExpDataRootDir, "root directory of results and the receipt database")
)

// applyFlags copies explicitly set flags over the parameter file values
func applyFlags() {
	set := func(name string, apply func()) {
		if flag.CommandLine.Changed(name) {
			apply()
		}
	}
	set("dataset", func() { params.DatasetFile = *dataset })
	set("scenario", func() { params.Scenario = *scenario })
	set("total", func() { params.TotalDataSize = *total })
	set("inject-speed", func() { params.InjectSpeed = *injectSpeed })
	set("batch", func() { params.TxBatchSize = *batch })
	set("seed", func() { params.Seed = *seed })
	set("lanes", func() { params.LaneNum = *lanes })
	set("log-level", func() { params.LogLevel = *logLevel })
	set("metrics-addr", func() { params.MetricsAddr = *metricsAddr })
	set("out", func() { params.SetExpDataRootDir(*outDir) })
}

func setupLogging(level string) error {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "addr", addr, "err", err)
		}
	}()
	log.Info("Serving metrics", "addr", addr)
	return srv
}

func run() error {
	flag.Parse()
	if *configFile != "" {
		if err := params.ReadConfigFile(*configFile); err != nil {
			return err
		}
	}
	applyFlags()
	if err := setupLogging(params.LogLevel); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sup, err := supervisor.NewSupervisor(reg)
	if err != nil {
		return err
	}
	defer sup.Close()

	if params.MetricsAddr != "" {
		srv := serveMetrics(params.MetricsAddr, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = sup.Run(ctx)
	log.Info("Run finished", "injected", sup.Injected(), "elapsed", time.Since(start), "results", params.DataWrite_path)
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "feesim:", err)
		os.Exit(1)
	}
}
