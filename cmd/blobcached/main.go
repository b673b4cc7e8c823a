// Command blobcached runs a standalone blobcache RPC server: an
// in-process cache.Engine behind rpc/server, listening on a tcp:// or
// shm:// URI (spec.md §9, §6.1).
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/tidekeep/blobcache/cache"
	"github.com/tidekeep/blobcache/cache/stats"
	"github.com/tidekeep/blobcache/rpc/server"
)

func main() {
	var (
		uri           = pflag.StringP("uri", "u", "tcp://127.0.0.1:9771", "transport URI to listen on (tcp://host:port or shm://name)")
		sizeMB        = pflag.IntP("size-mb", "s", cache.MinSizeMB, "cache capacity in megabytes")
		workerThreads = pflag.Int64("worker-threads", 8, "bounded worker pool size")
		maxClients    = pflag.Int64("max-clients", 64, "maximum concurrent client connections")
		withStats     = pflag.Bool("stats", true, "collect and expose prometheus metrics")
		metricsAddr   = pflag.String("metrics-addr", "127.0.0.1:9772", "address to serve /metrics on; ignored if --stats=false")
	)
	pflag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var opts []cache.Option
	if *withStats {
		reg := prometheus.NewRegistry()
		opts = append(opts, cache.WithStats(stats.New(reg, "blobcached")))
		go serveMetrics(*metricsAddr, reg, log)
	}
	eng := cache.New(*sizeMB, opts...)
	defer eng.Close()

	srv := server.New(server.Config{
		URI:           *uri,
		WorkerThreads: *workerThreads,
		MaxClients:    *maxClients,
		Cache:         eng,
		Logger:        log,
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		srv.Stop()
	}()

	if err := srv.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "blobcached:", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", "err", err)
	}
}
