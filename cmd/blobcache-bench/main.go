// Command blobcache-bench drives a synthetic store/load workload
// against either an in-process cache.Engine or a blobcached instance
// over RPC, reporting throughput and hit rate. Flag handling uses
// spf13/pflag rather than the stdlib flag package.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/tidekeep/blobcache/blob"
	"github.com/tidekeep/blobcache/cache"
	"github.com/tidekeep/blobcache/facade"
	"github.com/tidekeep/blobcache/rpc/client"
)

func main() {
	var (
		sizeMB     = pflag.IntP("size-mb", "s", cache.MinSizeMB, "in-process cache capacity (ignored with --rpc)")
		entries    = pflag.IntP("entries", "n", 10_000, "distinct key space size")
		valueBytes = pflag.IntP("value-bytes", "b", 512, "payload size per store")
		readRatio  = pflag.Float64P("read-ratio", "r", 0.9, "fraction of operations that are loads rather than stores")
		ops        = pflag.IntP("ops", "o", 200_000, "total number of operations to run")
		rpcURI     = pflag.String("rpc", "", "dial this transport URI instead of an in-process engine")
		seed       = pflag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
	)
	pflag.Parse()

	runID := uuid.New().String()

	var c facade.Cache
	if *rpcURI != "" {
		stub, err := client.Dial(*rpcURI)
		if err != nil {
			fmt.Fprintln(os.Stderr, "blobcache-bench: dial:", err)
			os.Exit(1)
		}
		defer stub.Close()
		c = stub
	} else {
		c = cache.New(*sizeMB)
	}

	rng := rand.New(rand.NewSource(*seed))
	payload := make([]byte, *valueBytes)
	rng.Read(payload)

	var hits, misses, stores int
	start := time.Now()
	for i := 0; i < *ops; i++ {
		key := uint64(rng.Intn(*entries))
		if rng.Float64() < *readRatio {
			out := blob.New(blob.KindOpaque)
			if c.Load(key, 0, out) {
				hits++
			} else {
				misses++
			}
		} else {
			c.Store(key, 0, blob.Wrap(blob.KindOpaque, payload))
			stores++
		}
	}
	elapsed := time.Since(start)

	loads := hits + misses
	var hitRate float64
	if loads > 0 {
		hitRate = float64(hits) / float64(loads)
	}
	fmt.Printf("run=%s ops=%d stores=%d loads=%d hit_rate=%.3f elapsed=%s ops/sec=%.0f\n",
		runID, *ops, stores, loads, hitRate, elapsed, float64(*ops)/elapsed.Seconds())
}
