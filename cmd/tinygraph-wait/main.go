// Command tinygraph-wait blocks until every given endpoint accepts gRPC
// requests, for use in start-up scripts and CI. It polls CheckVersion with
// a short linear backoff and exits non-zero when the attempt budget runs
// out.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tinygraph-io/tinygraph-client/grpcutil"
	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

var (
	endpoints   = flag.String("endpoints", "127.0.0.1:9080", "comma-separated endpoints to wait for")
	maxAttempts = flag.Int("max-attempts", 60, "attempts per endpoint before giving up")
	timeout     = flag.Duration("timeout", 2*time.Second, "per-attempt request timeout")
)

func main() {
	flag.Parse()

	for _, addr := range strings.Split(*endpoints, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !waitForEndpoint(addr) {
			log.Error("[tinygraph-wait] endpoint did not become ready",
				zap.String("endpoint", addr), zap.Int("attempts", *maxAttempts))
			os.Exit(1)
		}
	}
}

func waitForEndpoint(addr string) bool {
	conn, err := grpcutil.GetClientConn(addr, grpcutil.Security{})
	if err != nil {
		log.Error("[tinygraph-wait] dial failed", zap.String("endpoint", addr), zap.Error(err))
		return false
	}
	defer conn.Close()
	dc := api.NewTinyGraphClient(conn)

	for attempt := 1; attempt <= *maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		v, err := dc.CheckVersion(ctx, &api.Check{})
		cancel()
		if err == nil {
			log.Info("[tinygraph-wait] endpoint ready",
				zap.String("endpoint", addr), zap.String("version", v.GetTag()))
			return true
		}

		// Back off 1s, 2s, 3s, then 4s between attempts.
		delay := time.Duration(attempt) * time.Second
		if delay > 4*time.Second {
			delay = 4 * time.Second
		}
		log.Warn("[tinygraph-wait] endpoint not ready yet",
			zap.String("endpoint", addr), zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(delay)
	}
	return false
}
