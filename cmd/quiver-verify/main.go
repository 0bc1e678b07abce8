// quiver-verify sweeps the verification harness over every metric, both
// element precisions and a configurable set of matrix shapes, checking the
// optimized engine against the reference kernels. It exits nonzero when
// any case fails.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/23skdu/quiver/engine"
	"github.com/23skdu/quiver/internal/logging"
	"github.com/23skdu/quiver/internal/membuf"
	"github.com/23skdu/quiver/pairwise"
	"github.com/23skdu/quiver/verify"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("QUIVER", &cfg); err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	shapesFlag := flag.String("shapes", "", "Comma-separated MxNxK triples (overrides QUIVER_SHAPES)")
	seedFlag := flag.Int64("seed", 0, "Input generation seed (overrides QUIVER_SEED when nonzero)")
	flag.Parse()

	if *shapesFlag != "" {
		cfg.Shapes = *shapesFlag
	}
	if *seedFlag != 0 {
		cfg.Seed = *seedFlag
	}

	if err := ValidateConfig(&cfg); err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("starting metrics server", zap.String("address", cfg.MetricsAddr))
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	shapes, err := ParseShapes(cfg.Shapes)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()
	alloc := membuf.NewTrackingAllocator(nil)

	passed, failed := 0, 0
	for _, shape := range shapes {
		for _, metric := range pairwise.Metrics() {
			if runCase[float32](ctx, logger, alloc, metric, shape, float32(cfg.Tolerance32), cfg.Seed, float32(cfg.Threshold)) {
				passed++
			} else {
				failed++
			}
			if runCase[float64](ctx, logger, alloc, metric, shape, cfg.Tolerance64, cfg.Seed, cfg.Threshold) {
				passed++
			} else {
				failed++
			}
		}
	}

	logger.Info("sweep complete",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int64("bytes_allocated", alloc.BytesAllocated.Load()),
		zap.Int64("bytes_freed", alloc.BytesFreed.Load()),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func runCase[T pairwise.Float](ctx context.Context, logger *zap.Logger, alloc *membuf.TrackingAllocator, metric pairwise.Metric, shape Shape, tolerance T, seed int64, threshold T) bool {
	h, err := verify.NewHarness(verify.Params[T]{
		Metric:    metric,
		M:         shape.M,
		N:         shape.N,
		K:         shape.K,
		Tolerance: tolerance,
		Seed:      seed,
		Threshold: threshold,
	}, engine.New[T](logger), alloc, logger)
	if err != nil {
		logger.Error("harness construction failed", zap.Error(err))
		return false
	}

	fields := []zap.Field{
		zap.String("metric", metric.String()),
		zap.Int("m", shape.M),
		zap.Int("n", shape.N),
		zap.Int("k", shape.K),
		zap.Float64("tolerance", float64(tolerance)),
	}
	if err := h.Run(ctx); err != nil {
		logger.Error("case failed", append(fields, zap.Error(err))...)
		return false
	}
	logger.Info("case passed", fields...)
	return true
}
