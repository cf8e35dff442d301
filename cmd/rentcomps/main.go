// cmd/rentcomps/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"rentcomps/internal/common/cache"
	"rentcomps/internal/common/config"
	commonhttp "rentcomps/internal/common/http"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/common/observability"
	"rentcomps/internal/search"
	"rentcomps/internal/session"
)

type options struct {
	configPath  string
	baseURL     string
	cacheKind   string
	logLevel    string
	metricsAddr string
	noMetrics   bool
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("rentcomps", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a config file (default: configs/config.yaml lookup)")
	fs.StringVar(&opts.baseURL, "base-url", "", "Listing search API base URL")
	fs.StringVar(&opts.cacheKind, "cache", "", "Result cache backend: none, local, redis, memcached")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Address for /metrics and /health")
	fs.BoolVar(&opts.noMetrics, "no-metrics", false, "Disable the metrics listener")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.baseURL != "" {
		cfg.Search.BaseURL = opts.baseURL
	}
	if opts.cacheKind != "" {
		cfg.Cache.Backend = opts.cacheKind
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Address = opts.metricsAddr
	}
	if opts.noMetrics {
		cfg.Metrics.Enabled = false
	}
	return cfg, nil
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// openCache builds the configured result cache. An unreachable remote cache
// is logged and dropped; searches still work without it.
func openCache(ctx context.Context, cfg config.CacheConfig, zapLog *zap.Logger, log logger.Logger) cache.Store {
	store, err := cache.New(cfg, log)
	if err != nil {
		zapLog.Warn("cache disabled", zap.Error(err))
		return nil
	}
	if store == nil {
		return nil
	}

	if p, ok := store.(cache.Pinger); ok {
		err = retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return p.Ping(pingCtx)
		}, 3, 500*time.Millisecond, zapLog, "Cache connection")
		if err != nil {
			zapLog.Warn("cache unreachable, continuing without it", zap.String("backend", cfg.Backend), zap.Error(err))
			_ = store.Close()
			return nil
		}
	}

	zapLog.Info("Result cache ready", zap.String("backend", cfg.Backend))
	return store
}

func startMetricsServer(addr string, zapLog *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func run(args []string, stdin *os.File, out, errOut io.Writer) int {
	opts, err := parseFlags(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jaegerEndpoint := ""
	if cfg.Tracing.Enabled {
		jaegerEndpoint = cfg.Tracing.JaegerEndpoint
	}
	obs := observability.New(observability.Options{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: jaegerEndpoint,
		Logger:         log,
	})
	defer obs.Shutdown()

	store := openCache(ctx, cfg.Cache, zapLog, log)
	if store != nil {
		defer store.Close()
	}

	client := commonhttp.NewClient(config.GetDuration(cfg.Search.Timeout))
	remote, err := search.NewRemoteFetcher(client, cfg.Search.BaseURL, obs, log)
	if err != nil {
		zapLog.Error("search client setup failed", zap.Error(err))
		return 1
	}

	var fetcher search.Fetcher = remote
	if store != nil {
		fetcher = search.NewCachingFetcher(remote, store, config.GetDuration(cfg.Cache.TTL), log)
	}

	if cfg.Metrics.Enabled {
		srv := startMetricsServer(cfg.Metrics.Address, zapLog)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sess := session.New(fetcher, obs, log)
	defer sess.Close()

	zapLog.Info("rentcomps ready",
		zap.String("endpoint", remote.Endpoint()),
		zap.String("sessionId", sess.ID),
	)

	sh := newShell(sess, out)
	if term.IsTerminal(int(stdin.Fd())) {
		err = sh.runInteractive(ctx)
	} else {
		err = sh.runScript(ctx, stdin)
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
