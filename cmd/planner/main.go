// Command planner loads airports, flights and orders, assigns order units to
// flight legs with adaptive large neighbourhood search, then stores and
// publishes the resulting report. With -serve it keeps the HTTP API up so
// run progress can be streamed and reports fetched.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"morapack/internal/api"
	"morapack/internal/buildinfo"
	"morapack/internal/config"
	"morapack/internal/integrations"
	"morapack/internal/integrations/textfile"
	"morapack/internal/logging"
	"morapack/internal/metrics"
	"morapack/internal/opt"
	"morapack/internal/store"
	"morapack/internal/webhooks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "planner:", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data", "", "directory with airport, flight and order files (overrides DATA_DIR)")
	dataset := flag.String("dataset", "", "dataset name used for reports and metrics")
	importData := flag.Bool("import", false, "copy the file dataset into Postgres before solving")
	out := flag.String("out", "", "also write the report as JSON to this file")
	serve := flag.Bool("serve", false, "keep serving the HTTP API after the run")
	version := flag.Bool("version", false, "print build info and exit")
	flag.Parse()

	if *version {
		return json.NewEncoder(os.Stdout).Encode(buildinfo.Info())
	}
	if *dataDir != "" {
		if err := os.Setenv("DATA_DIR", *dataDir); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if c, ok := st.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	name := *dataset
	if name == "" {
		name = cfg.Data.Dataset
	}
	if name == "" && cfg.Data.Dir != "" {
		name = filepath.Base(cfg.Data.Dir)
	}

	ds, err := loadDataset(ctx, cfg, st, *importData, log)
	if err != nil {
		return err
	}
	log.Info("dataset loaded",
		zap.String("source", ds.Source),
		zap.String("dataset", name),
		zap.Int("airports", len(ds.Airports)),
		zap.Int("flights", len(ds.Flights)),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("units", ds.Units()),
	)

	network, err := opt.NewNetwork(ds.Airports, ds.Flights, ds.Orders, cfg.Optimizer)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	broker, err := openBroker(ctx, cfg, log)
	if err != nil {
		return err
	}
	server := api.NewServer(st, broker, log)
	var httpSrv *http.Server
	if *serve {
		httpSrv = listen(server, cfg, log)
	}

	runID := uuid.NewString()
	feed := api.NewProgressFeed(broker, runID, time.Second)
	seeds := cfg.Seeds
	if len(seeds) == 0 {
		seeds = []int64{time.Now().UnixNano()}
	}
	log.Info("solving", zap.String("run_id", runID), zap.Int64s("seeds", seeds))

	res, err := opt.SolveParallel(ctx, network, seeds, log, feed.Observe)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	rep, err := opt.NewReport(runID, name, res)
	if err != nil {
		return err
	}
	opt.RecordMetrics(name, runID, res.Metrics)

	// The interrupt that ended the search must not abort persisting its result.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := st.SaveReport(saveCtx, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	feed.Complete(rep)
	if *out != "" {
		if err := writeReport(*out, rep); err != nil {
			return err
		}
	}
	if cfg.Webhook.URL != "" {
		pub := webhooks.NewPublisher(webhooks.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout, log))
		if err := pub.RunCompleted(saveCtx, rep); err != nil {
			log.Error("report webhook", zap.String("run_id", runID), zap.Error(err))
		}
	}

	log.Info("run finished",
		zap.String("run_id", runID),
		zap.Int64("seed", res.Metrics.Seed),
		zap.String("termination", res.Metrics.Termination),
		zap.Int("iterations", res.Metrics.Iterations),
		zap.Int("restarts", res.Metrics.Restarts),
		zap.Int("assigned", rep.Assigned),
		zap.Int("full_orders", rep.FullOrders),
		zap.Int("unassigned", rep.Unassigned),
		zap.Float64("weight", rep.Breakdown.Weight),
		zap.Float64("on_time_rate", rep.Breakdown.OnTimeRate),
		zap.Duration("duration", res.Metrics.Duration),
	)

	if httpSrv == nil {
		return nil
	}
	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	return httpSrv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.Data.DatabaseURL == "" {
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.Data.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

// loadDataset reads the file dataset when DATA_DIR is set and the store
// otherwise. File data is copied into the store when it is in memory or when
// importing was asked for.
func loadDataset(ctx context.Context, cfg *config.Config, st store.Store, importData bool, log *zap.Logger) (*integrations.Dataset, error) {
	window := integrations.Window{From: cfg.Data.WindowFrom, To: cfg.Data.WindowTo}
	if cfg.Data.Dir == "" {
		return integrations.Load(ctx, st, window)
	}

	src := textfile.New(cfg.Data.Dir, log)
	ds, err := integrations.Load(ctx, src, window)
	if err != nil {
		return nil, err
	}
	stats := src.Stats()
	if stats.Skipped > 0 {
		log.Warn("skipped malformed records", zap.Int("skipped", stats.Skipped), zap.Strings("examples", stats.Problems))
	}
	if _, inMemory := st.(*store.Memory); inMemory || importData {
		if err := st.ImportDataset(ctx, ds); err != nil {
			return nil, fmt.Errorf("import dataset: %w", err)
		}
	}
	return ds, nil
}

func openBroker(ctx context.Context, cfg *config.Config, log *zap.Logger) (api.EventBroker, error) {
	if cfg.Broker.RedisURL == "" {
		return api.NewBroker(), nil
	}
	rb, err := api.NewRedisBroker(ctx, cfg.Broker.RedisURL, log)
	if err != nil {
		return nil, err
	}
	return rb, nil
}

func listen(s *api.Server, cfg *config.Config, log *zap.Logger) *http.Server {
	addr := ":8080"
	if cfg.Server.Port != "" {
		addr = ":" + cfg.Server.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("API listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	}()
	return srv
}

func writeReport(path string, rep *opt.Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
