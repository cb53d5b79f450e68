package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"sync"
	"time"

	"execcore/internal/bus"
	"execcore/internal/chaos"
	"execcore/internal/core"
	"execcore/internal/execution"
	"execcore/internal/journal"
	"execcore/internal/obs"
	"execcore/internal/ops"
	"execcore/internal/risk"
	"execcore/internal/state"
	"execcore/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

type options struct {
	configPath   string
	configReload time.Duration
	duration     time.Duration
	ticksPerSec  int
	metricsAddr  string
	snapshotOut  string
	chaos        chaos.Config
}

func main() {
	configPath := flag.String("config", "", "Path to JSON or YAML config")
	envFile := flag.String("env-file", ".env", "Optional .env file with EXECCORE_* overrides")
	configReload := flag.Duration("config-reload-interval", 2*time.Second, "Risk params reload interval (0=disable)")
	duration := flag.Duration("duration", 0, "Run time (0=until shutdown signal)")
	ticksPerSec := flag.Int("ticks-per-sec", 1000, "Simulated ticks per second per symbol")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty=disable)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	snapshotOut := flag.String("snapshot-out", "", "Write the final position snapshot to this JSON file")
	demo := flag.Bool("demo", false, "Run the one-shot trading demo and exit")
	chaosSeed := flag.Uint64("chaos-seed", 0, "Feed chaos RNG seed (0=time-based)")
	chaosDrop := flag.Float64("chaos-drop", 0, "Probability to drop a simulated tick")
	chaosDup := flag.Float64("chaos-dup", 0, "Probability to duplicate a simulated tick")
	chaosReorder := flag.Int("chaos-reorder", 1, "Reorder window size for simulated ticks (1=disable)")
	chaosDelay := flag.Duration("chaos-delay", 0, "Max timestamp delay added to simulated ticks")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "execcore.trader",
			ServerAddress:   *pyroscopeAddr,
			Tags: map[string]string{
				"env": "local",
			},
			Logger: profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logs.Errorf("pyroscope start failed, err: %+v", err)
			os.Exit(1)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if *demo {
		if err := runDemo(); err != nil {
			logs.Errorf("demo failed, err: %+v", err)
			os.Exit(1)
		}
		return
	}

	loaded, err := ops.Load(*configPath, *envFile)
	if err != nil {
		logs.Errorf("config load failed, err: %+v", err)
		os.Exit(1)
	}

	opt := options{
		configPath:   *configPath,
		configReload: *configReload,
		duration:     *duration,
		ticksPerSec:  *ticksPerSec,
		metricsAddr:  *metricsAddr,
		snapshotOut:  *snapshotOut,
		chaos: chaos.Config{
			Seed:          *chaosSeed,
			DropRate:      *chaosDrop,
			DuplicateRate: *chaosDup,
			ReorderWindow: *chaosReorder,
			MaxDelay:      *chaosDelay,
		},
	}
	if err := run(loaded, opt); err != nil {
		logs.Errorf("trader failed, err: %+v", err)
		os.Exit(1)
	}
}

func run(loaded ops.Loaded, opt options) error {
	if len(loaded.Symbols) == 0 {
		return errors.New("no symbols configured")
	}

	metrics := obs.NewMetrics()
	engine, err := execution.New(execution.Config{
		Risk:          loaded.Risk,
		PoolCapacity:  loaded.PoolCapacity,
		InitialEquity: loaded.InitialEquity,
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}

	runner, err := core.NewRunner(engine, core.Config{
		TickQueue:    loaded.Runner.TickQueue,
		CommandQueue: loaded.Runner.CommandQueue,
		Batch:        loaded.Runner.Batch,
		ArenaBytes:   loaded.Runner.ArenaBytes,
		Backoff:      bus.DefaultBackoff,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink *journal.Sink
	if loaded.Journal.Enabled() {
		sink, err = openJournal(loaded.Journal, metrics)
		if err != nil {
			return err
		}
		engine.RegisterCallback(sink)
		// the sink outlives the producers so it sees every event
		sinkCtx, stopSink := context.WithCancel(context.Background())
		sinkDone := make(chan struct{})
		defer func() {
			stopSink()
			<-sinkDone
			logs.Infof("journal written %d, failed %d, dropped %d", sink.Written(), sink.Failed(), sink.Dropped())
		}()
		go func() {
			defer close(sinkDone)
			if err := sink.Run(sinkCtx); err != nil {
				logs.Errorf("journal close, err: %+v", err)
			}
		}()
	}

	if opt.metricsAddr != "" {
		srv, err := serveMetrics(opt.metricsAddr, metrics, engine)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if opt.configPath != "" && opt.configReload > 0 {
		go watchConfig(ctx, opt.configPath, opt.configReload, func(params risk.Params) {
			if err := engine.SetRiskParams(params); err != nil {
				logs.Errorf("risk params rejected, err: %+v", err)
				return
			}
			logs.Infof("risk params updated: %+v", params)
		})
	}

	tally, err := newTally(4096)
	if err != nil {
		return err
	}
	sim, err := newSimulation(engine, runner, loaded, opt.chaos)
	if err != nil {
		return err
	}
	runner.OnResult(tally.record)

	// the tally consumes results until the runner has drained its queues
	tallyCtx, stopTally := context.WithCancel(context.Background())
	tallyDone := make(chan struct{})
	go func() {
		defer close(tallyDone)
		tally.run(tallyCtx)
	}()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		runner.Run(ctx)
	}()

	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := sim.feed(ctx, opt.ticksPerSec); err != nil {
			logs.Errorf("feed stopped, err: %+v", err)
		}
	}()
	for i, strategy := range []func(context.Context){sim.taker, sim.maker} {
		workers.Add(1)
		go func(i int, strategy func(context.Context)) {
			defer workers.Done()
			logs.Infof("strategy %d started", i)
			strategy(ctx)
		}(i, strategy)
	}

	logs.Infof("trader running: symbols %d, pool %d, journal %v", len(loaded.Symbols), loaded.PoolCapacity, sink != nil)
	wait(opt.duration)
	cancel()
	workers.Wait()
	stopTally()
	<-tallyDone

	report(metrics, engine, tally)
	if opt.snapshotOut != "" {
		if err := state.WriteSnapshot(opt.snapshotOut, engine.Snapshot()); err != nil {
			return err
		}
		logs.Infof("snapshot written: %s", opt.snapshotOut)
	}
	return nil
}

func wait(duration time.Duration) {
	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-sys.Shutdown():
		logs.Info("shutdown signal received")
	case <-timeout:
		logs.Infof("run time %s elapsed", duration)
	}
}

func openJournal(js ops.JournalSettings, metrics *obs.Metrics) (*journal.Sink, error) {
	var writers []journal.Writer
	if js.Driver != "" {
		client, err := conn.New(conn.Option{Driver: js.Driver, ConnString: js.DSN})
		if err != nil {
			return nil, err
		}
		store, err := journal.NewStore(client, js.BatchSize)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		writers = append(writers, store)
	}
	if len(js.KafkaBrokers) > 0 {
		pub, err := journal.NewPublisher(js.KafkaBrokers, js.KafkaTopic)
		if err != nil {
			return nil, err
		}
		writers = append(writers, pub)
	}
	return journal.NewSink(journal.Options{
		Buffer:        js.Buffer,
		BatchSize:     js.BatchSize,
		FlushInterval: js.FlushInterval,
		Metrics:       metrics,
	}, writers...)
}

func serveMetrics(addr string, metrics *obs.Metrics, engine *execution.Engine) (*http.Server, error) {
	collector := obs.NewCollector(metrics, obs.Gauges{
		OpenOrders: engine.OpenOrderCount,
		Positions:  engine.PositionCount,
		Equity:     func() float64 { return engine.Equity().Float64() },
	})
	reg, err := collector.Register()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("metrics server, err: %+v", err)
		}
	}()
	logs.Infof("metrics served on %s/metrics", addr)
	return srv, nil
}

func watchConfig(ctx context.Context, path string, interval time.Duration, update func(risk.Params)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logs.Errorf("config stat failed, err: %+v", err)
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			if lastMod.IsZero() {
				lastMod = info.ModTime()
				continue
			}
			params, err := ops.LoadRisk(path)
			if err != nil {
				logs.Errorf("config reload failed, err: %+v", err)
				continue
			}
			update(params)
			lastMod = info.ModTime()
			logs.Infof("config reloaded: %s", path)
		}
	}
}

func report(metrics *obs.Metrics, engine *execution.Engine, tally *tally) {
	snap := metrics.Snapshot()
	for typ, n := range snap.EventCounts {
		if n > 0 {
			logs.Infof("events %s: %d", typ, n)
		}
	}
	for code, n := range snap.RejectCounts {
		if n > 0 {
			logs.Infof("rejects %s: %d", code, n)
		}
	}
	logs.Infof("ticks applied %d, drops tick/command/journal %d/%d/%d",
		snap.TicksApplied, snap.TickDrops, snap.CommandDrops, snap.JournalDrops)
	logs.Infof("submit latency n=%d avg=%s max=%s, cycle latency n=%d avg=%s max=%s",
		snap.SubmitLatency.Count, snap.SubmitLatency.Avg, snap.SubmitLatency.Max,
		snap.CycleLatency.Count, snap.CycleLatency.Avg, snap.CycleLatency.Max)
	logs.Infof("commands ok %d, failed %d, unreported %d", tally.ok, tally.failed, tally.dropped.Load())
	logs.Infof("open orders %d, positions %d, realized %s, equity %s",
		engine.OpenOrderCount(), engine.PositionCount(), engine.RealizedPnL(), engine.Equity())
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{}) {
	logs.Infof("pyroscope: "+format, args...)
}

func (profilerLogger) Debugf(_ string, _ ...interface{}) {}

func (profilerLogger) Errorf(format string, args ...interface{}) {
	logs.Errorf("pyroscope: "+format, args...)
}
