// PPS disciplined oscillator

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/mmcloughlin/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/ppsdo/base/tickmath"
	"example.com/ppsdo/base/zaplog"

	"example.com/ppsdo/core/config"
	"example.com/ppsdo/core/discipline"
	"example.com/ppsdo/core/monitor"
	"example.com/ppsdo/core/stats"

	"example.com/ppsdo/driver/clock"
	"example.com/ppsdo/driver/sim"
)

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
}

func runMonitor(log *zap.Logger, addr string) {
	http.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, nil)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

func loadConfig(configFile string) config.File {
	if configFile == "" {
		cfg, err := config.Parse(nil)
		if err != nil {
			log.Fatal("failed to build default configuration", zap.Error(err))
		}
		return cfg
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	return cfg
}

func newActuator(log *zap.Logger, cfg config.Actuator) discipline.Actuator {
	step, err := cfg.Step()
	if err != nil {
		log.Fatal("unexpected actuator configuration", zap.Error(err))
	}
	switch cfg.Kind {
	case config.ActuatorKindSim:
		return nil
	case config.ActuatorKindSystem:
		return &clock.PhaseStepper{Log: log, StepSize: step}
	case config.ActuatorKindLog:
		return &clock.LogStepper{Log: log, StepSize: step}
	default:
		panic("unexpected actuator kind")
	}
}

func simulate(ctx context.Context, log *zap.Logger, cfg config.File,
	reg prometheus.Registerer, w io.Writer) error {
	mon := monitor.New(reg, cfg.Loop.ReferenceFrequency, cfg.Monitor.Window)
	rec := stats.New(log, cfg.Loop.ReferenceFrequency)
	opts := []discipline.Option{discipline.WithObserver(mon, rec)}
	act := newActuator(log, cfg.Actuator)
	if act != nil {
		opts = append(opts, discipline.WithActuator(act))
	}
	l, err := discipline.New(log, cfg.Loop, opts...)
	if err != nil {
		return err
	}
	osc, err := sim.New(cfg.Loop, cfg.Simulation)
	if err != nil {
		return err
	}

	log.Info("starting simulation",
		zap.Int64("reference frequency", cfg.Loop.ReferenceFrequency),
		zap.Int64("loop gain", cfg.Loop.LoopGain),
		zap.Int64("offset ppb", cfg.Simulation.OffsetPPB),
		zap.Int("periods", cfg.Simulation.Periods),
	)
	err = osc.Run(ctx, l, cfg.Simulation.Periods)
	if err != nil {
		return err
	}

	s := l.Snapshot()
	sum := rec.Summary()
	fmt.Fprintf(w, "ticks: %d (%v)\n", osc.Ticks(),
		tickmath.Duration(osc.Ticks(), cfg.Loop.ReferenceFrequency))
	fmt.Fprintf(w, "edges: %d accepted: %d rejected: %d timeouts: %d\n",
		s.Edges, s.Accepted, s.NoiseRejected, s.Timeouts)
	fmt.Fprintf(w, "locked: %t (first lock at edge %d)\n", s.Locked, sum.LockedAt)
	fmt.Fprintf(w, "adjust: %d increments: %d decrements: %d\n",
		s.Adjust, s.Increments, s.Decrements)
	fmt.Fprintf(w, "saturations: clamp %d adjust %d\n",
		s.ClampSaturations, s.AdjustSaturations)
	fmt.Fprintf(w, "status: 0x%04x\n", l.Status())
	fmt.Fprintf(w, "frequency offset: %.3f ppm\n", mon.FrequencyOffset())
	fmt.Fprintf(w, "error: mean %.2f p50 %d p90 %d p99 %d max %d\n",
		sum.Mean, sum.P50, sum.P90, sum.P99, sum.Max)
	return nil
}

func runSim(configFile string, periods int) {
	cfg := loadConfig(configFile)
	if periods != 0 {
		cfg.Simulation.Periods = periods
	}
	if cfg.Monitor.ListenAddr != "" {
		go runMonitor(log, cfg.Monitor.ListenAddr)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := simulate(ctx, log, cfg, prometheus.DefaultRegisterer, os.Stdout)
	if err != nil {
		log.Fatal("simulation failed", zap.Error(err))
	}
}

func describeStatus(w io.Writer, word string) error {
	v, err := strconv.ParseUint(word, 0, 16)
	if err != nil {
		return err
	}
	locked, lastError := discipline.DecodeStatus(uint16(v))
	fmt.Fprintf(w, "locked: %t\nlast error: %d\n", locked, lastError)
	return nil
}

func exitWithUsage() {
	fmt.Println("<usage>")
	fmt.Println("  ppsdo sim [-config <file>] [-periods <n>] [-verbose] [-cpuprofile <file>]")
	fmt.Println("  ppsdo status -word <status word>")
	os.Exit(1)
}

func main() {
	var (
		verbose    bool
		configFile string
		periods    int
		word       string
	)

	simFlags := flag.NewFlagSet("sim", flag.ExitOnError)
	statusFlags := flag.NewFlagSet("status", flag.ExitOnError)

	simFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	simFlags.StringVar(&configFile, "config", "", "Config file")
	simFlags.IntVar(&periods, "periods", 0, "Number of reference periods, overrides the config file")
	prof := profile.New(profile.CPUProfile, profile.MemProfile)
	prof.SetFlags(simFlags)

	statusFlags.StringVar(&word, "word", "", "Status word")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case simFlags.Name():
		err := simFlags.Parse(os.Args[2:])
		if err != nil || simFlags.NArg() != 0 || periods < 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		p := prof.Start()
		runSim(configFile, periods)
		p.Stop()
	case statusFlags.Name():
		err := statusFlags.Parse(os.Args[2:])
		if err != nil || statusFlags.NArg() != 0 || word == "" {
			exitWithUsage()
		}
		err = describeStatus(os.Stdout, word)
		if err != nil {
			exitWithUsage()
		}
	default:
		exitWithUsage()
	}
}
