package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/host/hosttest"
	mbp "go.ballast.dev/core/mainboilerplate"
	"go.ballast.dev/core/metrics"
	"go.ballast.dev/core/report"
	"go.ballast.dev/core/scheduler"
)

type cmdSimulate struct {
	World      string        `long:"world" description:"Path to a YAML world fixture"`
	Generate   int           `long:"generate" default:"0" description:"Generate a random world of this many blocks, rather than loading --world"`
	Seed       int64         `long:"seed" default:"1" description:"Random seed of a generated world"`
	ConfigFile string        `long:"config-file" description:"Path of engine INI configuration. Re-read each cycle, and overrides the configuration of the world"`
	Cycles     int           `long:"cycles" default:"0" description:"Number of cycles to run. Zero runs until signaled"`
	Interval   time.Duration `long:"interval" default:"100ms" description:"Interval between cycles"`
	Budget     int           `long:"budget" default:"0" description:"Per-cycle compute budget. Zero uses that of the world"`
	Report     bool          `long:"report" description:"Write the status report of every cycle to stdout"`
}

func (cmd cmdSimulate) Execute([]string) error {
	defer mbp.InitDiagnosticsAndRecover(Config.Diagnostics)()
	mbp.InitLog(Config.Log)

	var run = mbp.NewRun(Config.Run)
	log.WithFields(log.Fields{
		"config":  Config,
		"version": mbp.Version,
	}).Info("starting simulation")
	prometheus.MustRegister(metrics.BallastCollectors()...)

	var fs = afero.NewOsFs()
	var cat, err = catalog.Load(fs, Config.Engine.Catalog)
	mbp.Must(err, "failed to load catalog", "path", Config.Engine.Catalog)

	sim, err := cmd.newSimulation(fs, cat)
	mbp.Must(err, "failed to build world")

	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	var ticker = time.NewTicker(cmd.Interval)
	defer ticker.Stop()

	var out io.Writer = io.Discard
	if cmd.Report {
		out = os.Stdout
	}
	var status *report.Status

loop:
	for cmd.Cycles == 0 || sim.cycles < cmd.Cycles {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")
			break loop
		case <-ticker.C:
		}
		status = sim.step(out)
	}

	if status != nil {
		fmt.Print(status.Render())
	}
	log.WithFields(log.Fields{
		"run":    run.Name,
		"cycles": sim.cycles,
		"volume": sim.world.TotalVolume(),
	}).Info("goodbye")

	return nil
}

// simulation is a World under balancing by a Scheduler.
type simulation struct {
	fs         afero.Fs
	configFile string
	world      *hosttest.World
	sched      *scheduler.Scheduler
	cycles     int
}

func (cmd cmdSimulate) newSimulation(fs afero.Fs, cat *catalog.Catalog) (*simulation, error) {
	var sim = &simulation{
		fs:         fs,
		configFile: cmd.ConfigFile,
		sched: scheduler.New(cat, scheduler.Options{
			RediscoverEvery: Config.Engine.RediscoverEvery,
			HighWater:       Config.Engine.HighWater,
			History:         Config.Engine.History,
		}),
	}

	switch {
	case cmd.Generate > 0:
		sim.world = hosttest.Generate(rand.New(rand.NewSource(cmd.Seed)), cat, cmd.Generate)
	case cmd.World != "":
		var w, err = hosttest.LoadWorld(fs, cmd.World, cat)
		if err != nil {
			return nil, err
		}
		sim.world = w
	default:
		return nil, errors.New("expected one of --world or --generate")
	}

	if cmd.Budget > 0 {
		sim.world.Meter.LimitN = cmd.Budget
	}
	return sim, nil
}

// step runs one cycle, writing its rendered status to |out|.
func (sim *simulation) step(out io.Writer) *report.Status {
	sim.world.BeginTick()

	if sim.configFile != "" {
		if raw, err := afero.ReadFile(sim.fs, sim.configFile); err != nil {
			log.WithFields(log.Fields{"err": err, "path": sim.configFile}).Warn("failed to read engine config")
		} else {
			sim.world.Config = string(raw)
		}
	}

	var status = sim.sched.Cycle(sim.world)
	sim.cycles++

	log.WithFields(log.Fields{
		"cycle":     status.Cycle,
		"state":     status.State,
		"discovery": status.Discovery,
		"moves":     status.StackMoves,
		"volume":    status.VolumeMoved,
		"budget":    status.BudgetUsed,
		"warnings":  len(status.Warnings),
	}).Info("cycle")

	fmt.Fprint(out, status.Render())
	return status
}
