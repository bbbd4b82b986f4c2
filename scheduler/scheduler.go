// Package scheduler drives balancing cycles within the compute budget of the
// host. Each cycle synchronizes the Node snapshot, either by a full discovery
// or a cheap refresh, then balances groups and node kinds in a fixed order,
// enforces slot priorities and publishes a status report.
//
// A Scheduler begins COLD, having no snapshot. A full discovery which
// completes within the high-water mark of the budget publishes a snapshot and
// moves the Scheduler to WARM. One which doesn't is discarded in its
// entirety, and the next cycle starts discovery over. While WARM, the
// snapshot is refreshed each cycle and rediscovered every RediscoverEvery
// cycles, which catches new blocks and renamed groups.
package scheduler

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/balancer"
	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/config"
	"go.ballast.dev/core/fingerprint"
	"go.ballast.dev/core/host"
	"go.ballast.dev/core/metrics"
	"go.ballast.dev/core/network"
	"go.ballast.dev/core/priority"
	"go.ballast.dev/core/registry"
	"go.ballast.dev/core/report"
)

// State of a Scheduler.
type State int

const (
	// Cold Schedulers have no snapshot, and must discover.
	Cold State = iota
	// Warm Schedulers have a snapshot, which is refreshed.
	Warm
)

func (s State) String() string {
	switch s {
	case Cold:
		return "cold"
	case Warm:
		return "warm"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options of a Scheduler.
type Options struct {
	// RediscoverEvery is the cycle interval of forced full discovery.
	RediscoverEvery int
	// HighWater is the fraction of the budget limit at which discovery aborts.
	HighWater float64
	// History is the number of cycles of the rolling movement average.
	History int
}

// DefaultOptions returns Options having default values.
func DefaultOptions() Options {
	return Options{
		RediscoverEvery: 16,
		HighWater:       0.75,
		History:         10,
	}
}

// Scheduler owns all state which persists across cycles. It's not safe for
// concurrent use.
type Scheduler struct {
	opts Options

	registry  *registry.Registry
	balancer  *balancer.Balancer
	loader    *config.Loader
	publisher *report.Publisher
	ring      *Ring

	state    State
	snapshot *registry.NodeSet
	cycle    int
	// Configured group names which are unresolved, and have been reported.
	unresolved map[string]struct{}
}

// New returns a COLD Scheduler which balances items of Catalog |cat|.
// Zero-valued Options take their defaults.
func New(cat *catalog.Catalog, opts Options) *Scheduler {
	var defaults = DefaultOptions()
	if opts.RediscoverEvery <= 0 {
		opts.RediscoverEvery = defaults.RediscoverEvery
	}
	if opts.HighWater <= 0 || opts.HighWater > 1 {
		opts.HighWater = defaults.HighWater
	}
	if opts.History <= 0 {
		opts.History = defaults.History
	}
	return &Scheduler{
		opts:       opts,
		registry:   registry.New(fingerprint.NewClassifier(cat)),
		balancer:   balancer.New(cat),
		loader:     config.NewLoader(),
		publisher:  report.NewPublisher(),
		ring:       NewRing(opts.History),
		unresolved: make(map[string]struct{}),
	}
}

// State of the Scheduler.
func (s *Scheduler) State() State { return s.state }

// Snapshot returns the current NodeSet, or nil if the Scheduler is COLD.
func (s *Scheduler) Snapshot() *registry.NodeSet { return s.snapshot }

// Config returns the configuration in effect.
func (s *Scheduler) Config() *config.Config { return s.loader.Config }

// Cycle runs a single cycle against host |h|, and returns its Status.
func (s *Scheduler) Cycle(h host.Host) *report.Status {
	s.cycle++
	metrics.CyclesTotal.Inc()

	var budget = h.Budget()
	var stats = balancer.NewCycleStats()
	var status = &report.Status{Cycle: s.cycle}

	if s.loader.Load(h.ConfigText()) && s.state == Warm {
		// Kinds and group claims may differ under the new Config.
		s.state, s.snapshot = Cold, nil
	}
	if s.loader.Err != nil {
		status.Warnings = append(status.Warnings, s.loader.Err.Error())
	}
	var cfg = s.loader.Config
	s.registry.Matcher = s.loader.Matcher()
	status.ConfigVersion = s.loader.Version

	if float64(host.Remaining(budget)) < float64(budget.Limit())/2 {
		status.BudgetSkipped = true
		status.Discovery = metrics.Skipped
		metrics.DiscoveryTotal.WithLabelValues(metrics.Skipped).Inc()

		log.WithFields(log.Fields{
			"cycle": s.cycle,
			"used":  budget.Used(),
			"limit": budget.Limit(),
		}).Debug("skipping cycle; budget is below half")
	} else {
		status.Discovery = s.synchronize(h, cfg)
		metrics.DiscoveryTotal.WithLabelValues(status.Discovery).Inc()

		if s.snapshot != nil {
			s.balance(cfg, stats, status)
		}
	}

	s.ring.Push(stats.StackMoves)

	status.State = s.state.String()
	status.Networks = stats.Networks
	status.Transfers = stats.Transfers
	status.StackMoves = stats.StackMoves
	status.PriorityMoves = stats.PriorityMoves
	status.VolumeMoved = stats.VolumeMoved
	status.RollingAverage = s.ring.Average()
	status.Missing = stats.MissingTypes()
	status.Grids = s.grids()
	status.BudgetUsed, status.BudgetLimit = budget.Used(), budget.Limit()

	for _, name := range s.publisher.Publish(h, cfg.Report.Display, cfg.Report.Lines, status.Render()) {
		status.Warnings = append(status.Warnings, fmt.Sprintf("display %q not found", name))
	}

	if s.snapshot != nil {
		metrics.Nodes.Set(float64(s.snapshot.Len()))
	} else {
		metrics.Nodes.Set(0)
	}
	metrics.Networks.Set(float64(stats.Networks))
	metrics.MissingCatalogTypes.Set(float64(len(status.Missing)))
	if limit := budget.Limit(); limit > 0 {
		metrics.CycleBudgetUsed.Observe(float64(budget.Used()) / float64(limit))
	}

	log.WithFields(log.Fields{
		"cycle":     s.cycle,
		"state":     status.State,
		"discovery": status.Discovery,
		"networks":  status.Networks,
		"moves":     status.StackMoves,
		"volume":    status.VolumeMoved,
		"used":      status.BudgetUsed,
	}).Debug("completed cycle")

	return status
}

// synchronize the snapshot with the host, by discovery or refresh. It
// returns the kind of synchronization performed.
func (s *Scheduler) synchronize(h host.Host, cfg *config.Config) string {
	if s.state == Warm && s.cycle%s.opts.RediscoverEvery != 0 {
		s.snapshot = s.registry.Refresh(h, s.snapshot)
		return metrics.Refresh
	}

	var budget = h.Budget()
	var highWater = s.opts.HighWater * float64(budget.Limit())

	var set, err = s.registry.Discover(registry.DiscoverArgs{
		Host:  h,
		Kinds: kindFilter(cfg),
		Abort: func() bool { return float64(budget.Used()) >= highWater },
	})
	if err != nil {
		s.state, s.snapshot = Cold, nil
		return metrics.Aborted
	}
	s.state, s.snapshot = Warm, set
	return metrics.Full
}

// balance runs each balancing pass, and then enforces priorities.
func (s *Scheduler) balance(cfg *config.Config, stats *balancer.CycleStats, status *report.Status) {
	var set = s.snapshot
	var members = set.Groups()
	var nextID int

	var run = func(pass *report.Pass, nets []*network.Network, pred balancer.Predicate) error {
		nextID += len(nets)
		stats.Networks += len(nets)

		for _, net := range nets {
			pass.Nodes += len(net.Nodes)
			pass.Networks++

			var xfer, err = s.balancer.Balance(net, pred, stats)
			if err != nil {
				return err
			}
			if xfer.Moved != 0 {
				pass.Transfers++
				pass.Volume += xfer.Moved
			}
		}
		return nil
	}
	var abort = func(err error) {
		metrics.InvalidTransfersTotal.Inc()
		status.Warnings = append(status.Warnings, err.Error())
		log.WithFields(log.Fields{
			"cycle": s.cycle,
			"err":   err,
		}).Error("aborting balancing")
	}

	for _, name := range s.groupNames(set, cfg, status) {
		var pass = report.Pass{Name: name, Group: true}
		var nets = network.Partition(members[name], nil, network.Options{
			FirstID:           nextID,
			Exhaustive:        cfg.Groups.Exhaustive,
			IgnoreFingerprint: true,
		})
		var err = run(&pass, nets, nil)
		status.Passes = append(status.Passes, pass)

		if err != nil {
			abort(err)
			return
		}
	}

	var claimed = func(n *registry.Node) bool { return n.Group != "" }

	for _, kind := range registry.Kinds {
		var pass = report.Pass{Name: kind.String()}
		if !cfg.Enabled(kind.String()) {
			pass.Disabled = true
			status.Passes = append(status.Passes, pass)
			continue
		}
		var nets = network.Partition(set.OfKind(kind), claimed, network.Options{
			FirstID:    nextID,
			Exhaustive: cfg.Groups.Exhaustive,
		})
		var err = run(&pass, nets, predicateOf(kind, cfg))
		status.Passes = append(status.Passes, pass)

		if err != nil {
			abort(err)
			return
		}
	}

	if cfg.Priority.Top != "" || cfg.Priority.Bottom != "" {
		stats.PriorityMoves += priority.Enforce(
			set.OfKind(registry.OreProcessorInput), cfg.Priority.Top, cfg.Priority.Bottom)
	}
}

// groupNames returns the names of groups to balance, in sorted order.
// Configured names having no members are reported once.
func (s *Scheduler) groupNames(set *registry.NodeSet, cfg *config.Config, status *report.Status) []string {
	var present = set.GroupNames()
	if len(cfg.Groups.Name) == 0 {
		return present
	}
	var configured = append([]string(nil), cfg.Groups.Name...)
	sort.Strings(configured)

	var out []string
	for _, name := range configured {
		var ind = sort.SearchStrings(present, name)
		if ind != len(present) && present[ind] == name {
			out = append(out, name)
			delete(s.unresolved, name)
			continue
		}
		if _, ok := s.unresolved[name]; !ok {
			s.unresolved[name] = struct{}{}
			status.Warnings = append(status.Warnings, fmt.Sprintf("group %q has no members", name))
			log.WithField("group", name).Warn("configured group has no members")
		}
	}
	return out
}

func (s *Scheduler) grids() []string {
	var out = make([]string, 0, len(s.registry.Grids))
	for g := range s.registry.Grids {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// kindFilter discovers kinds which are enabled, and ore processor inputs
// if priorities are enforced.
func kindFilter(cfg *config.Config) registry.KindFilter {
	return func(k registry.NodeKind) bool {
		if k == registry.OreProcessorInput && (cfg.Priority.Top != "" || cfg.Priority.Bottom != "") {
			return true
		}
		return cfg.Enabled(k.String())
	}
}

// predicateOf returns the Predicate of a kind's balancing pass. Fuel
// consumers balance only their fuel.
func predicateOf(kind registry.NodeKind, cfg *config.Config) balancer.Predicate {
	var fuel string
	switch kind {
	case registry.EnergyCell:
		fuel = cfg.Fuel.Reactor
	case registry.GasProcessor:
		fuel = cfg.Fuel.Gas
	}
	if fuel == "" {
		return nil
	}
	return func(itemType string) bool { return itemType == fuel }
}
