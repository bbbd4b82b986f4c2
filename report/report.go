// Package report renders the status of a balancing cycle as text, and
// publishes it across the display surfaces of the host.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/host"
)

// Pass summarizes the balancing pass of one node kind or group.
type Pass struct {
	Name string
	// Group is true if the Pass balanced a named group.
	Group bool
	// Disabled is true if the Pass was disabled by configuration.
	Disabled  bool
	Nodes     int
	Networks  int
	Transfers int
	// Volume moved, in cubic meters.
	Volume float64
}

// Status is the outcome of a single cycle.
type Status struct {
	Cycle int
	// State of the scheduler at cycle end, eg "warm".
	State string
	// Discovery performed by the cycle, eg "refresh".
	Discovery string
	// BudgetSkipped is true if balancing was skipped for lack of budget.
	BudgetSkipped bool
	ConfigVersion int

	Passes         []Pass
	Networks       int
	Transfers      int
	StackMoves     int
	PriorityMoves  int
	VolumeMoved    float64
	RollingAverage float64

	// Grids observed by the cycle, sorted.
	Grids []string
	// Missing item types having no catalog entry, sorted.
	Missing []string
	// Warnings of the cycle.
	Warnings []string

	BudgetUsed  int
	BudgetLimit int
}

// Render the Status as text.
func (s *Status) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ballast cycle %s (%s, %s)\n", humanize.Comma(int64(s.Cycle)), s.State, s.Discovery)
	fmt.Fprintf(&b, "Budget %s / %s\n", humanize.Comma(int64(s.BudgetUsed)), humanize.Comma(int64(s.BudgetLimit)))

	if s.BudgetSkipped {
		b.WriteString("Balancing skipped: insufficient budget\n")
	} else if len(s.Passes) != 0 {
		var table = tablewriter.NewWriter(&b)
		table.SetHeader([]string{"Pass", "Nodes", "Networks", "Transfers", "Volume"})

		for _, p := range s.Passes {
			var name = p.Name
			if p.Group {
				name = "group " + name
			}
			if p.Disabled {
				table.Append([]string{name, "off", "", "", ""})
				continue
			}
			table.Append([]string{
				name,
				humanize.Comma(int64(p.Nodes)),
				humanize.Comma(int64(p.Networks)),
				humanize.Comma(int64(p.Transfers)),
				commaf(p.Volume, 2),
			})
		}
		table.Render()
	}

	fmt.Fprintf(&b, "Moves %s, priority %s (average %s)\n",
		humanize.Comma(int64(s.StackMoves)),
		humanize.Comma(int64(s.PriorityMoves)),
		commaf(s.RollingAverage, 1))
	fmt.Fprintf(&b, "Moved %s m3 across %s networks\n",
		commaf(s.VolumeMoved, 2),
		humanize.Comma(int64(s.Networks)))

	if len(s.Grids) != 0 {
		fmt.Fprintf(&b, "Grids: %s\n", strings.Join(s.Grids, ", "))
	}
	for _, t := range s.Missing {
		fmt.Fprintf(&b, "Missing from catalog: %s\n", t)
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return b.String()
}

// Paginate splits the lines of |text| into |pages| pages of at most |lines|
// lines each. Lines beyond the final page are dropped, and surplus pages
// are empty.
func Paginate(text string, lines, pages int) []string {
	var all = strings.Split(strings.TrimRight(text, "\n"), "\n")
	var out = make([]string, pages)

	for i := range out {
		var begin, end = i * lines, (i + 1) * lines
		if begin >= len(all) {
			break
		} else if end > len(all) {
			end = len(all)
		}
		out[i] = strings.Join(all[begin:end], "\n") + "\n"
	}
	return out
}

// Publisher writes reports to named display surfaces.
type Publisher struct {
	// Unresolved display names which have been reported.
	reported map[string]struct{}
}

// NewPublisher returns a new Publisher.
func NewPublisher() *Publisher {
	return &Publisher{reported: make(map[string]struct{})}
}

// Publish paginates |text| across the displays of |h| identified by |names|,
// in order, at |lines| lines per display. Displays which can't be resolved
// are skipped. Publish returns those unresolved names which haven't been
// returned by a previous call, so that each is reported once.
func (p *Publisher) Publish(h host.Host, names []string, lines int, text string) (unresolved []string) {
	var displays []host.Display

	for _, name := range names {
		if d, ok := h.Display(name); ok {
			displays = append(displays, d)
			delete(p.reported, name)
			continue
		}
		if _, ok := p.reported[name]; !ok {
			p.reported[name] = struct{}{}
			unresolved = append(unresolved, name)
			log.WithField("display", name).Warn("display not found")
		}
	}
	if len(displays) == 0 {
		return
	}
	for i, page := range Paginate(text, lines, len(displays)) {
		displays[i].WriteText(page)
	}
	return
}

// commaf formats |v| with thousands separators, rounded to |digits|.
// humanize truncates rather than rounds.
func commaf(v float64, digits int) string {
	var scale = math.Pow10(digits)
	return humanize.CommafWithDigits(math.Round(v*scale)/scale, digits)
}
