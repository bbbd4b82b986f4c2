package main

import (
	"github.com/jessevdk/go-flags"
	mbp "go.ballast.dev/core/mainboilerplate"
)

const iniFilename = "ballast.ini"

// Config is the top-level configuration object of ballast.
var Config = new(struct {
	Engine struct {
		Catalog         string  `long:"catalog" env:"CATALOG" default:"catalog.yaml" description:"Path to the YAML item catalog"`
		RediscoverEvery int     `long:"rediscover-every" env:"REDISCOVER_EVERY" default:"16" description:"Cycle interval of forced full discovery"`
		HighWater       float64 `long:"high-water" env:"HIGH_WATER" default:"0.75" description:"Fraction of the per-tick budget at which discovery aborts"`
		History         int     `long:"history" env:"HISTORY" default:"10" description:"Number of cycles of the rolling movement average"`
	} `group:"Engine" namespace:"engine" env-namespace:"ENGINE"`

	Run         mbp.RunConfig         `group:"Run" namespace:"run" env-namespace:"RUN"`
	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
})

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	parser.LongDescription = `ballast balances cargo across connected inventories of a simulated host world.

Optionally configure ballast with a '` + iniFilename + `' file in the current working
directory, or with '~/.config/ballast/` + iniFilename + `'. Use the 'print-config'
sub-command to inspect the tool's current configuration.
`

	_, _ = parser.AddCommand("simulate", "Run balancing cycles against a simulated world", `
Load a world from a YAML fixture, or generate a random one, and run balancing
cycles against it on a fixed interval. The simulation runs until --cycles
have completed, or until signaled to exit (via SIGINT or SIGTERM).
`, &cmdSimulate{})

	_, _ = parser.AddCommand("catalog", "List the item catalog", `
Load the item catalog and write it as a table to stdout.
`, &cmdCatalog{})

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}
