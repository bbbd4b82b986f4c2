// Package config parses the engine configuration: a blob of INI text
// supplied by the host, which enables node kinds, names the group pattern and
// groups to balance, and designates priority and fuel item types.
//
//	[Categories]
//	disable = weapon-magazine
//
//	[Groups]
//	pattern = [BAL:*]
//
//	[Priority]
//	top    = Ore/Ice
//	bottom = Ore/Stone
//
// The blob is re-read every cycle, but parsed only when its content changes.
// A blob which fails to parse leaves the prior Config in effect.
package config

import (
	"fmt"
	"hash/crc64"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// Config of the balancing engine.
type Config struct {
	Categories struct {
		Disable []string `long:"disable" choice:"bulk-store" choice:"ore-processor-input" choice:"ore-processor-output" choice:"energy-cell" choice:"gas-processor" choice:"weapon-magazine" description:"Node kind which is not balanced. May be repeated"`
	} `group:"Categories"`

	Groups struct {
		Pattern    string   `long:"pattern" default:"[BAL:*]" description:"Pattern of block names claimed by a group. '*' captures the group name, and '?' matches any single character"`
		Name       []string `long:"name" description:"Group to balance. May be repeated. If unset, all groups are balanced"`
		Exhaustive bool     `long:"exhaustive-connectivity" description:"Test connectivity against every member of a network, rather than its first"`
	} `group:"Groups"`

	Priority struct {
		Top    string `long:"top" description:"Item type kept in the first slot of ore processor inputs"`
		Bottom string `long:"bottom" description:"Item type kept in the last slot of ore processor inputs"`
	} `group:"Priority"`

	Fuel struct {
		Gas     string `long:"gas" default:"Ore/Ice" description:"Item type balanced among gas processors"`
		Reactor string `long:"reactor" default:"Ingot/Uranium" description:"Item type balanced among energy cells"`
	} `group:"Fuel"`

	Report struct {
		Display []string `long:"display" description:"Display surface of the status report. May be repeated, in which case the report is paginated across surfaces"`
		Lines   int      `long:"lines" default:"17" description:"Lines of the report per display surface"`
	} `group:"Report"`
}

// ParseError is a failure to parse configuration text.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing config: %s", e.Err) }

// Cause returns the underlying error.
func (e *ParseError) Cause() error { return e.Err }

// Parse |text| into a new Config. Options which |text| omits take their
// default values.
func Parse(text string) (*Config, error) {
	var cfg = new(Config)
	var parser = flags.NewParser(cfg, flags.None)

	if err := flags.NewIniParser(parser).Parse(strings.NewReader(text)); err != nil {
		return nil, &ParseError{Err: err}
	}
	// Parsing empty arguments applies defaults of options the INI omitted.
	if _, err := parser.ParseArgs(nil); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return cfg, nil
}

// Defaults returns a Config having only default values.
func Defaults() *Config {
	var cfg, err = Parse("")
	if err != nil {
		panic(err) // Defaults are static, and always parse.
	}
	return cfg
}

// Validate returns an error if the Config is malformed.
func (c *Config) Validate() error {
	if c.Groups.Pattern != "" {
		if _, err := CompilePattern(c.Groups.Pattern); err != nil {
			return errors.Wrap(err, "Groups.Pattern")
		}
	}
	if c.Report.Lines <= 0 {
		return errors.Errorf("expected Report.Lines > 0 (%d)", c.Report.Lines)
	}
	return nil
}

// Enabled returns whether node kind |name| is balanced.
func (c *Config) Enabled(name string) bool {
	for _, d := range c.Categories.Disable {
		if d == name {
			return false
		}
	}
	return true
}

// Hash returns the content hash of configuration |text|.
func Hash(text string) uint64 {
	return crc64.Checksum([]byte(text), crcTable)
}

var crcTable = crc64.MakeTable(crc64.ECMA)
