package config

import (
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

// patternCacheSize bounds the number of compiled Patterns retained by a Loader.
const patternCacheSize = 16

// Loader tracks the configuration blob of the host across cycles. It
// re-parses the blob only when its content hash changes, and retains the
// prior Config if the new blob fails to parse.
type Loader struct {
	// Config currently in effect.
	Config *Config
	// Version is incremented with each change of Config.
	Version int
	// Err is the error of the most recently observed blob, or nil if it parsed.
	Err *ParseError

	// Hashes of the most recently observed text, and of the text of Config.
	observed, effective uint64
	loaded, parsed      bool
	patterns            *lru.Cache
}

// NewLoader returns a Loader having a Defaults Config.
func NewLoader() *Loader {
	var cache, err = lru.New(patternCacheSize)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}
	return &Loader{
		Config:   Defaults(),
		patterns: cache,
	}
}

// Load observes configuration |text|, and returns true if it caused a
// change of the Config in effect. Restoring the text of the Config in effect
// after a parse error clears the error, but isn't a change.
func (l *Loader) Load(text string) bool {
	var hash = Hash(text)
	if l.loaded && hash == l.observed {
		return false
	}
	l.observed, l.loaded = hash, true

	if l.parsed && hash == l.effective {
		l.Err = nil
		log.WithField("version", l.Version).Info("restored config")
		return false
	}

	var cfg, err = Parse(text)
	if err != nil {
		l.Err = err.(*ParseError)
		log.WithFields(log.Fields{
			"err":     err,
			"version": l.Version,
		}).Warn("failed to parse config; retaining prior version")
		return false
	}
	l.Config, l.Err = cfg, nil
	l.effective, l.parsed = hash, true
	l.Version++

	log.WithFields(log.Fields{
		"version": l.Version,
		"hash":    hash,
	}).Info("loaded config")

	return true
}

// Matcher returns the Pattern of the current Config, or nil if the Config
// has no group pattern.
func (l *Loader) Matcher() *Pattern {
	var src = l.Config.Groups.Pattern
	if src == "" {
		return nil
	}
	if v, ok := l.patterns.Get(src); ok {
		return v.(*Pattern)
	}
	var p, err = CompilePattern(src)
	if err != nil {
		// Config was validated when parsed.
		log.WithFields(log.Fields{"pattern": src, "err": err}).Error("invalid group pattern")
		return nil
	}
	l.patterns.Add(src, p)
	return p
}
