// Package fingerprint classifies inventories by the set of catalog item types
// they accept. A Fingerprint is computed once per distinct block Definition
// and inventory index, and Fingerprints of equal content are canonicalized to
// a single shared instance. Callers may therefore compare Fingerprints by
// pointer identity.
package fingerprint

import (
	"encoding/binary"
	"hash/crc64"
	"math/bits"

	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/host"
)

// Fingerprint is an immutable bit-vector over catalog Palette indices.
type Fingerprint struct {
	words []uint64
	count int
}

// Has returns true if the item type at Palette index |i| is accepted.
func (f *Fingerprint) Has(i int) bool {
	var w = i / 64
	return w < len(f.words) && f.words[w]&(1<<uint(i%64)) != 0
}

// Len is the number of accepted item types.
func (f *Fingerprint) Len() int { return f.count }

// Types returns the accepted item types of |cat|, in Palette order.
func (f *Fingerprint) Types(cat *catalog.Catalog) []string {
	var out []string
	for i, t := range cat.Palette {
		if f.Has(i) {
			out = append(out, t)
		}
	}
	return out
}

func (f *Fingerprint) equal(other []uint64) bool {
	if len(f.words) != len(other) {
		return false
	}
	for i := range other {
		if f.words[i] != other[i] {
			return false
		}
	}
	return true
}

// Definition identifies an inventory of a block model.
type Definition struct {
	// Name of the block model, as returned by host.Block.Definition.
	Name string
	// Inventory index within blocks of the model.
	Inventory int
}

// Classifier computes and memoizes Fingerprints. It's not safe for
// concurrent use.
type Classifier struct {
	catalog      *catalog.Catalog
	byDefinition map[Definition]*Fingerprint
	// Canonical Fingerprints, bucketed on content hash.
	buckets  map[uint64][]*Fingerprint
	distinct int
}

// NewClassifier returns a Classifier which probes the item types of |cat|.
func NewClassifier(cat *catalog.Catalog) *Classifier {
	return &Classifier{
		catalog:      cat,
		byDefinition: make(map[Definition]*Fingerprint),
		buckets:      make(map[uint64][]*Fingerprint),
	}
}

// Classify returns the Fingerprint of Definition |def|. If |def| hasn't been
// seen before, |inv| is probed for each catalog item type.
func (c *Classifier) Classify(def Definition, inv host.Inventory) *Fingerprint {
	if fp, ok := c.byDefinition[def]; ok {
		return fp
	}

	var words = make([]uint64, (c.catalog.Len()+63)/64)
	var count int
	for i, t := range c.catalog.Palette {
		if inv.CanAccept(t) {
			words[i/64] |= 1 << uint(i%64)
		}
	}
	var hash uint64
	var tmp [8]byte
	for _, w := range words {
		count += bits.OnesCount64(w)
		binary.LittleEndian.PutUint64(tmp[:], w)
		hash = crc64.Update(hash, crcTable, tmp[:])
	}

	var fp *Fingerprint
	for _, cand := range c.buckets[hash] {
		if cand.equal(words) {
			fp = cand
			break
		}
	}
	if fp == nil {
		fp = &Fingerprint{words: words, count: count}
		c.buckets[hash] = append(c.buckets[hash], fp)
		c.distinct++
	}
	c.byDefinition[def] = fp

	log.WithFields(log.Fields{
		"definition": def.Name,
		"inventory":  def.Inventory,
		"accepts":    count,
		"hash":       hash,
		"distinct":   c.distinct,
	}).Debug("classified block definition")

	return fp
}

// Distinct is the number of distinct Fingerprints observed.
func (c *Classifier) Distinct() int { return c.distinct }

// Definitions is the number of memoized Definitions.
func (c *Classifier) Definitions() int { return len(c.byDefinition) }

var crcTable = crc64.MakeTable(crc64.ECMA)
