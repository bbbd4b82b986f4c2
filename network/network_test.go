package network

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"go.ballast.dev/core/fingerprint"
	"go.ballast.dev/core/host"
	"go.ballast.dev/core/host/hosttest"
	"go.ballast.dev/core/registry"
	gc "gopkg.in/check.v1"
)

type NetworkSuite struct{}

func (s *NetworkSuite) TestSharedFingerprintAcrossDefinitions(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	w.AddBlock(cargo(1, "Small", "main"))
	w.AddBlock(cargo(2, "Large", "main"))
	w.AddBlock(cargo(3, "Large", "other"))

	var set = discover(c, w)
	// Definitions differ, but their probes are identical.
	c.Check(set.Nodes[0].Fingerprint == set.Nodes[1].Fingerprint, gc.Equals, true)

	var nets = Partition(set.Nodes, nil, Options{FirstID: 7})
	c.Check(describe(nets), gc.DeepEquals, []string{"7:1,2", "8:3"})
}

func (s *NetworkSuite) TestFingerprintMismatchSplits(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	w.AddBlock(cargo(1, "Large", "main"))
	var picky = cargo(2, "Picky", "main")
	picky.Inventories[0].Accepts = []string{"Ore/Ice"}
	w.AddBlock(picky)
	w.AddBlock(cargo(3, "Large", "main"))

	var nets = Partition(discover(c, w).Nodes, nil, Options{})
	c.Check(describe(nets), gc.DeepEquals, []string{"0:1,3", "1:2"})
}

func (s *NetworkSuite) TestIgnoreFingerprint(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	w.AddBlock(cargo(1, "Large", "main"))
	var picky = cargo(2, "Picky", "main")
	picky.Inventories[0].Accepts = []string{"Ore/Ice"}
	w.AddBlock(picky)
	w.AddBlock(cargo(3, "Large", "other"))

	var nets = Partition(discover(c, w).Nodes, nil, Options{IgnoreFingerprint: true})
	c.Check(describe(nets), gc.DeepEquals, []string{"0:1,2", "1:3"})
}

func (s *NetworkSuite) TestCategoryIsolationAndGroups(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	var container = cargo(1, "Universal", "main")
	container.Name = "Cargo [g]"
	var reactor = cargo(2, "Universal", "main")
	reactor.Name, reactor.Type, reactor.Conveyor = "Reactor [g]", host.TypeReactor, true
	w.AddBlock(container)
	w.AddBlock(reactor)

	var set = discover(c, w)
	c.Assert(set.Nodes, gc.HasLen, 2)
	c.Check(set.Nodes[0].Fingerprint == set.Nodes[1].Fingerprint, gc.Equals, true)

	// The categorized pass partitions one kind at a time, and never combines kinds.
	for _, kind := range registry.Kinds {
		for _, net := range Partition(set.OfKind(kind), nil, Options{}) {
			c.Check(net.Nodes, gc.HasLen, 1)
		}
	}
	// An explicit group may combine them.
	var nets = Partition(set.Groups()["g"], nil, Options{})
	c.Check(describe(nets), gc.DeepEquals, []string{"0:1,2"})

	// Nodes claimed by a group are excluded from the categorized pass.
	var claimed = func(n *registry.Node) bool { return n.Group != "" }
	c.Check(Partition(set.OfKind(registry.BulkStore), claimed, Options{}), gc.HasLen, 0)
}

func (s *NetworkSuite) TestNonTransitiveConnectivity(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	var a = w.AddBlock(cargo(1, "Large", ""))
	var b = w.AddBlock(cargo(2, "Large", ""))
	var d = w.AddBlock(cargo(3, "Large", ""))
	// A <-> B <-> C, but not A <-> C.
	w.Link(a.Inv(0), b.Inv(0))
	w.Link(b.Inv(0), d.Inv(0))

	var nodes = discover(c, w).Nodes

	// Comparing against only the representative strands C.
	c.Check(describe(Partition(nodes, nil, Options{})), gc.DeepEquals,
		[]string{"0:1,2", "1:3"})
	// Exhaustive comparison reaches C through B.
	c.Check(describe(Partition(nodes, nil, Options{Exhaustive: true})), gc.DeepEquals,
		[]string{"0:1,2,3"})

	// With C ordered before B, B joins A and C remains a singleton when
	// comparing against representatives. Exhaustive comparison merges the
	// Networks which B bridges.
	var reordered = []*registry.Node{nodes[0], nodes[2], nodes[1]}
	c.Check(describe(Partition(reordered, nil, Options{})), gc.DeepEquals,
		[]string{"0:1,2", "1:3"})
	c.Check(describe(Partition(reordered, nil, Options{Exhaustive: true})), gc.DeepEquals,
		[]string{"0:1,2,3"})
}

func (s *NetworkSuite) TestBridgingNodeMergesNetworks(c *gc.C) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	var a = w.AddBlock(cargo(1, "Large", ""))
	var b = w.AddBlock(cargo(2, "Large", ""))
	var d = w.AddBlock(cargo(3, "Large", ""))
	w.AddBlock(cargo(4, "Large", ""))
	// A <-> B <-> C. D is isolated.
	w.Link(a.Inv(0), b.Inv(0))
	w.Link(b.Inv(0), d.Inv(0))

	var nodes = discover(c, w).Nodes
	// A, C and D each begin a Network before B bridges the first two.
	var ordered = []*registry.Node{nodes[0], nodes[2], nodes[3], nodes[1]}

	c.Check(describe(Partition(ordered, nil, Options{FirstID: 5, Exhaustive: true})), gc.DeepEquals,
		[]string{"5:1,2,3", "6:4"})
	c.Check(describe(Partition(ordered, nil, Options{FirstID: 5})), gc.DeepEquals,
		[]string{"5:1,2", "6:3", "7:4"})
}

func cargo(id int64, def, port string) hosttest.BlockSpec {
	return hosttest.BlockSpec{
		ID:          id,
		Name:        "Cargo",
		Type:        host.TypeCargoContainer,
		Definition:  def,
		Grid:        "Station",
		Inventories: []hosttest.InventorySpec{{Max: 10, Port: port}},
	}
}

type bracketMatcher struct{}

func (bracketMatcher) Group(name string) string {
	var l, r = strings.IndexByte(name, '['), strings.IndexByte(name, ']')
	if l == -1 || r < l {
		return ""
	}
	return name[l+1 : r]
}

func discover(c *gc.C, w *hosttest.World) *registry.NodeSet {
	var r = registry.New(fingerprint.NewClassifier(w.Catalog))
	r.Matcher = bracketMatcher{}

	var set, err = r.Discover(registry.DiscoverArgs{Host: w})
	c.Assert(err, gc.IsNil)
	return set
}

func describe(nets []*Network) []string {
	var out []string
	for _, net := range nets {
		var ids []string
		for _, n := range net.Nodes {
			ids = append(ids, strconv.FormatInt(int64(n.ID), 10))
		}
		out = append(out, fmt.Sprintf("%d:%s", net.ID, strings.Join(ids, ",")))
	}
	return out
}

var _ = gc.Suite(&NetworkSuite{})

func Test(t *testing.T) { gc.TestingT(t) }
