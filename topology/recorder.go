package topology

import (
	"slices"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/datarecording"
	"github.com/sarchlab/fattree/network"
)

// Names of the tables written by Record.
const (
	NodeTable      = "fattree_nodes"
	LinkTable      = "fattree_links"
	InterfaceTable = "fattree_interfaces"
)

// NodeEntry is a row of NodeTable.
type NodeEntry struct {
	Topology   string
	ID         string
	Name       string
	Tier       string
	Aggregator int
	Position   int
	Stack      string
}

// LinkEntry is a row of LinkTable.
type LinkEntry struct {
	Topology    string
	LinkIndex   int
	Kind        string
	Upper       int
	Lower       int
	UpperDevice string
	LowerDevice string
	DataRate    uint64
	Delay       float64
}

// InterfaceEntry is a row of InterfaceTable.
type InterfaceEntry struct {
	Topology string
	Family   string
	Relation string
	Row      int
	Position int
	Device   string
	Address  string
	Subnet   string
}

// Record writes the nodes, links, and assigned interfaces of the topology to
// the recorder and flushes it. Several topologies can be recorded into the
// same recorder.
func Record(t *Topology, recorder datarecording.DataRecorder) error {
	if err := t.mustBeBuilt(); err != nil {
		return err
	}

	createTables(recorder)

	t.recordNodes(recorder)
	t.recordLinks(recorder)

	for _, family := range []addressing.Family{addressing.IPv4, addressing.IPv6} {
		if t.IsAssigned(family) {
			t.recordInterfaces(recorder, family)
		}
	}

	recorder.Flush()

	return nil
}

func createTables(recorder datarecording.DataRecorder) {
	existing := recorder.ListTables()

	tables := []struct {
		name   string
		sample any
	}{
		{NodeTable, NodeEntry{}},
		{LinkTable, LinkEntry{}},
		{InterfaceTable, InterfaceEntry{}},
	}

	for _, tbl := range tables {
		if !slices.Contains(existing, tbl.name) {
			recorder.CreateTable(tbl.name, tbl.sample)
		}
	}
}

func (t *Topology) recordNodes(recorder datarecording.DataRecorder) {
	for i, n := range t.core {
		recorder.InsertData(NodeTable, t.nodeEntry(n, Core, -1, i))
	}

	for i, n := range t.aggregators {
		recorder.InsertData(NodeTable, t.nodeEntry(n, Aggregator, -1, i))
	}

	for i, edges := range t.edges {
		for k, n := range edges {
			recorder.InsertData(NodeTable, t.nodeEntry(n, Edge, i, k))
		}
	}
}

func (t *Topology) nodeEntry(
	n *network.Node,
	tier Tier,
	aggregator, index int,
) NodeEntry {
	stack := ""
	if st, ok := n.Stack(); ok {
		stack = st.Name
	}

	return NodeEntry{
		Topology:   t.Name(),
		ID:         n.ID(),
		Name:       n.Name(),
		Tier:       tier.String(),
		Aggregator: aggregator,
		Position:   index,
		Stack:      stack,
	}
}

func (t *Topology) recordLinks(recorder datarecording.DataRecorder) {
	for _, l := range t.links {
		entry := LinkEntry{
			Topology:    t.Name(),
			LinkIndex:   l.Index,
			Kind:        l.Kind.String(),
			Upper:       l.Upper,
			Lower:       l.Lower,
			UpperDevice: l.UpperDevice.Name(),
			LowerDevice: l.LowerDevice.Name(),
			DataRate:    uint64(l.UpperDevice.DataRate()),
		}

		if ch := l.UpperDevice.Channel(); ch != nil {
			entry.Delay = ch.Delay()
		}

		recorder.InsertData(LinkTable, entry)
	}
}

func (t *Topology) recordInterfaces(
	recorder datarecording.DataRecorder,
	family addressing.Family,
) {
	table := t.interfaces[family]

	for _, rel := range Relations() {
		for i, row := range table.rows[rel] {
			for j, itf := range row {
				recorder.InsertData(InterfaceTable, InterfaceEntry{
					Topology: t.Name(),
					Family:   family.String(),
					Relation: rel.String(),
					Row:      i,
					Position: j,
					Device:   itf.Device.Name(),
					Address:  itf.Address.String(),
					Subnet:   itf.Subnet().String(),
				})
			}
		}
	}
}
