package topology

import (
	"fmt"
	"net/netip"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/network"
)

// Count returns the number of nodes in a tier. For Edge it returns the number
// of edge nodes below each aggregator, which is the same for all of them.
func (t *Topology) Count(tier Tier) int {
	if t == nil {
		return 0
	}

	switch tier {
	case Core:
		return t.numCore
	case Aggregator:
		return t.numAggregator
	case Edge:
		return t.numEdge
	default:
		return 0
	}
}

// TotalEdgeCount returns the number of edge nodes in the whole tree.
func (t *Topology) TotalEdgeCount() int {
	return t.Count(Aggregator) * t.Count(Edge)
}

// NumNodes returns the number of nodes in the whole tree.
func (t *Topology) NumNodes() int {
	return t.Count(Core) + t.Count(Aggregator) + t.TotalEdgeCount()
}

// NumLinks returns the number of links in the whole tree.
func (t *Topology) NumLinks() int {
	if t == nil {
		return 0
	}

	return len(t.links)
}

// Links returns all the links in construction order.
func (t *Topology) Links() []Link {
	if t == nil {
		return nil
	}

	links := make([]Link, len(t.links))
	copy(links, t.links)

	return links
}

// Node returns the i-th node of the core or aggregator tier. Edge nodes are
// addressed with EdgeNode.
func (t *Topology) Node(tier Tier, i int) (*network.Node, error) {
	if err := t.mustBeBuilt(); err != nil {
		return nil, err
	}

	var nodes []*network.Node

	switch tier {
	case Core:
		nodes = t.core
	case Aggregator:
		nodes = t.aggregators
	case Edge:
		return nil, fmt.Errorf(
			"%w: edge nodes are addressed by aggregator and edge index",
			ErrInvalidTier)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidTier, tier)
	}

	if i < 0 || i >= len(nodes) {
		return nil, &IndexError{
			Container: tier.String(),
			Index:     []int{i},
			Bound:     []int{len(nodes)},
		}
	}

	return nodes[i], nil
}

// EdgeNode returns the k-th edge node of the given aggregator.
func (t *Topology) EdgeNode(aggregator, k int) (*network.Node, error) {
	if err := t.mustBeBuilt(); err != nil {
		return nil, err
	}

	if aggregator < 0 || aggregator >= t.numAggregator ||
		k < 0 || k >= t.numEdge {
		return nil, &IndexError{
			Container: Edge.String(),
			Index:     []int{aggregator, k},
			Bound:     []int{t.numAggregator, t.numEdge},
		}
	}

	return t.edges[aggregator][k], nil
}

// Nodes returns the nodes of a tier. Edge nodes are listed aggregator by
// aggregator.
func (t *Topology) Nodes(tier Tier) []*network.Node {
	if t.mustBeBuilt() != nil {
		return nil
	}

	var src []*network.Node

	switch tier {
	case Core:
		src = t.core
	case Aggregator:
		src = t.aggregators
	case Edge:
		src = make([]*network.Node, 0, t.TotalEdgeCount())
		for _, edges := range t.edges {
			src = append(src, edges...)
		}

		return src
	}

	nodes := make([]*network.Node, len(src))
	copy(nodes, src)

	return nodes
}

// EdgeNodes returns the edge nodes below one aggregator.
func (t *Topology) EdgeNodes(aggregator int) ([]*network.Node, error) {
	if err := t.mustBeBuilt(); err != nil {
		return nil, err
	}

	if aggregator < 0 || aggregator >= t.numAggregator {
		return nil, &IndexError{
			Container: Edge.String(),
			Index:     []int{aggregator},
			Bound:     []int{t.numAggregator},
		}
	}

	nodes := make([]*network.Node, len(t.edges[aggregator]))
	copy(nodes, t.edges[aggregator])

	return nodes, nil
}

// Shape returns the number of rows of a relation and the number of entries in
// each row.
func (t *Topology) Shape(rel Relation) (rows, cols int) {
	switch rel {
	case CoreToAggregator:
		return t.Count(Core), t.Count(Aggregator)
	case AggregatorToCore:
		return t.Count(Aggregator), t.Count(Core)
	case AggregatorToEdge, EdgeToAggregator:
		return t.Count(Aggregator), t.Count(Edge)
	default:
		return 0, 0
	}
}

func (t *Topology) checkIndex(rel Relation, i, j int) error {
	if err := t.mustBeBuilt(); err != nil {
		return err
	}

	if !rel.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRelation, rel)
	}

	rows, cols := t.Shape(rel)
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return &IndexError{
			Container: rel.String(),
			Index:     []int{i, j},
			Bound:     []int{rows, cols},
		}
	}

	return nil
}

// Device returns the device at position j of row i of a relation. For
// example, Device(CoreToAggregator, i, j) is the device of core i facing
// aggregator j, and its peer is Device(AggregatorToCore, j, i).
func (t *Topology) Device(rel Relation, i, j int) (*network.Device, error) {
	if err := t.checkIndex(rel, i, j); err != nil {
		return nil, err
	}

	return t.devices[rel][i][j], nil
}

// Interface returns the interface assigned to Device(rel, i, j) for the
// given address family.
func (t *Topology) Interface(
	family addressing.Family,
	rel Relation,
	i, j int,
) (addressing.Interface, error) {
	if err := t.checkIndex(rel, i, j); err != nil {
		return addressing.Interface{}, err
	}

	if family < 0 || int(family) >= numFamilies ||
		t.interfaces[family] == nil {
		return addressing.Interface{}, fmt.Errorf("%w: %s",
			ErrNotAssigned, family)
	}

	return t.interfaces[family].rows[rel][i][j], nil
}

// Address returns the IPv4 address of Device(rel, i, j).
func (t *Topology) Address(rel Relation, i, j int) (netip.Addr, error) {
	itf, err := t.Interface(addressing.IPv4, rel, i, j)
	if err != nil {
		return netip.Addr{}, err
	}

	return itf.Addr(), nil
}

// IPv6Address returns the IPv6 address of Device(rel, i, j).
func (t *Topology) IPv6Address(rel Relation, i, j int) (netip.Addr, error) {
	itf, err := t.Interface(addressing.IPv6, rel, i, j)
	if err != nil {
		return netip.Addr{}, err
	}

	return itf.Addr(), nil
}

// IsAssigned tells if addresses of the family have been assigned.
func (t *Topology) IsAssigned(family addressing.Family) bool {
	if t == nil || family < 0 || int(family) >= numFamilies {
		return false
	}

	return t.interfaces[family] != nil
}

// IsBuilt tells if the topology has been constructed.
func (t *Topology) IsBuilt() bool {
	return t.mustBeBuilt() == nil
}
