package topology

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/naming"
	"github.com/sarchlab/fattree/network"
)

// Builder can build fat-tree topologies.
type Builder struct {
	numCore       int
	numAggregator int
	numEdge       int

	coreAggregatorLink network.LinkProfile
	aggregatorEdgeLink network.LinkProfile

	nodeFactory network.NodeFactory
	linkFactory network.LinkFactory

	hooks []hooking.Hook
}

// MakeBuilder creates a builder with no nodes. The link profiles and the
// factories must be set before building.
func MakeBuilder() Builder {
	return Builder{}
}

// WithCoreCount sets the number of core nodes. Negative counts are taken as
// zero.
func (b Builder) WithCoreCount(n int) Builder {
	b.numCore = max(n, 0)
	return b
}

// WithAggregatorCount sets the number of aggregator nodes.
func (b Builder) WithAggregatorCount(n int) Builder {
	b.numAggregator = max(n, 0)
	return b
}

// WithEdgeNodesPerAggregator sets the number of edge nodes below each
// aggregator.
func (b Builder) WithEdgeNodesPerAggregator(n int) Builder {
	b.numEdge = max(n, 0)
	return b
}

// WithCoreAggregatorLink sets the profile of the links between core and
// aggregator nodes.
func (b Builder) WithCoreAggregatorLink(p network.LinkProfile) Builder {
	b.coreAggregatorLink = p
	return b
}

// WithAggregatorEdgeLink sets the profile of the links between aggregator and
// edge nodes.
func (b Builder) WithAggregatorEdgeLink(p network.LinkProfile) Builder {
	b.aggregatorEdgeLink = p
	return b
}

// WithNodeFactory sets the factory that creates the nodes.
func (b Builder) WithNodeFactory(f network.NodeFactory) Builder {
	b.nodeFactory = f
	return b
}

// WithLinkFactory sets the factory that creates the links.
func (b Builder) WithLinkFactory(f network.LinkFactory) Builder {
	b.linkFactory = f
	return b
}

// WithHook registers a hook on the topology before construction starts, so
// that it observes node and link creation.
func (b Builder) WithHook(h hooking.Hook) Builder {
	hooks := make([]hooking.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, h)

	return b
}

// Build creates the nodes and links of the fat-tree. The configuration is
// checked as a whole before any node is created.
//
// Aggregator-edge links are created first, aggregator by aggregator, each
// preceded by the creation of its edge node. Core-aggregator links follow,
// core by core. Addresses are later assigned in the same order.
//
// If the link factory fails, Build returns the error and no topology. The
// nodes and links created before the failure are not removed: they stay in
// the node and link factories, which own them.
func (b Builder) Build(name string) (*Topology, error) {
	if err := b.validate(name); err != nil {
		return nil, err
	}

	t := &Topology{
		NamedBase:     naming.MakeNamedBase(name),
		numCore:       b.numCore,
		numAggregator: b.numAggregator,
		numEdge:       b.numEdge,
	}

	for _, h := range b.hooks {
		t.AcceptHook(h)
	}

	t.allocateContainers()
	b.createNodes(t)

	if err := b.createAggregatorEdgeLinks(t); err != nil {
		return nil, err
	}

	if err := b.createCoreAggregatorLinks(t); err != nil {
		return nil, err
	}

	t.built = true

	return t, nil
}

func (b Builder) validate(name string) error {
	var err error

	if nameErr := naming.ValidateName(name); nameErr != nil {
		err = multierr.Append(err, nameErr)
	}

	if b.nodeFactory == nil {
		err = multierr.Append(err, fmt.Errorf("node factory is not set"))
	}

	if b.linkFactory == nil {
		err = multierr.Append(err, fmt.Errorf("link factory is not set"))
	}

	if pErr := b.coreAggregatorLink.Validate(); pErr != nil {
		err = multierr.Append(err,
			fmt.Errorf("core-aggregator link: %w", pErr))
	}

	if pErr := b.aggregatorEdgeLink.Validate(); pErr != nil {
		err = multierr.Append(err,
			fmt.Errorf("aggregator-edge link: %w", pErr))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (t *Topology) allocateContainers() {
	t.core = make([]*network.Node, 0, t.numCore)
	t.aggregators = make([]*network.Node, 0, t.numAggregator)
	t.edges = make([][]*network.Node, t.numAggregator)

	t.devices[CoreToAggregator] = makeDeviceRows(t.numCore, t.numAggregator)
	t.devices[AggregatorToCore] = makeDeviceRows(t.numAggregator, t.numCore)
	t.devices[AggregatorToEdge] = makeDeviceRows(t.numAggregator, t.numEdge)
	t.devices[EdgeToAggregator] = makeDeviceRows(t.numAggregator, t.numEdge)

	t.links = make([]Link, 0,
		t.numCore*t.numAggregator+t.numAggregator*t.numEdge)
}

func makeDeviceRows(rows, cols int) [][]*network.Device {
	r := make([][]*network.Device, rows)
	for i := range r {
		r[i] = make([]*network.Device, 0, cols)
	}

	return r
}

func (b Builder) createNodes(t *Topology) {
	for i := 0; i < t.numCore; i++ {
		n := b.nodeFactory.CreateNode(
			naming.BuildNameWithIndex(t.Name(), "Core", i))
		t.core = append(t.core, n)
		t.invokeHook(HookPosNodeCreated, n,
			NodeInfo{Tier: Core, Aggregator: -1, Index: i})
	}

	for i := 0; i < t.numAggregator; i++ {
		n := b.nodeFactory.CreateNode(
			naming.BuildNameWithIndex(t.Name(), "Aggregator", i))
		t.aggregators = append(t.aggregators, n)
		t.invokeHook(HookPosNodeCreated, n,
			NodeInfo{Tier: Aggregator, Aggregator: -1, Index: i})
	}
}

func (b Builder) createAggregatorEdgeLinks(t *Topology) error {
	for i := 0; i < t.numAggregator; i++ {
		t.edges[i] = make([]*network.Node, 0, t.numEdge)

		for k := 0; k < t.numEdge; k++ {
			edge := b.nodeFactory.CreateNode(
				naming.BuildNameWithMultiDimensionalIndex(
					t.Name(), "Edge", []int{i, k}))
			t.edges[i] = append(t.edges[i], edge)
			t.invokeHook(HookPosNodeCreated, edge,
				NodeInfo{Tier: Edge, Aggregator: i, Index: k})

			err := t.connect(b.linkFactory, AggregatorEdgeLink, i, k,
				t.aggregators[i], edge, b.aggregatorEdgeLink)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (b Builder) createCoreAggregatorLinks(t *Topology) error {
	for i := 0; i < t.numCore; i++ {
		for j := 0; j < t.numAggregator; j++ {
			err := t.connect(b.linkFactory, CoreAggregatorLink, i, j,
				t.core[i], t.aggregators[j], b.coreAggregatorLink)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// connect creates one link and records both of its devices. It is the only
// place that appends to the device containers, so the two sides of a link
// always land at matching positions.
func (t *Topology) connect(
	factory network.LinkFactory,
	kind LinkKind,
	upper, lower int,
	upperNode, lowerNode *network.Node,
	profile network.LinkProfile,
) error {
	upperDev, lowerDev, err := factory.CreateLink(upperNode, lowerNode, profile)
	if err == nil && (upperDev == nil || lowerDev == nil) {
		err = fmt.Errorf("link factory returned a nil device")
	}

	if err != nil {
		return &LinkError{Kind: kind, Upper: upper, Lower: lower, Err: err}
	}

	down, up := kind.Relations()
	upRow, upPos := lower, upper

	if kind == AggregatorEdgeLink {
		upRow, upPos = upper, lower
	}

	t.appendDevice(down, upper, lower, upperDev)
	t.appendDevice(up, upRow, upPos, lowerDev)

	l := Link{
		Kind:        kind,
		Index:       len(t.links),
		Upper:       upper,
		Lower:       lower,
		UpperDevice: upperDev,
		LowerDevice: lowerDev,
	}
	t.links = append(t.links, l)

	t.invokeHook(HookPosLinkCreated, l, nil)

	return nil
}

func (t *Topology) appendDevice(
	rel Relation,
	row, pos int,
	d *network.Device,
) {
	if len(t.devices[rel][row]) != pos {
		panic(fmt.Sprintf("%s[%d] expects position %d, got %d",
			rel, row, len(t.devices[rel][row]), pos))
	}

	t.devices[rel][row] = append(t.devices[rel][row], d)
}
