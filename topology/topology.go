// Package topology builds a three-tier fat-tree of core, aggregator, and
// edge nodes, installs protocol stacks on it, assigns one subnet per link,
// and answers read-only queries about the result.
//
// A Topology is set up once, by a single goroutine, in the order Build,
// InstallStacks, AssignAddresses. After that it is never mutated and its
// accessors can be called from any number of goroutines.
package topology

import (
	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/naming"
	"github.com/sarchlab/fattree/network"
)

// HookPosNodeCreated is triggered after a node is created. The item is the
// node and the detail is a NodeInfo.
var HookPosNodeCreated = &hooking.HookPos{Name: "NodeCreated"}

// HookPosLinkCreated is triggered after a link is created. The item is the
// Link.
var HookPosLinkCreated = &hooking.HookPos{Name: "LinkCreated"}

// HookPosStackInstalled is triggered after a stack is installed on a group
// of nodes. The item is the node slice and the detail is a StackGroup.
var HookPosStackInstalled = &hooking.HookPos{Name: "StackInstalled"}

// HookPosAddressAssigned is triggered once per link after all the links of
// an address family are assigned. The item is a LinkAddress.
var HookPosAddressAssigned = &hooking.HookPos{Name: "AddressAssigned"}

// NodeInfo locates a node in the tree. Aggregator is only meaningful for
// edge nodes.
type NodeInfo struct {
	Tier       Tier
	Aggregator int
	Index      int
}

// StackGroup identifies the nodes a stack was installed on in one call.
// Aggregator is -1 for the core and aggregator tiers.
type StackGroup struct {
	Tier       Tier
	Aggregator int
}

// Link is one point-to-point connection between adjacent tiers. For a
// core-aggregator link Upper is the core index and Lower the aggregator
// index. For an aggregator-edge link Upper is the aggregator index and Lower
// the edge index local to that aggregator.
type Link struct {
	Kind        LinkKind
	Index       int
	Upper       int
	Lower       int
	UpperDevice *network.Device
	LowerDevice *network.Device
}

// LinkAddress is the pair of interfaces assigned to a link.
type LinkAddress struct {
	Link   Link
	Family addressing.Family
	Upper  addressing.Interface
	Lower  addressing.Interface
}

const numFamilies = 2

// Topology is a fat-tree. Create it with a Builder.
type Topology struct {
	naming.NamedBase
	hooking.HookableBase

	built bool

	numCore       int
	numAggregator int
	numEdge       int

	core        []*network.Node
	aggregators []*network.Node
	edges       [][]*network.Node

	devices [numRelations][][]*network.Device
	links   []Link

	interfaces [numFamilies]*interfaceTable
}

type interfaceTable struct {
	rows [numRelations][][]addressing.Interface
}

func (t *Topology) mustBeBuilt() error {
	if t == nil || !t.built {
		return ErrNotBuilt
	}

	return nil
}

func (t *Topology) invokeHook(pos *hooking.HookPos, item, detail any) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
