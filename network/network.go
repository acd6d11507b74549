// Package network provides the nodes, devices, and channels that a topology
// is made of, together with the factories and installers that create them.
//
// The topology package only indexes these objects. Their lifetime belongs to
// the Network that created the nodes.
package network

import (
	"errors"

	"github.com/sarchlab/fattree/id"
	"github.com/sarchlab/fattree/naming"
)

// Errors returned by the default collaborators.
var (
	ErrNilNode        = errors.New("node is nil")
	ErrSelfLink       = errors.New("cannot link a node to itself")
	ErrInvalidProfile = errors.New("invalid link profile")
	ErrStackInstalled = errors.New("protocol stack already installed")
	ErrEmptyStack     = errors.New("protocol stack enables no address family")
)

// NodeFactory creates nodes.
type NodeFactory interface {
	CreateNode(name string) *Node
}

// LinkFactory connects two nodes with a point-to-point link and returns the
// device created on each side, in argument order.
type LinkFactory interface {
	CreateLink(a, b *Node, profile LinkProfile) (*Device, *Device, error)
}

// StackInstaller installs a protocol stack on nodes.
type StackInstaller interface {
	Install(nodes ...*Node) error
}

// Network owns the nodes of a simulation.
type Network struct {
	idGen id.IDGenerator
	nodes []*Node
	byID  map[string]*Node
}

// NewNetwork creates an empty Network that hands out sequential IDs.
func NewNetwork() *Network {
	return &Network{
		idGen: id.NewIDGenerator(),
		byID:  make(map[string]*Node),
	}
}

// WithIDGenerator sets the generator used for node IDs.
func (n *Network) WithIDGenerator(g id.IDGenerator) *Network {
	n.idGen = g
	return n
}

// IDGenerator returns the generator used for node IDs.
func (n *Network) IDGenerator() id.IDGenerator {
	return n.idGen
}

// CreateNode creates a node and registers it with the network. It panics if
// the name does not follow the hierarchical naming convention.
func (n *Network) CreateNode(name string) *Node {
	node := &Node{
		NamedBase: naming.MakeNamedBase(name),
		id:        n.idGen.Generate(),
	}

	n.nodes = append(n.nodes, node)
	n.byID[node.id] = node

	return node
}

// Nodes returns all the nodes in creation order.
func (n *Network) Nodes() []*Node {
	nodes := make([]*Node, len(n.nodes))
	copy(nodes, n.nodes)

	return nodes
}

// NumNodes returns the number of nodes created.
func (n *Network) NumNodes() int {
	return len(n.nodes)
}

// Node looks up a node by its ID.
func (n *Network) Node(nodeID string) (*Node, bool) {
	node, found := n.byID[nodeID]
	return node, found
}
