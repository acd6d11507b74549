package network

import (
	"github.com/sarchlab/fattree/naming"
)

// Node is an endpoint of the simulated network. Nodes carry devices, one per
// attached link, and at most one protocol stack.
type Node struct {
	naming.NamedBase

	id      string
	devices []*Device
	stack   *Stack
}

// ID returns the unique ID of the node.
func (n *Node) ID() string {
	return n.id
}

// Devices returns the devices attached to the node in attachment order.
func (n *Node) Devices() []*Device {
	devices := make([]*Device, len(n.devices))
	copy(devices, n.devices)

	return devices
}

// NumDevices returns the number of devices attached to the node.
func (n *Node) NumDevices() int {
	return len(n.devices)
}

// Stack returns the installed protocol stack.
func (n *Node) Stack() (Stack, bool) {
	if n.stack == nil {
		return Stack{}, false
	}

	return *n.stack, true
}

func (n *Node) attach(d *Device) {
	n.devices = append(n.devices, d)
}
