package network

import (
	"net/netip"

	"github.com/sarchlab/fattree/naming"
	"github.com/sarchlab/fattree/timing"
)

// Device is one end of a point-to-point link.
type Device struct {
	naming.NamedBase

	id        string
	node      *Node
	channel   *Channel
	dataRate  timing.DataRate
	mtu       int
	addresses []netip.Prefix
}

// ID returns the unique ID of the device.
func (d *Device) ID() string {
	return d.id
}

// Node returns the node the device is attached to.
func (d *Device) Node() *Node {
	return d.node
}

// Channel returns the channel the device is connected to.
func (d *Device) Channel() *Channel {
	return d.channel
}

// Peer returns the device at the other end of the channel.
func (d *Device) Peer() *Device {
	if d.channel == nil {
		return nil
	}

	if d.channel.devices[0] == d {
		return d.channel.devices[1]
	}

	return d.channel.devices[0]
}

// DataRate returns the transmit rate of the device.
func (d *Device) DataRate() timing.DataRate {
	return d.dataRate
}

// MTU returns the maximum transmission unit of the device in bytes.
func (d *Device) MTU() int {
	return d.mtu
}

// Addresses returns the interface addresses configured on the device.
func (d *Device) Addresses() []netip.Prefix {
	addrs := make([]netip.Prefix, len(d.addresses))
	copy(addrs, d.addresses)

	return addrs
}

// AddAddress configures an interface address on the device.
func (d *Device) AddAddress(p netip.Prefix) {
	d.addresses = append(d.addresses, p)
}

// Channel is the medium between the two devices of a point-to-point link.
type Channel struct {
	id      string
	delay   timing.VTimeInSec
	devices [2]*Device
}

// ID returns the unique ID of the channel.
func (c *Channel) ID() string {
	return c.id
}

// Delay returns the propagation delay of the channel.
func (c *Channel) Delay() timing.VTimeInSec {
	return c.delay
}

// Devices returns the two devices connected by the channel.
func (c *Channel) Devices() [2]*Device {
	return c.devices
}
