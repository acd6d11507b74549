package network

import (
	"fmt"

	"github.com/sarchlab/fattree/id"
	"github.com/sarchlab/fattree/naming"
	"github.com/sarchlab/fattree/timing"
)

// DefaultMTU is used when a LinkProfile does not set one.
const DefaultMTU = 1500

const minMTU = 68

// LinkProfile configures the devices and channel of a point-to-point link.
type LinkProfile struct {
	DataRate timing.DataRate
	Delay    timing.VTimeInSec
	MTU      int
}

// ParseLinkProfile builds a profile from strings such as "5Mbps" and "2ms".
func ParseLinkProfile(dataRate, delay string) (LinkProfile, error) {
	rate, err := timing.ParseDataRate(dataRate)
	if err != nil {
		return LinkProfile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	d, err := timing.ParseTime(delay)
	if err != nil {
		return LinkProfile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	p := LinkProfile{DataRate: rate, Delay: d}

	return p, p.Validate()
}

// Validate reports whether the profile can be used to create links. A zero
// profile is not valid.
func (p LinkProfile) Validate() error {
	if p.DataRate == 0 {
		return fmt.Errorf("%w: data rate must be positive", ErrInvalidProfile)
	}

	if p.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidProfile)
	}

	if p.MTU != 0 && p.MTU < minMTU {
		return fmt.Errorf("%w: MTU %d is below %d",
			ErrInvalidProfile, p.MTU, minMTU)
	}

	return nil
}

func (p LinkProfile) mtu() int {
	if p.MTU == 0 {
		return DefaultMTU
	}

	return p.MTU
}

func (p LinkProfile) String() string {
	return fmt.Sprintf("%s/%gs", p.DataRate, p.Delay)
}

// PointToPoint is a LinkFactory that creates one channel and two devices per
// link.
type PointToPoint struct {
	idGen    id.IDGenerator
	channels []*Channel
}

// NewPointToPoint creates a PointToPoint link factory.
func NewPointToPoint() *PointToPoint {
	return &PointToPoint{idGen: id.NewIDGenerator()}
}

// WithIDGenerator sets the generator used for device and channel IDs.
func (p *PointToPoint) WithIDGenerator(g id.IDGenerator) *PointToPoint {
	p.idGen = g
	return p
}

// CreateLink connects a and b. The returned devices are attached to a and b
// respectively.
func (p *PointToPoint) CreateLink(
	a, b *Node,
	profile LinkProfile,
) (*Device, *Device, error) {
	if a == nil || b == nil {
		return nil, nil, ErrNilNode
	}

	if a == b {
		return nil, nil, fmt.Errorf("%w: %s", ErrSelfLink, a.Name())
	}

	if err := profile.Validate(); err != nil {
		return nil, nil, err
	}

	ch := &Channel{
		id:    p.idGen.Generate(),
		delay: profile.Delay,
	}

	devA := p.newDevice(a, ch, profile)
	devB := p.newDevice(b, ch, profile)
	ch.devices = [2]*Device{devA, devB}

	p.channels = append(p.channels, ch)

	return devA, devB, nil
}

func (p *PointToPoint) newDevice(
	n *Node,
	ch *Channel,
	profile LinkProfile,
) *Device {
	d := &Device{
		NamedBase: naming.MakeNamedBase(
			naming.BuildNameWithIndex(n.Name(), "Port", n.NumDevices())),
		id:       p.idGen.Generate(),
		node:     n,
		channel:  ch,
		dataRate: profile.DataRate,
		mtu:      profile.mtu(),
	}

	n.attach(d)

	return d
}

// NumChannels returns the number of links created.
func (p *PointToPoint) NumChannels() int {
	return len(p.channels)
}
