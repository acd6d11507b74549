// Package addressing hands out one disjoint subnet per point-to-point link
// and the two host addresses used on it.
//
// A Space owns its cursor. Nothing is kept at package level, so any number
// of topologies can be addressed in the same process.
package addressing

import (
	"errors"
	"fmt"
	"math"
	"net/netip"

	"go4.org/netipx"

	"github.com/sarchlab/fattree/network"
)

// Errors reported by a Space.
var (
	ErrInvalidSpace = errors.New("invalid address space")
	ErrExhausted    = errors.New("address space exhausted")
	ErrSubnetInUse  = errors.New("subnet already assigned to a link")
	ErrNoStack      = errors.New("node has no protocol stack for the address family")
	ErrNilDevice    = errors.New("device is nil")
)

// Family is an IP address family.
type Family int

// The supported address families.
const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Interface is an address configured on a device.
type Interface struct {
	Device  *network.Device
	Address netip.Prefix
}

// Addr returns the host address of the interface.
func (i Interface) Addr() netip.Addr {
	return i.Address.Addr()
}

// Subnet returns the network the interface belongs to.
func (i Interface) Subnet() netip.Prefix {
	return i.Address.Masked()
}

// Option configures a Space.
type Option func(*Space)

// WithMaxSubnets limits the number of subnets the space can hand out.
func WithMaxSubnets(n uint64) Option {
	return func(s *Space) {
		if n < s.limit {
			s.limit = n
		}
	}
}

// Space walks consecutive subnets of a fixed length inside a pool.
type Space struct {
	pool         netip.Prefix
	subnetLength int
	family       Family

	limit   uint64
	index   uint64
	cursor  netip.Prefix
	inUse   bool
	granted uint64

	allocated netipx.IPSetBuilder
}

// NewSpace creates a Space that hands out /subnetLength networks from pool,
// starting at the first one.
func NewSpace(
	pool netip.Prefix,
	subnetLength int,
	opts ...Option,
) (*Space, error) {
	if !pool.IsValid() {
		return nil, fmt.Errorf("%w: pool is not a valid prefix", ErrInvalidSpace)
	}

	pool = pool.Masked()
	bitLen := pool.Addr().BitLen()

	if subnetLength < pool.Bits() {
		return nil, fmt.Errorf("%w: subnet /%d is larger than pool %s",
			ErrInvalidSpace, subnetLength, pool)
	}

	if subnetLength > bitLen-2 {
		return nil, fmt.Errorf("%w: subnet /%d cannot hold two hosts",
			ErrInvalidSpace, subnetLength)
	}

	s := &Space{
		pool:         pool,
		subnetLength: subnetLength,
		family:       IPv4,
		limit:        subnetCount(subnetLength - pool.Bits()),
		cursor:       netip.PrefixFrom(pool.Addr(), subnetLength),
	}

	if pool.Addr().Is6() {
		s.family = IPv6
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// MustParseSpace is NewSpace with a textual pool. It panics on error.
func MustParseSpace(pool string, subnetLength int, opts ...Option) *Space {
	s, err := NewSpace(netip.MustParsePrefix(pool), subnetLength, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

func subnetCount(hostBits int) uint64 {
	if hostBits >= 64 {
		return math.MaxUint64
	}

	return 1 << hostBits
}

// Family returns the address family of the space.
func (s *Space) Family() Family {
	return s.family
}

// Pool returns the prefix the subnets are taken from.
func (s *Space) Pool() netip.Prefix {
	return s.pool
}

// SubnetLength returns the prefix length of every subnet handed out.
func (s *Space) SubnetLength() int {
	return s.subnetLength
}

// Capacity returns the number of subnets the space can hand out in total.
func (s *Space) Capacity() uint64 {
	return s.limit
}

// Allocated returns the number of subnets given to links so far.
func (s *Space) Allocated() uint64 {
	return s.granted
}

// Exhausted tells if the cursor has moved past the last subnet.
func (s *Space) Exhausted() bool {
	return s.index >= s.limit
}

// Subnet returns the subnet under the cursor.
func (s *Space) Subnet() netip.Prefix {
	return s.cursor
}

// AllocatedSet returns all the addresses covered by the subnets given out.
func (s *Space) AllocatedSet() (*netipx.IPSet, error) {
	return s.allocated.IPSet()
}

// Assign returns the first two host addresses of the current subnet for
// devices a and b. It neither advances the cursor nor configures the
// devices. A subnet can be assigned only once.
func (s *Space) Assign(a, b *network.Device) (Interface, Interface, error) {
	if a == nil || b == nil {
		return Interface{}, Interface{}, ErrNilDevice
	}

	if s.Exhausted() {
		return Interface{}, Interface{}, fmt.Errorf(
			"%w: %d subnets of /%d in %s already used",
			ErrExhausted, s.index, s.subnetLength, s.pool)
	}

	if s.inUse {
		return Interface{}, Interface{}, fmt.Errorf("%w: %s",
			ErrSubnetInUse, s.cursor)
	}

	for _, d := range []*network.Device{a, b} {
		if err := s.stackMustSupportFamily(d); err != nil {
			return Interface{}, Interface{}, err
		}
	}

	hostA := s.cursor.Addr().Next()
	hostB := hostA.Next()

	s.inUse = true
	s.granted++
	s.allocated.AddPrefix(s.cursor)

	return Interface{Device: a, Address: netip.PrefixFrom(hostA, s.subnetLength)},
		Interface{Device: b, Address: netip.PrefixFrom(hostB, s.subnetLength)},
		nil
}

func (s *Space) stackMustSupportFamily(d *network.Device) error {
	n := d.Node()
	if n == nil {
		return fmt.Errorf("%w: device %s is detached", ErrNoStack, d.Name())
	}

	st, ok := n.Stack()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoStack, n.Name())
	}

	if (s.family == IPv4 && !st.IPv4) || (s.family == IPv6 && !st.IPv6) {
		return fmt.Errorf("%w: %s has no %s", ErrNoStack, n.Name(), s.family)
	}

	return nil
}

// NewNetwork moves the cursor to the next subnet.
func (s *Space) NewNetwork() {
	if s.Exhausted() {
		return
	}

	s.index++
	s.inUse = false

	if s.Exhausted() {
		return
	}

	next := netipx.PrefixLastIP(s.cursor).Next()
	if !next.IsValid() || !s.pool.Contains(next) {
		s.index = s.limit
		return
	}

	s.cursor = netip.PrefixFrom(next, s.subnetLength)
}

// Clone returns an independent copy of the space, cursor included.
func (s *Space) Clone() *Space {
	c := &Space{
		pool:         s.pool,
		subnetLength: s.subnetLength,
		family:       s.family,
		limit:        s.limit,
		index:        s.index,
		cursor:       s.cursor,
		inUse:        s.inUse,
		granted:      s.granted,
	}

	if set, err := s.allocated.IPSet(); err == nil {
		c.allocated.AddSet(set)
	}

	return c
}

// CopyFrom overwrites the state of s with the state of other.
func (s *Space) CopyFrom(other *Space) {
	c := other.Clone()
	*s = *c
}

func (s *Space) String() string {
	return fmt.Sprintf("%s/%d@%s", s.pool, s.subnetLength, s.cursor)
}
