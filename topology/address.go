package topology

import (
	"fmt"

	"github.com/sarchlab/fattree/addressing"
)

// AssignAddresses gives every link its own IPv4 subnet. Core-aggregator
// links draw from coreAggregator and aggregator-edge links from
// aggregatorEdge; the same space may be passed for both. Links are visited in
// construction order and each one advances its space by exactly one subnet.
//
// Either every link gets an address or none does. On success the cursors of
// the spaces are left after the last subnet used, so the spaces can keep
// serving other topologies without overlap.
func (t *Topology) AssignAddresses(
	coreAggregator, aggregatorEdge *addressing.Space,
) error {
	return t.assign(addressing.IPv4, coreAggregator, aggregatorEdge)
}

// AssignIPv6Addresses is AssignAddresses for IPv6. The IPv4 and IPv6
// assignments of a topology are independent of each other.
func (t *Topology) AssignIPv6Addresses(
	coreAggregator, aggregatorEdge *addressing.Space,
) error {
	return t.assign(addressing.IPv6, coreAggregator, aggregatorEdge)
}

func (t *Topology) assign(
	family addressing.Family,
	caSpace, aeSpace *addressing.Space,
) error {
	if err := t.mustBeBuilt(); err != nil {
		return err
	}

	if t.interfaces[family] != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyAssigned, family)
	}

	if err := spacesMustMatchFamily(family, caSpace, aeSpace); err != nil {
		return err
	}

	caWork := caSpace.Clone()
	aeWork := caWork

	if aeSpace != caSpace {
		aeWork = aeSpace.Clone()
	}

	assigned := make([]LinkAddress, 0, len(t.links))

	for _, l := range t.links {
		space := aeWork
		if l.Kind == CoreAggregatorLink {
			space = caWork
		}

		la, err := assignLink(family, space, l)
		if err != nil {
			return err
		}

		assigned = append(assigned, la)
	}

	t.commitAddresses(family, assigned)

	caSpace.CopyFrom(caWork)
	if aeSpace != caSpace {
		aeSpace.CopyFrom(aeWork)
	}

	for _, la := range assigned {
		t.invokeHook(HookPosAddressAssigned, la, nil)
	}

	return nil
}

func spacesMustMatchFamily(
	family addressing.Family,
	spaces ...*addressing.Space,
) error {
	for _, s := range spaces {
		if s == nil {
			return fmt.Errorf("%w: address space is not set", ErrInvalidConfig)
		}

		if s.Family() != family {
			return fmt.Errorf("%w: %s space %s used for %s addresses",
				ErrInvalidConfig, s.Family(), s.Pool(), family)
		}
	}

	return nil
}

// assignLink gives one link one subnet. The space is advanced exactly once
// per successful assignment.
func assignLink(
	family addressing.Family,
	space *addressing.Space,
	l Link,
) (LinkAddress, error) {
	upper, lower, err := space.Assign(l.UpperDevice, l.LowerDevice)
	if err != nil {
		down, _ := l.Kind.Relations()

		return LinkAddress{}, &AssignmentError{
			Family:    family,
			Relation:  down,
			LinkIndex: l.Index,
			Upper:     l.Upper,
			Lower:     l.Lower,
			Err:       err,
		}
	}

	space.NewNetwork()

	return LinkAddress{Link: l, Family: family, Upper: upper, Lower: lower}, nil
}

func (t *Topology) commitAddresses(
	family addressing.Family,
	assigned []LinkAddress,
) {
	table := &interfaceTable{}
	for _, rel := range Relations() {
		rows := make([][]addressing.Interface, len(t.devices[rel]))
		for i := range rows {
			rows[i] = make([]addressing.Interface, len(t.devices[rel][i]))
		}

		table.rows[rel] = rows
	}

	for _, la := range assigned {
		l := la.Link
		down, up := l.Kind.Relations()

		table.rows[down][l.Upper][l.Lower] = la.Upper
		if l.Kind == AggregatorEdgeLink {
			table.rows[up][l.Upper][l.Lower] = la.Lower
		} else {
			table.rows[up][l.Lower][l.Upper] = la.Lower
		}

		l.UpperDevice.AddAddress(la.Upper.Address)
		l.LowerDevice.AddAddress(la.Lower.Address)
	}

	t.interfaces[family] = table
}
