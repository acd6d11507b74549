package topology

import (
	"errors"
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/network"
)

var _ = Describe("AssignAddresses", func() {
	var (
		f       *fixture
		t       *Topology
		caSpace *addressing.Space
		aeSpace *addressing.Space
	)

	BeforeEach(func() {
		f = newFixture()
		t = f.build(3, 4, 3)
		caSpace = addressing.MustParseSpace("10.1.0.0/16", 24)
		aeSpace = addressing.MustParseSpace("10.2.0.0/16", 24)
	})

	Context("with stacks installed", func() {
		BeforeEach(func() {
			stack := network.NewInternetStack().WithIPv6(true)
			Expect(t.InstallStacks(stack)).To(Succeed())
		})

		It("should give every link its own subnet", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())
			Expect(t.IsAssigned(addressing.IPv4)).To(BeTrue())

			subnets := map[netip.Prefix]bool{}
			for _, rel := range []Relation{CoreToAggregator, AggregatorToEdge} {
				rows, cols := t.Shape(rel)
				for i := 0; i < rows; i++ {
					for j := 0; j < cols; j++ {
						itf, err := t.Interface(addressing.IPv4, rel, i, j)
						Expect(err).NotTo(HaveOccurred())
						subnets[itf.Subnet()] = true
					}
				}
			}

			Expect(subnets).To(HaveLen(24))
		})

		It("should put both ends of a link in one subnet", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			for i := 0; i < 3; i++ {
				for j := 0; j < 4; j++ {
					down, err := t.Interface(addressing.IPv4, CoreToAggregator, i, j)
					Expect(err).NotTo(HaveOccurred())
					up, err := t.Interface(addressing.IPv4, AggregatorToCore, j, i)
					Expect(err).NotTo(HaveOccurred())

					Expect(down.Subnet()).To(Equal(up.Subnet()))
					Expect(down.Addr()).NotTo(Equal(up.Addr()))
					Expect(down.Device.Peer()).To(BeIdenticalTo(up.Device))
				}
			}
		})

		It("should walk the spaces in construction order", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			expectAddress(t, AggregatorToEdge, 0, 0, "10.2.0.1")
			expectAddress(t, EdgeToAggregator, 0, 0, "10.2.0.2")
			expectAddress(t, AggregatorToEdge, 3, 2, "10.2.11.1")
			expectAddress(t, EdgeToAggregator, 1, 1, "10.2.4.2")
			expectAddress(t, CoreToAggregator, 0, 0, "10.1.0.1")
			expectAddress(t, CoreToAggregator, 1, 2, "10.1.6.1")
			expectAddress(t, AggregatorToCore, 2, 1, "10.1.6.2")
			expectAddress(t, AggregatorToCore, 3, 2, "10.1.11.2")
		})

		It("should configure the devices", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			d, _ := t.Device(CoreToAggregator, 1, 2)
			Expect(d.Addresses()).To(ConsistOf(
				netip.MustParsePrefix("10.1.6.1/24")))

			d, _ = t.Device(EdgeToAggregator, 0, 0)
			Expect(d.Addresses()).To(ConsistOf(
				netip.MustParsePrefix("10.2.0.2/24")))
		})

		It("should leave the spaces after the last subnet used", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			Expect(caSpace.Allocated()).To(Equal(uint64(12)))
			Expect(caSpace.Subnet()).
				To(Equal(netip.MustParsePrefix("10.1.12.0/24")))
			Expect(aeSpace.Allocated()).To(Equal(uint64(12)))

			other := newFixture()
			t2 := other.build(1, 1, 1)
			Expect(t2.InstallStacks(network.NewInternetStack())).To(Succeed())
			Expect(t2.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			expectAddress(t2, CoreToAggregator, 0, 0, "10.1.12.1")
			expectAddress(t2, AggregatorToEdge, 0, 0, "10.2.12.1")
		})

		It("should share one space between both link kinds", func() {
			Expect(t.AssignAddresses(caSpace, caSpace)).To(Succeed())

			expectAddress(t, AggregatorToEdge, 0, 0, "10.1.0.1")
			expectAddress(t, AggregatorToEdge, 3, 2, "10.1.11.1")
			expectAddress(t, CoreToAggregator, 0, 0, "10.1.12.1")
			expectAddress(t, CoreToAggregator, 2, 3, "10.1.23.1")
			Expect(caSpace.Allocated()).To(Equal(uint64(24)))
		})

		It("should assign nothing when a space runs out", func() {
			small := addressing.MustParseSpace("10.2.0.0/16", 24,
				addressing.WithMaxSubnets(10))

			err := t.AssignAddresses(caSpace, small)

			Expect(errors.Is(err, addressing.ErrExhausted)).To(BeTrue())

			var assignErr *AssignmentError
			Expect(errors.As(err, &assignErr)).To(BeTrue())
			Expect(assignErr.LinkIndex).To(Equal(10))
			Expect(assignErr.Relation).To(Equal(AggregatorToEdge))
			Expect(assignErr.Upper).To(Equal(3))
			Expect(assignErr.Lower).To(Equal(1))

			Expect(t.IsAssigned(addressing.IPv4)).To(BeFalse())
			_, err = t.Address(AggregatorToEdge, 0, 0)
			Expect(errors.Is(err, ErrNotAssigned)).To(BeTrue())

			for _, l := range t.Links() {
				Expect(l.UpperDevice.Addresses()).To(BeEmpty())
				Expect(l.LowerDevice.Addresses()).To(BeEmpty())
			}

			Expect(small.Allocated()).To(Equal(uint64(0)))
			Expect(caSpace.Allocated()).To(Equal(uint64(0)))
		})

		It("should allow a retry after running out", func() {
			small := addressing.MustParseSpace("10.2.0.0/28", 30)

			Expect(t.AssignAddresses(caSpace, small)).NotTo(Succeed())
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())
			expectAddress(t, AggregatorToEdge, 0, 0, "10.2.0.1")
		})

		It("should not assign the same family twice", func() {
			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			err := t.AssignAddresses(caSpace, aeSpace)
			Expect(errors.Is(err, ErrAlreadyAssigned)).To(BeTrue())
			Expect(caSpace.Allocated()).To(Equal(uint64(12)))
		})

		It("should reject a space of the other family", func() {
			v6 := addressing.MustParseSpace("2001:db8::/48", 64)

			err := t.AssignAddresses(v6, aeSpace)
			Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())

			err = t.AssignAddresses(caSpace, nil)
			Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
		})

		It("should assign IPv6 independently of IPv4", func() {
			ca6 := addressing.MustParseSpace("2001:db8:1::/48", 64)
			ae6 := addressing.MustParseSpace("2001:db8:2::/48", 64)

			Expect(t.AssignIPv6Addresses(ca6, ae6)).To(Succeed())
			Expect(t.IsAssigned(addressing.IPv6)).To(BeTrue())
			Expect(t.IsAssigned(addressing.IPv4)).To(BeFalse())

			addr, err := t.IPv6Address(AggregatorToEdge, 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(addr).To(Equal(netip.MustParseAddr("2001:db8:2:1::1")))

			addr, err = t.IPv6Address(AggregatorToCore, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(addr).To(Equal(netip.MustParseAddr("2001:db8:1:1::2")))

			_, err = t.Address(AggregatorToEdge, 0, 1)
			Expect(errors.Is(err, ErrNotAssigned)).To(BeTrue())

			Expect(t.AssignAddresses(caSpace, aeSpace)).To(Succeed())

			d, _ := t.Device(AggregatorToEdge, 0, 1)
			Expect(d.Addresses()).To(ConsistOf(
				netip.MustParsePrefix("2001:db8:2:1::1/64"),
				netip.MustParsePrefix("10.2.1.1/24"),
			))
		})
	})

	It("should require a stack on every node", func() {
		err := t.AssignAddresses(caSpace, aeSpace)

		Expect(errors.Is(err, addressing.ErrNoStack)).To(BeTrue())

		var assignErr *AssignmentError
		Expect(errors.As(err, &assignErr)).To(BeTrue())
		Expect(assignErr.LinkIndex).To(Equal(0))
		Expect(t.IsAssigned(addressing.IPv4)).To(BeFalse())
	})

	It("should require a stack of the same family", func() {
		Expect(t.InstallStacks(network.NewInternetStack())).To(Succeed())

		err := t.AssignIPv6Addresses(
			addressing.MustParseSpace("2001:db8:1::/48", 64),
			addressing.MustParseSpace("2001:db8:2::/48", 64))

		Expect(errors.Is(err, addressing.ErrNoStack)).To(BeTrue())
	})

	It("should invoke hooks once all links are assigned", func() {
		var assigned []LinkAddress
		f = newFixture()

		var tree *Topology
		tree, err := f.builder(1, 2, 1).
			WithHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos != HookPosAddressAssigned {
					return
				}

				Expect(tree.IsAssigned(addressing.IPv4)).To(BeTrue())
				assigned = append(assigned, ctx.Item.(LinkAddress))
			})).
			Build("FatTree")
		Expect(err).NotTo(HaveOccurred())

		Expect(tree.InstallStacks(network.NewInternetStack())).To(Succeed())
		Expect(tree.AssignAddresses(caSpace, aeSpace)).To(Succeed())

		Expect(assigned).To(HaveLen(4))
		for idx, la := range assigned {
			Expect(la.Link.Index).To(Equal(idx))
			Expect(la.Family).To(Equal(addressing.IPv4))
		}
		Expect(assigned[2].Upper.Addr()).
			To(Equal(netip.MustParseAddr("10.1.0.1")))
	})

	It("should require a built topology", func() {
		var tree *Topology

		err := tree.AssignAddresses(caSpace, aeSpace)
		Expect(err).To(MatchError(ErrNotBuilt))
	})
})

func expectAddress(t *Topology, rel Relation, i, j int, want string) {
	GinkgoHelper()

	addr, err := t.Address(rel, i, j)
	Expect(err).NotTo(HaveOccurred())
	Expect(addr).To(Equal(netip.MustParseAddr(want)))
}
