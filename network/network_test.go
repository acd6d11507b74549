package network

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fattree/timing"
)

var _ = Describe("Network", func() {
	var n *Network

	BeforeEach(func() {
		n = NewNetwork()
	})

	It("should create nodes with sequential ids", func() {
		a := n.CreateNode("Net.Node[0]")
		b := n.CreateNode("Net.Node[1]")

		Expect(a.ID()).To(Equal("1"))
		Expect(b.ID()).To(Equal("2"))
		Expect(n.NumNodes()).To(Equal(2))
		Expect(n.Nodes()).To(Equal([]*Node{a, b}))

		found, ok := n.Node(b.ID())
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(b))
	})

	It("should panic on invalid names", func() {
		Expect(func() { n.CreateNode("bad_name") }).To(Panic())
	})
})

var _ = Describe("PointToPoint", func() {
	var (
		n       *Network
		p2p     *PointToPoint
		a, b    *Node
		profile LinkProfile
	)

	BeforeEach(func() {
		n = NewNetwork()
		p2p = NewPointToPoint()
		a = n.CreateNode("A")
		b = n.CreateNode("B")
		profile = LinkProfile{DataRate: 5 * timing.Mbps, Delay: 0.002}
	})

	It("should connect two nodes", func() {
		devA, devB, err := p2p.CreateLink(a, b, profile)

		Expect(err).NotTo(HaveOccurred())
		Expect(devA.Node()).To(BeIdenticalTo(a))
		Expect(devB.Node()).To(BeIdenticalTo(b))
		Expect(devA.Peer()).To(BeIdenticalTo(devB))
		Expect(devB.Peer()).To(BeIdenticalTo(devA))
		Expect(devA.Channel()).To(BeIdenticalTo(devB.Channel()))
		Expect(devA.Channel().Delay()).To(Equal(0.002))
		Expect(devA.DataRate()).To(Equal(5 * timing.Mbps))
		Expect(devA.MTU()).To(Equal(DefaultMTU))
		Expect(devA.Name()).To(Equal("A.Port[0]"))
		Expect(a.Devices()).To(Equal([]*Device{devA}))
		Expect(p2p.NumChannels()).To(Equal(1))
	})

	It("should name ports by attachment order", func() {
		c := n.CreateNode("C")

		_, _, err := p2p.CreateLink(a, b, profile)
		Expect(err).NotTo(HaveOccurred())
		devA, _, err := p2p.CreateLink(a, c, profile)
		Expect(err).NotTo(HaveOccurred())

		Expect(devA.Name()).To(Equal("A.Port[1]"))
		Expect(a.NumDevices()).To(Equal(2))
	})

	It("should reject a zero profile", func() {
		_, _, err := p2p.CreateLink(a, b, LinkProfile{})

		Expect(err).To(MatchError(ErrInvalidProfile))
		Expect(a.NumDevices()).To(Equal(0))
	})

	It("should reject self links", func() {
		_, _, err := p2p.CreateLink(a, a, profile)
		Expect(err).To(MatchError(ErrSelfLink))
	})

	It("should reject nil nodes", func() {
		_, _, err := p2p.CreateLink(nil, a, profile)
		Expect(err).To(MatchError(ErrNilNode))
	})

	It("should keep addresses on devices", func() {
		devA, _, _ := p2p.CreateLink(a, b, profile)
		devA.AddAddress(netip.MustParsePrefix("10.1.1.1/24"))

		Expect(devA.Addresses()).To(ConsistOf(
			netip.MustParsePrefix("10.1.1.1/24")))
	})
})

var _ = Describe("LinkProfile", func() {
	It("should parse", func() {
		p, err := ParseLinkProfile("10Mbps", "10ms")

		Expect(err).NotTo(HaveOccurred())
		Expect(p.DataRate).To(Equal(10 * timing.Mbps))
		Expect(p.Delay).To(BeNumerically("~", 0.01, 1e-12))
	})

	It("should report invalid strings", func() {
		_, err := ParseLinkProfile("fast", "2ms")
		Expect(err).To(MatchError(ErrInvalidProfile))

		_, err = ParseLinkProfile("0Mbps", "2ms")
		Expect(err).To(MatchError(ErrInvalidProfile))
	})

	It("should reject tiny MTUs", func() {
		p := LinkProfile{DataRate: timing.Mbps, MTU: 10}
		Expect(p.Validate()).To(MatchError(ErrInvalidProfile))
	})
})

var _ = Describe("InternetStack", func() {
	var (
		n    *Network
		a, b *Node
	)

	BeforeEach(func() {
		n = NewNetwork()
		a = n.CreateNode("A")
		b = n.CreateNode("B")
	})

	It("should install on every node", func() {
		err := NewInternetStack().WithIPv6(true).Install(a, b)

		Expect(err).NotTo(HaveOccurred())

		st, ok := b.Stack()
		Expect(ok).To(BeTrue())
		Expect(st.IPv4).To(BeTrue())
		Expect(st.IPv6).To(BeTrue())
	})

	It("should refuse to install twice and install nothing", func() {
		Expect(NewInternetStack().Install(b)).To(Succeed())

		err := NewInternetStack().Install(a, b)

		Expect(err).To(MatchError(ErrStackInstalled))
		_, ok := a.Stack()
		Expect(ok).To(BeFalse())
	})

	It("should refuse an empty stack", func() {
		err := NewInternetStack().WithIPv4(false).Install(a)
		Expect(err).To(MatchError(ErrEmptyStack))
	})
})
