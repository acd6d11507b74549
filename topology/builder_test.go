package topology

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/network"
)

var _ = Describe("Builder", func() {
	var (
		mockCtrl *gomock.Controller
		f        *fixture
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		f = newFixture()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should build a 3-4-3 tree", func() {
		t := f.build(3, 4, 3)

		Expect(t.IsBuilt()).To(BeTrue())
		Expect(t.Name()).To(Equal("FatTree"))
		Expect(t.Count(Core)).To(Equal(3))
		Expect(t.Count(Aggregator)).To(Equal(4))
		Expect(t.Count(Edge)).To(Equal(3))
		Expect(t.TotalEdgeCount()).To(Equal(12))
		Expect(t.NumNodes()).To(Equal(19))
		Expect(t.NumLinks()).To(Equal(24))
		Expect(f.net.NumNodes()).To(Equal(19))
		Expect(f.p2p.NumChannels()).To(Equal(24))
	})

	It("should name nodes after their position", func() {
		t := f.build(2, 2, 2)

		core, err := t.Node(Core, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(core.Name()).To(Equal("FatTree.Core[1]"))

		agg, err := t.Node(Aggregator, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(agg.Name()).To(Equal("FatTree.Aggregator[0]"))

		edge, err := t.EdgeNode(1, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(edge.Name()).To(Equal("FatTree.Edge[1][0]"))
	})

	It("should pair core and aggregator devices", func() {
		t := f.build(3, 4, 3)

		for i := 0; i < 3; i++ {
			core, _ := t.Node(Core, i)

			for j := 0; j < 4; j++ {
				agg, _ := t.Node(Aggregator, j)

				down, err := t.Device(CoreToAggregator, i, j)
				Expect(err).NotTo(HaveOccurred())
				up, err := t.Device(AggregatorToCore, j, i)
				Expect(err).NotTo(HaveOccurred())

				Expect(down.Peer()).To(BeIdenticalTo(up))
				Expect(down.Node()).To(BeIdenticalTo(core))
				Expect(up.Node()).To(BeIdenticalTo(agg))
				Expect(down.DataRate()).To(Equal(coreAggregatorProfile.DataRate))
			}
		}
	})

	It("should pair aggregator and edge devices", func() {
		t := f.build(3, 4, 3)

		for i := 0; i < 4; i++ {
			agg, _ := t.Node(Aggregator, i)

			for k := 0; k < 3; k++ {
				edge, _ := t.EdgeNode(i, k)

				down, err := t.Device(AggregatorToEdge, i, k)
				Expect(err).NotTo(HaveOccurred())
				up, err := t.Device(EdgeToAggregator, i, k)
				Expect(err).NotTo(HaveOccurred())

				Expect(down.Peer()).To(BeIdenticalTo(up))
				Expect(down.Node()).To(BeIdenticalTo(agg))
				Expect(up.Node()).To(BeIdenticalTo(edge))
				Expect(up.Channel().Delay()).
					To(Equal(aggregatorEdgeProfile.Delay))
			}
		}
	})

	It("should give every edge node a single device", func() {
		t := f.build(3, 4, 3)

		for _, n := range t.Nodes(Edge) {
			Expect(n.NumDevices()).To(Equal(1))
		}

		for _, n := range t.Nodes(Aggregator) {
			Expect(n.NumDevices()).To(Equal(3 + 3))
		}

		for _, n := range t.Nodes(Core) {
			Expect(n.NumDevices()).To(Equal(4))
		}
	})

	It("should list links in construction order", func() {
		t := f.build(2, 2, 2)

		links := t.Links()
		Expect(links).To(HaveLen(8))

		for idx, l := range links {
			Expect(l.Index).To(Equal(idx))
		}

		Expect(links[0].Kind).To(Equal(AggregatorEdgeLink))
		Expect(links[0].Upper).To(Equal(0))
		Expect(links[0].Lower).To(Equal(0))
		Expect(links[3].Kind).To(Equal(AggregatorEdgeLink))
		Expect(links[3].Upper).To(Equal(1))
		Expect(links[3].Lower).To(Equal(1))
		Expect(links[4].Kind).To(Equal(CoreAggregatorLink))
		Expect(links[5].Upper).To(Equal(0))
		Expect(links[5].Lower).To(Equal(1))
		Expect(links[7].Upper).To(Equal(1))
		Expect(links[7].Lower).To(Equal(1))
	})

	It("should build a tree without core nodes", func() {
		t := f.build(0, 2, 1)

		Expect(t.NumLinks()).To(Equal(2))
		Expect(t.NumNodes()).To(Equal(4))
		Expect(t.Nodes(Core)).To(BeEmpty())

		rows, cols := t.Shape(CoreToAggregator)
		Expect(rows).To(Equal(0))
		Expect(cols).To(Equal(2))
	})

	It("should build an empty tree", func() {
		t := f.build(0, 0, 5)

		Expect(t.IsBuilt()).To(BeTrue())
		Expect(t.NumNodes()).To(Equal(0))
		Expect(t.NumLinks()).To(Equal(0))
	})

	It("should take negative counts as zero", func() {
		t := f.build(-1, 2, -3)

		Expect(t.Count(Core)).To(Equal(0))
		Expect(t.Count(Edge)).To(Equal(0))
		Expect(t.NumNodes()).To(Equal(2))
	})

	It("should not share hooks between builders", func() {
		hook := hooking.HookFunc(func(hooking.HookCtx) {})
		b1 := f.builder(1, 1, 1).WithHook(hook)
		b2 := b1.WithHook(hook)

		t1, err := b1.Build("A")
		Expect(err).NotTo(HaveOccurred())
		t2, err := b2.Build("B")
		Expect(err).NotTo(HaveOccurred())

		Expect(t1.NumHooks()).To(Equal(1))
		Expect(t2.NumHooks()).To(Equal(2))
	})

	It("should reject an invalid link profile before creating nodes", func() {
		_, err := f.builder(3, 4, 3).
			WithCoreAggregatorLink(network.LinkProfile{Delay: 0.002}).
			Build("FatTree")

		Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
		Expect(errors.Is(err, network.ErrInvalidProfile)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("core-aggregator link"))
		Expect(f.net.NumNodes()).To(Equal(0))
	})

	It("should report all configuration problems together", func() {
		_, err := MakeBuilder().
			WithCoreAggregatorLink(network.LinkProfile{}).
			WithAggregatorEdgeLink(network.LinkProfile{}).
			Build("Fat Tree")

		Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("node factory"))
		Expect(err.Error()).To(ContainSubstring("link factory"))
		Expect(err.Error()).To(ContainSubstring("core-aggregator link"))
		Expect(err.Error()).To(ContainSubstring("aggregator-edge link"))
	})

	It("should validate profiles even when no link uses them", func() {
		_, err := f.builder(0, 0, 0).
			WithAggregatorEdgeLink(network.LinkProfile{}).
			Build("FatTree")

		Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
	})

	It("should create nodes and links in order", func() {
		nodeFactory := NewMockNodeFactory(mockCtrl)
		linkFactory := NewMockLinkFactory(mockCtrl)

		var nodes, links []string

		nodeFactory.EXPECT().
			CreateNode(gomock.Any()).
			DoAndReturn(func(name string) *network.Node {
				nodes = append(nodes, name)
				return f.net.CreateNode(name)
			}).
			Times(5)
		linkFactory.EXPECT().
			CreateLink(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(
				a, b *network.Node,
				p network.LinkProfile,
			) (*network.Device, *network.Device, error) {
				links = append(links, a.Name()+"-"+b.Name())
				return f.p2p.CreateLink(a, b, p)
			}).
			Times(4)

		_, err := f.builder(1, 2, 1).
			WithNodeFactory(nodeFactory).
			WithLinkFactory(linkFactory).
			Build("FT")

		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(Equal([]string{
			"FT.Core[0]",
			"FT.Aggregator[0]",
			"FT.Aggregator[1]",
			"FT.Edge[0][0]",
			"FT.Edge[1][0]",
		}))
		Expect(links).To(Equal([]string{
			"FT.Aggregator[0]-FT.Edge[0][0]",
			"FT.Aggregator[1]-FT.Edge[1][0]",
			"FT.Core[0]-FT.Aggregator[0]",
			"FT.Core[0]-FT.Aggregator[1]",
		}))
	})

	It("should pass the right profile to each link", func() {
		linkFactory := NewMockLinkFactory(mockCtrl)

		gomock.InOrder(
			linkFactory.EXPECT().
				CreateLink(gomock.Any(), gomock.Any(), aggregatorEdgeProfile).
				DoAndReturn(f.p2p.CreateLink),
			linkFactory.EXPECT().
				CreateLink(gomock.Any(), gomock.Any(), coreAggregatorProfile).
				DoAndReturn(f.p2p.CreateLink),
		)

		_, err := f.builder(1, 1, 1).
			WithLinkFactory(linkFactory).
			Build("FatTree")

		Expect(err).NotTo(HaveOccurred())
	})

	It("should stop at the first link that cannot be created", func() {
		linkFactory := NewMockLinkFactory(mockCtrl)
		failure := errors.New("no more ports")

		gomock.InOrder(
			linkFactory.EXPECT().
				CreateLink(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(f.p2p.CreateLink),
			linkFactory.EXPECT().
				CreateLink(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, nil, failure),
		)

		t, err := f.builder(1, 1, 2).
			WithLinkFactory(linkFactory).
			Build("FatTree")

		Expect(t).To(BeNil())
		Expect(errors.Is(err, failure)).To(BeTrue())

		var linkErr *LinkError
		Expect(errors.As(err, &linkErr)).To(BeTrue())
		Expect(linkErr.Kind).To(Equal(AggregatorEdgeLink))
		Expect(linkErr.Upper).To(Equal(0))
		Expect(linkErr.Lower).To(Equal(1))

		Expect(f.net.NumNodes()).To(Equal(4))
		Expect(f.p2p.NumChannels()).To(Equal(1))
	})

	It("should reject a link factory that returns no devices", func() {
		linkFactory := NewMockLinkFactory(mockCtrl)
		linkFactory.EXPECT().
			CreateLink(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil, nil)

		_, err := f.builder(1, 1, 1).
			WithLinkFactory(linkFactory).
			Build("FatTree")

		var linkErr *LinkError
		Expect(errors.As(err, &linkErr)).To(BeTrue())
	})

	It("should invoke hooks while building", func() {
		var nodeInfos []NodeInfo
		var links []Link

		hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
			switch ctx.Pos {
			case HookPosNodeCreated:
				nodeInfos = append(nodeInfos, ctx.Detail.(NodeInfo))
			case HookPosLinkCreated:
				links = append(links, ctx.Item.(Link))
			}
		})

		t, err := f.builder(3, 4, 3).WithHook(hook).Build("FatTree")

		Expect(err).NotTo(HaveOccurred())
		Expect(nodeInfos).To(HaveLen(19))
		Expect(nodeInfos[0]).To(Equal(NodeInfo{Tier: Core, Aggregator: -1}))
		Expect(nodeInfos[7]).
			To(Equal(NodeInfo{Tier: Edge, Aggregator: 0, Index: 0}))
		Expect(nodeInfos[18]).
			To(Equal(NodeInfo{Tier: Edge, Aggregator: 3, Index: 2}))
		Expect(links).To(Equal(t.Links()))
	})
})
