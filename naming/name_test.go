package naming

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Name", func() {
	It("should split a name into elements", func() {
		elems, err := Split("FatTree.Aggregator[1].Edge[2][1]")

		Expect(err).NotTo(HaveOccurred())
		Expect(elems).To(Equal([]Element{
			{Name: "FatTree"},
			{Name: "Aggregator", Index: []int{1}},
			{Name: "Edge", Index: []int{2, 1}},
		}))
	})

	DescribeTable("invalid names",
		func(name string) {
			Expect(ValidateName(name)).To(MatchError(ErrInvalidName))
			Expect(func() { NameMustBeValid(name) }).To(Panic())
		},
		Entry("empty", ""),
		Entry("trailing dot", "FatTree.Core."),
		Entry("empty element", "FatTree..Core"),
		Entry("underscore", "Fat_Tree"),
		Entry("dash", "Fat-Tree"),
		Entry("lower case", "fatTree"),
		Entry("open bracket", "Core[0"),
		Entry("close bracket", "Core0]"),
		Entry("text after index", "Core[0]X"),
		Entry("non-integer index", "Core[a]"),
	)

	It("should accept a valid name", func() {
		Expect(ValidateName("FatTree.Core[0].Port[3]")).To(Succeed())
	})

	It("should build names", func() {
		Expect(BuildName("", "FatTree")).To(Equal("FatTree"))
		Expect(BuildName("FatTree", "Core")).To(Equal("FatTree.Core"))
		Expect(BuildNameWithIndex("", "Core", 0)).To(Equal("Core[0]"))
		Expect(BuildNameWithIndex("FatTree", "Core", 2)).
			To(Equal("FatTree.Core[2]"))
		Expect(BuildNameWithMultiDimensionalIndex(
			"FatTree", "Edge", []int{3, 1})).To(Equal("FatTree.Edge[3][1]"))
	})

	It("should only hold valid names", func() {
		Expect(MakeNamedBase("FatTree.Core[0]").Name()).
			To(Equal("FatTree.Core[0]"))
		Expect(func() { MakeNamedBase("Fat Tree") }).To(Panic())
	})
})
