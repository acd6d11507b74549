package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataRate", func() {
	DescribeTable("parsing",
		func(s string, expected DataRate) {
			r, err := ParseDataRate(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(expected))
		},
		Entry("Mbps", "5Mbps", 5*Mbps),
		Entry("Gbps", "10Gbps", 10*Gbps),
		Entry("lower case", "10kbps", 10*Kbps),
		Entry("short unit", "1.5M", 1500*Kbps),
		Entry("bare number", "800", 800*Bps),
	)

	It("should reject garbage", func() {
		_, err := ParseDataRate("fastMbps")
		Expect(err).To(HaveOccurred())

		_, err = ParseDataRate("")
		Expect(err).To(HaveOccurred())

		_, err = ParseDataRate("-1Mbps")
		Expect(err).To(HaveOccurred())
	})

	It("should format", func() {
		Expect((5 * Mbps).String()).To(Equal("5Mbps"))
		Expect((2 * Gbps).String()).To(Equal("2Gbps"))
		Expect(DataRate(1500).String()).To(Equal("1500bps"))
	})
})

var _ = Describe("ParseTime", func() {
	DescribeTable("parsing",
		func(s string, expected VTimeInSec) {
			t, err := ParseTime(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(BeNumerically("~", expected, 1e-15))
		},
		Entry("milliseconds", "2ms", 0.002),
		Entry("microseconds", "10us", 0.00001),
		Entry("nanoseconds", "5ns", 5e-9),
		Entry("seconds", "1.5s", 1.5),
		Entry("bare number", "3", 3.0),
	)

	It("should reject garbage", func() {
		_, err := ParseTime("soon")
		Expect(err).To(HaveOccurred())
	})
})
